package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/topiclens/backend/pkg/ai"
	"github.com/topiclens/backend/pkg/schema"
)

// MinExtractLength is the minimum cleaned-text length worth sending to
// the model. Shorter documents are usually error pages or boilerplate.
const MinExtractLength = 50

type extractEntity struct {
	Name        string `json:"name" jsonschema_description:"Canonical name of the entity"`
	Label       string `json:"label" jsonschema_description:"One of the allowed node types"`
	Description string `json:"description" jsonschema_description:"Short description of the entity based on the document"`
}

type extractRelation struct {
	SourceEntity string `json:"source_entity" jsonschema_description:"Name of the source entity, as listed in entities"`
	TargetEntity string `json:"target_entity" jsonschema_description:"Name of the target entity, as listed in entities"`
	RelationType string `json:"relation_type" jsonschema_description:"One of the allowed relationship types"`
	Description  string `json:"description" jsonschema_description:"Why the source and target entities are related"`
}

type extractResponse struct {
	Entities  []extractEntity   `json:"entities" jsonschema_description:"Entities identified in the document"`
	Relations []extractRelation `json:"relations" jsonschema_description:"Relationships between the identified entities"`
}

// Extractor produces ontology-conformant fragments from cleaned page
// text using a structured-output model call.
type Extractor struct {
	client ai.ModelClient
}

// NewExtractor creates an Extractor backed by the given model client.
func NewExtractor(client ai.ModelClient) *Extractor {
	return &Extractor{client: client}
}

// Extract runs schema-constrained extraction over a single document.
// Documents shorter than MinExtractLength yield an empty fragment
// without a model call. Off-schema labels and relation types coming
// back from the model are coerced, never passed through.
func (e *Extractor) Extract(ctx context.Context, sourceURL, text string) (Fragment, error) {
	fragment := Fragment{SourceURL: sourceURL}

	trimmed := strings.TrimSpace(text)
	if len(trimmed) < MinExtractLength {
		return fragment, nil
	}

	systemPrompt := fmt.Sprintf(
		ai.ExtractPrompt,
		strings.Join(schema.NodeLabels(), ", "),
		strings.Join(schema.RelationTypes(), ", "),
		sourceURL,
	)

	var res extractResponse
	err := e.client.GenerateCompletionWithFormat(
		ctx,
		"extract_graph_fragment",
		"Extract typed entities and relationships from a web document.",
		trimmed,
		&res,
		ai.WithSystemPrompts(systemPrompt),
	)
	if err != nil {
		return fragment, fmt.Errorf("extraction failed for %s: %w", sourceURL, err)
	}

	seen := make(map[string]int, len(res.Entities))
	for _, entity := range res.Entities {
		if strings.TrimSpace(entity.Name) == "" {
			continue
		}
		node := newNode(entity.Name, entity.Label, entity.Description, sourceURL)
		if idx, ok := seen[node.ID]; ok {
			if fragment.Nodes[idx].Description == "" {
				fragment.Nodes[idx].Description = node.Description
			}
			continue
		}
		seen[node.ID] = len(fragment.Nodes)
		fragment.Nodes = append(fragment.Nodes, node)
	}

	for _, rel := range res.Relations {
		sourceID := schema.CanonicalID(rel.SourceEntity)
		targetID := schema.CanonicalID(rel.TargetEntity)
		if _, ok := seen[sourceID]; !ok {
			continue
		}
		if _, ok := seen[targetID]; !ok {
			continue
		}
		if sourceID == targetID {
			continue
		}
		fragment.Edges = append(fragment.Edges, Edge{
			SourceID:    sourceID,
			TargetID:    targetID,
			Type:        schema.CoerceRelation(rel.RelationType),
			Description: rel.Description,
		})
	}

	return fragment, nil
}
