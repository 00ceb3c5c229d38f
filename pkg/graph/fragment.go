// Package graph turns web documents into typed knowledge graph
// fragments that conform to the fixed ontology in pkg/schema.
package graph

import "github.com/topiclens/backend/pkg/schema"

// Node is a typed entity in the knowledge graph. ID is the canonical
// form of the name, so the same real-world entity merges across pages.
type Node struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description"`
	SourceURL   string `json:"source_url"`
}

// Edge is a typed relation between two nodes, referenced by node ID.
type Edge struct {
	SourceID    string `json:"source_id"`
	TargetID    string `json:"target_id"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Fragment is the extraction result for a single document. An empty
// fragment is valid; it commits nothing.
type Fragment struct {
	SourceURL string `json:"source_url"`
	Nodes     []Node `json:"nodes"`
	Edges     []Edge `json:"edges"`
}

// Empty reports whether the fragment carries no graph content.
func (f Fragment) Empty() bool {
	return len(f.Nodes) == 0 && len(f.Edges) == 0
}

func newNode(name, label, description, sourceURL string) Node {
	return Node{
		ID:          schema.CanonicalID(name),
		Name:        name,
		Label:       schema.CoerceLabel(label),
		Description: description,
		SourceURL:   sourceURL,
	}
}
