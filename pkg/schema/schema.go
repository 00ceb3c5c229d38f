// Package schema defines the closed ontology for the knowledge graph.
// The node label and relation type sets are part of the wire contract
// between the extractor and the graph store and must not silently grow.
package schema

import "strings"

// Node labels.
const (
	LabelConcept      = "Concept"
	LabelTechnology   = "Technology"
	LabelOrganization = "Organization"
	LabelPerson       = "Person"
	LabelEvent        = "Event"
	LabelProduct      = "Product"
)

// Relation types.
const (
	RelationRelatesTo  = "RELATES_TO"
	RelationIsPartOf   = "IS_PART_OF"
	RelationUses       = "USES"
	RelationProducedBy = "PRODUCED_BY"
	RelationAffects    = "AFFECTS"
	RelationLaunched   = "LAUNCHED"
	RelationWorksFor   = "WORKS_FOR"
)

// FallbackLabel is assigned to entities that do not fit any label.
const FallbackLabel = LabelConcept

// FallbackRelation is assigned to relations of an unknown type.
const FallbackRelation = RelationRelatesTo

// NodeLabels lists every allowed node label.
func NodeLabels() []string {
	return []string{
		LabelConcept,
		LabelTechnology,
		LabelOrganization,
		LabelPerson,
		LabelEvent,
		LabelProduct,
	}
}

// RelationTypes lists every allowed relation type.
func RelationTypes() []string {
	return []string{
		RelationRelatesTo,
		RelationIsPartOf,
		RelationUses,
		RelationProducedBy,
		RelationAffects,
		RelationLaunched,
		RelationWorksFor,
	}
}

// CoerceLabel maps a model-produced label onto the ontology. Unknown
// labels collapse to the fallback instead of being rejected.
func CoerceLabel(label string) string {
	normalized := strings.TrimSpace(label)
	for _, known := range NodeLabels() {
		if strings.EqualFold(normalized, known) {
			return known
		}
	}
	return FallbackLabel
}

// CoerceRelation maps a model-produced relation type onto the ontology.
// Unknown types collapse to the fallback instead of being invented.
func CoerceRelation(relation string) string {
	normalized := strings.ToUpper(strings.TrimSpace(relation))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	for _, known := range RelationTypes() {
		if normalized == known {
			return known
		}
	}
	return FallbackRelation
}

// CanonicalID derives the deduplication key for an entity name.
// Re-ingesting the same entity from another document must map to the
// same key, so the store's uniqueness constraint merges the mentions.
func CanonicalID(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(lowered), " ")
}
