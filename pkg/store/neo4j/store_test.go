package neo4j

import (
	"strings"
	"testing"

	"github.com/topiclens/backend/pkg/schema"
)

func TestNodeMergePatternIsLabelIndependent(t *testing.T) {
	// The same canonical id must land on the same node even when two
	// documents disagree on the entity's label, so the MERGE pattern may
	// not vary with the label.
	mergeLine := func(query string) string {
		for _, line := range strings.Split(query, "\n") {
			if strings.Contains(line, "MERGE") {
				return strings.TrimSpace(line)
			}
		}
		return ""
	}

	first := mergeLine(nodeMergeQuery(schema.LabelOrganization))
	for _, label := range schema.NodeLabels() {
		got := mergeLine(nodeMergeQuery(label))
		if got != first {
			t.Fatalf("merge pattern varies with label %s: %q vs %q", label, got, first)
		}
	}

	if !strings.Contains(first, "MERGE (n:Entity {id: $id})") {
		t.Errorf("expected merge on shared identity label, got %q", first)
	}
}

func TestNodeMergeAppliesOntologyLabel(t *testing.T) {
	query := nodeMergeQuery(schema.LabelPerson)
	if !strings.Contains(query, "SET n:Person") {
		t.Errorf("expected ontology label applied on top, got %q", query)
	}
}

func TestEdgeMergeMatchesThroughIdentityLabel(t *testing.T) {
	for _, relation := range schema.RelationTypes() {
		query := edgeMergeQuery(relation)
		if !strings.Contains(query, "MATCH (a:Entity {id: $source_id})") {
			t.Fatalf("expected source matched through identity label, got %q", query)
		}
		if !strings.Contains(query, "MATCH (b:Entity {id: $target_id})") {
			t.Fatalf("expected target matched through identity label, got %q", query)
		}
		if !strings.Contains(query, "MERGE (a)-[r:"+relation+"]->(b)") {
			t.Fatalf("expected typed edge merge, got %q", query)
		}
	}
}
