package schema

import "testing"

func TestCoerceLabel_KnownLabelKeepsCasing(t *testing.T) {
	if got := CoerceLabel("organization"); got != LabelOrganization {
		t.Fatalf("expected %s, got %s", LabelOrganization, got)
	}
	if got := CoerceLabel("Technology"); got != LabelTechnology {
		t.Fatalf("expected %s, got %s", LabelTechnology, got)
	}
}

func TestCoerceLabel_UnknownFallsBack(t *testing.T) {
	for _, label := range []string{"Animal", "LOCATION", "", "  "} {
		if got := CoerceLabel(label); got != FallbackLabel {
			t.Fatalf("expected fallback for %q, got %s", label, got)
		}
	}
}

func TestCoerceRelation_NormalizesSpacing(t *testing.T) {
	if got := CoerceRelation("works for"); got != RelationWorksFor {
		t.Fatalf("expected %s, got %s", RelationWorksFor, got)
	}
	if got := CoerceRelation("produced_by"); got != RelationProducedBy {
		t.Fatalf("expected %s, got %s", RelationProducedBy, got)
	}
}

func TestCoerceRelation_UnknownFallsBack(t *testing.T) {
	if got := CoerceRelation("INVENTED_BY"); got != FallbackRelation {
		t.Fatalf("expected fallback, got %s", got)
	}
}

func TestCanonicalID_MergesVariants(t *testing.T) {
	a := CanonicalID("  Google ")
	b := CanonicalID("google")
	c := CanonicalID("GOOGLE")
	if a != b || b != c {
		t.Fatalf("expected one identity, got %q %q %q", a, b, c)
	}
	if CanonicalID("New  York") != "new york" {
		t.Fatalf("expected collapsed whitespace, got %q", CanonicalID("New  York"))
	}
}

func TestOntologyIsClosed(t *testing.T) {
	if len(NodeLabels()) != 6 {
		t.Fatalf("node label set changed size: %d", len(NodeLabels()))
	}
	if len(RelationTypes()) != 7 {
		t.Fatalf("relation type set changed size: %d", len(RelationTypes()))
	}
}
