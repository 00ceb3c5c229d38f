package ai

import "testing"

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestUnmarshalFlexible_StandardJSON(t *testing.T) {
	var out sample
	if err := UnmarshalFlexible(`{"name": "graph", "count": 3}`, &out); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if out.Name != "graph" || out.Count != 3 {
		t.Fatalf("unexpected result %+v", out)
	}
}

func TestUnmarshalFlexible_DoubleEncoded(t *testing.T) {
	var out sample
	if err := UnmarshalFlexible(`"{\"name\": \"graph\", \"count\": 1}"`, &out); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if out.Name != "graph" || out.Count != 1 {
		t.Fatalf("unexpected result %+v", out)
	}
}

func TestUnmarshalFlexible_RepairsMalformed(t *testing.T) {
	var out sample
	if err := UnmarshalFlexible(`{name: "graph", count: 2,}`, &out); err != nil {
		t.Fatalf("expected repairable input, got %v", err)
	}
	if out.Name != "graph" || out.Count != 2 {
		t.Fatalf("unexpected result %+v", out)
	}
}

func TestUnmarshalFlexible_DuplicateLeadingBrace(t *testing.T) {
	var out sample
	if err := UnmarshalFlexible(`{ {"name": "graph", "count": 5}`, &out); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if out.Count != 5 {
		t.Fatalf("unexpected result %+v", out)
	}
}

func TestGenerateSchema_PointerAndValueAgree(t *testing.T) {
	a := GenerateSchema(sample{})
	b := GenerateSchema(&sample{})
	if a == nil || b == nil {
		t.Fatal("expected non-nil schemas")
	}
}
