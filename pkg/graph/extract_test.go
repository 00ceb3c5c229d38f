package graph

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/topiclens/backend/pkg/ai"
	"github.com/topiclens/backend/pkg/schema"
)

type fakeModelClient struct {
	calls    int
	response extractResponse
	err      error
}

func (f *fakeModelClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeModelClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	raw, err := json.Marshal(f.response)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (f *fakeModelClient) GenerateCompletionStream(ctx context.Context, prompt string, opts ...ai.GenerateOption) (<-chan ai.StreamEvent, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeModelClient) ResetMetrics()               {}
func (f *fakeModelClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func TestExtractShortTextSkipsModel(t *testing.T) {
	client := &fakeModelClient{}
	extractor := NewExtractor(client)

	fragment, err := extractor.Extract(context.Background(), "https://example.com/a", "   too short   ")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	if client.calls != 0 {
		t.Errorf("expected no model calls for short text, got %d", client.calls)
	}
	if !fragment.Empty() {
		t.Errorf("expected empty fragment, got %d nodes %d edges", len(fragment.Nodes), len(fragment.Edges))
	}
	if fragment.SourceURL != "https://example.com/a" {
		t.Errorf("unexpected source url: %s", fragment.SourceURL)
	}
}

func TestExtractCoercesOffSchemaTypes(t *testing.T) {
	client := &fakeModelClient{
		response: extractResponse{
			Entities: []extractEntity{
				{Name: "Alice", Label: "Person", Description: "a researcher"},
				{Name: "QuantumCo", Label: "Startup", Description: "a company"},
			},
			Relations: []extractRelation{
				{SourceEntity: "Alice", TargetEntity: "QuantumCo", RelationType: "EMPLOYED_AT", Description: "works there"},
			},
		},
	}
	extractor := NewExtractor(client)

	fragment, err := extractor.Extract(context.Background(), "https://example.com/a", strings.Repeat("quantum computing research ", 10))
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	if len(fragment.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(fragment.Nodes))
	}
	if fragment.Nodes[0].Label != schema.LabelPerson {
		t.Errorf("expected Person label, got %s", fragment.Nodes[0].Label)
	}
	if fragment.Nodes[1].Label != schema.FallbackLabel {
		t.Errorf("expected fallback label for off-schema type, got %s", fragment.Nodes[1].Label)
	}

	if len(fragment.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(fragment.Edges))
	}
	if fragment.Edges[0].Type != schema.FallbackRelation {
		t.Errorf("expected fallback relation for off-schema type, got %s", fragment.Edges[0].Type)
	}
}

func TestExtractMergesDuplicateEntities(t *testing.T) {
	client := &fakeModelClient{
		response: extractResponse{
			Entities: []extractEntity{
				{Name: "Google", Label: "Organization", Description: ""},
				{Name: "google", Label: "Organization", Description: "search company"},
			},
		},
	}
	extractor := NewExtractor(client)

	fragment, err := extractor.Extract(context.Background(), "https://example.com/a", strings.Repeat("search engines ", 10))
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	if len(fragment.Nodes) != 1 {
		t.Fatalf("expected duplicate entities to merge into 1 node, got %d", len(fragment.Nodes))
	}
	if fragment.Nodes[0].Description != "search company" {
		t.Errorf("expected merged description, got %q", fragment.Nodes[0].Description)
	}
}

func TestExtractDropsDanglingRelations(t *testing.T) {
	client := &fakeModelClient{
		response: extractResponse{
			Entities: []extractEntity{
				{Name: "Alice", Label: "Person"},
			},
			Relations: []extractRelation{
				{SourceEntity: "Alice", TargetEntity: "Unknown Entity", RelationType: "RELATES_TO"},
				{SourceEntity: "Alice", TargetEntity: "Alice", RelationType: "RELATES_TO"},
			},
		},
	}
	extractor := NewExtractor(client)

	fragment, err := extractor.Extract(context.Background(), "https://example.com/a", strings.Repeat("people ", 20))
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	if len(fragment.Edges) != 0 {
		t.Fatalf("expected dangling and self relations to be dropped, got %d edges", len(fragment.Edges))
	}
}

func TestExtractModelFailure(t *testing.T) {
	client := &fakeModelClient{err: errors.New("provider unavailable")}
	extractor := NewExtractor(client)

	fragment, err := extractor.Extract(context.Background(), "https://example.com/a", strings.Repeat("content ", 20))
	if err == nil {
		t.Fatal("expected error from model failure")
	}
	if !fragment.Empty() {
		t.Errorf("expected empty fragment on failure")
	}
}
