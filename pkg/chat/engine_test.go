package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/topiclens/backend/pkg/ai"
	pgxstore "github.com/topiclens/backend/pkg/store/pgx"
)

type fakeStreamModel struct {
	gotPrompt string
	events    []ai.StreamEvent
	err       error
}

func (f *fakeStreamModel) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeStreamModel) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	return errors.New("not implemented")
}

func (f *fakeStreamModel) GenerateCompletionStream(ctx context.Context, prompt string, opts ...ai.GenerateOption) (<-chan ai.StreamEvent, error) {
	f.gotPrompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan ai.StreamEvent, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func (f *fakeStreamModel) ResetMetrics()               {}
func (f *fakeStreamModel) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, input string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.5, 0.5}, nil
}

func (f *fakeEmbedder) GenerateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{0.5, 0.5}
	}
	return out, nil
}

type fakeRetriever struct {
	snippets  []pgxstore.Snippet
	topKErr   error
	pingErr   error
	pingCalls int
	gotK      int
}

func (f *fakeRetriever) TopK(ctx context.Context, embedding []float32, k int) ([]pgxstore.Snippet, error) {
	f.gotK = k
	if f.topKErr != nil {
		return nil, f.topKErr
	}
	return f.snippets, nil
}

func (f *fakeRetriever) Ping(ctx context.Context) error {
	f.pingCalls++
	return f.pingErr
}

func TestStreamAnswerConditionsOnRetrievedContext(t *testing.T) {
	model := &fakeStreamModel{events: []ai.StreamEvent{
		{Type: "content", Content: "Graphene is"},
		{Type: "content", Content: " a material."},
	}}
	retriever := &fakeRetriever{snippets: []pgxstore.Snippet{
		{URL: "https://a.example/1", Title: "Graphene", Content: "Graphene is a 2D carbon lattice."},
	}}
	engine := NewEngine(Params{Model: model, Embedder: &fakeEmbedder{}, Snippets: retriever})

	stream, err := engine.StreamAnswer(context.Background(), "what is graphene?")
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	var answer strings.Builder
	for ev := range stream {
		if ev.Type == "content" {
			answer.WriteString(ev.Content)
		}
	}
	if answer.String() != "Graphene is a material." {
		t.Errorf("unexpected accumulated answer: %q", answer.String())
	}

	if retriever.gotK != DefaultTopK {
		t.Errorf("expected top-%d retrieval, got %d", DefaultTopK, retriever.gotK)
	}
	if !strings.Contains(model.gotPrompt, "2D carbon lattice") {
		t.Errorf("expected prompt to contain retrieved snippet, got %q", model.gotPrompt)
	}
	if !strings.Contains(model.gotPrompt, "what is graphene?") {
		t.Errorf("expected prompt to contain the question")
	}
}

func TestStreamAnswerPromptStaysValidUTF8(t *testing.T) {
	model := &fakeStreamModel{events: []ai.StreamEvent{{Type: "content", Content: "ok"}}}
	retriever := &fakeRetriever{snippets: []pgxstore.Snippet{
		{URL: "https://a.example/1", Title: "Page", Content: strings.Repeat("日本語のテキスト。", 200)},
	}}
	engine := NewEngine(Params{Model: model, Embedder: &fakeEmbedder{}, Snippets: retriever})

	stream, err := engine.StreamAnswer(context.Background(), "question")
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	for range stream {
	}

	if !utf8.ValidString(model.gotPrompt) {
		t.Error("prompt is not valid UTF-8 after snippet truncation")
	}
}

func TestStreamAnswerDegradesWithoutContext(t *testing.T) {
	model := &fakeStreamModel{events: []ai.StreamEvent{{Type: "content", Content: "Not covered."}}}
	retriever := &fakeRetriever{}
	engine := NewEngine(Params{Model: model, Embedder: &fakeEmbedder{}, Snippets: retriever})

	stream, err := engine.StreamAnswer(context.Background(), "unrelated question")
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	for range stream {
	}

	if !strings.Contains(model.gotPrompt, "no matching context") {
		t.Errorf("expected degraded prompt, got %q", model.gotPrompt)
	}
}

func TestStreamAnswerDegradesOnRetrievalError(t *testing.T) {
	model := &fakeStreamModel{events: []ai.StreamEvent{{Type: "content", Content: "ok"}}}
	retriever := &fakeRetriever{topKErr: errors.New("store down")}
	engine := NewEngine(Params{Model: model, Embedder: &fakeEmbedder{}, Snippets: retriever})

	stream, err := engine.StreamAnswer(context.Background(), "question")
	if err != nil {
		t.Fatalf("expected retrieval failure to degrade, got %v", err)
	}
	for range stream {
	}

	if !strings.Contains(model.gotPrompt, "no matching context") {
		t.Errorf("expected degraded prompt, got %q", model.gotPrompt)
	}
}

func TestInitFailureRetriesCleanly(t *testing.T) {
	model := &fakeStreamModel{events: []ai.StreamEvent{{Type: "content", Content: "ok"}}}
	retriever := &fakeRetriever{pingErr: errors.New("connection refused")}
	engine := NewEngine(Params{Model: model, Embedder: &fakeEmbedder{}, Snippets: retriever})

	if _, err := engine.StreamAnswer(context.Background(), "q"); err == nil {
		t.Fatal("expected init failure to propagate")
	}

	retriever.pingErr = nil
	if _, err := engine.StreamAnswer(context.Background(), "q"); err != nil {
		t.Fatalf("expected retry after failed init to succeed, got %v", err)
	}
	if retriever.pingCalls != 2 {
		t.Errorf("expected 2 ping attempts, got %d", retriever.pingCalls)
	}
}

func TestInitIsMemoized(t *testing.T) {
	model := &fakeStreamModel{events: []ai.StreamEvent{{Type: "content", Content: "ok"}}}
	retriever := &fakeRetriever{}
	engine := NewEngine(Params{Model: model, Embedder: &fakeEmbedder{}, Snippets: retriever})

	for range 3 {
		stream, err := engine.StreamAnswer(context.Background(), "q")
		if err != nil {
			t.Fatalf("stream failed: %v", err)
		}
		for range stream {
		}
	}

	if retriever.pingCalls != 1 {
		t.Errorf("expected a single memoized init, got %d pings", retriever.pingCalls)
	}
}
