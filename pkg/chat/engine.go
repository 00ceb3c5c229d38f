// Package chat answers questions over the ingested knowledge using
// embedding retrieval and a streaming completion.
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/topiclens/backend/internal/util"
	"github.com/topiclens/backend/pkg/ai"
	"github.com/topiclens/backend/pkg/logger"
	pgxstore "github.com/topiclens/backend/pkg/store/pgx"
)

// DefaultTopK is how many snippets condition the answer.
const DefaultTopK = 5

// snippetContextChars caps how much of each snippet enters the prompt.
const snippetContextChars = 1500

// SnippetRetriever is the slice of the snippet store the engine needs.
type SnippetRetriever interface {
	TopK(ctx context.Context, embedding []float32, k int) ([]pgxstore.Snippet, error)
	Ping(ctx context.Context) error
}

// Engine streams answers grounded in retrieved snippets. Initialization
// is lazy and memoized; a failed init leaves the engine uninitialized
// so the next call retries from scratch.
type Engine struct {
	model    ai.ModelClient
	embedder ai.EmbeddingClient
	snippets SnippetRetriever
	topK     int

	initLock    sync.Mutex
	initialized bool
}

// Params configures an Engine.
type Params struct {
	Model    ai.ModelClient
	Embedder ai.EmbeddingClient
	Snippets SnippetRetriever
	TopK     int
}

// NewEngine creates an Engine. No external calls happen until the
// first StreamAnswer.
func NewEngine(params Params) *Engine {
	topK := params.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Engine{
		model:    params.Model,
		embedder: params.Embedder,
		snippets: params.Snippets,
		topK:     topK,
	}
}

func (e *Engine) ensureInit(ctx context.Context) error {
	e.initLock.Lock()
	defer e.initLock.Unlock()

	if e.initialized {
		return nil
	}
	if err := e.snippets.Ping(ctx); err != nil {
		return fmt.Errorf("chat engine init failed: %w", err)
	}
	e.initialized = true
	return nil
}

// StreamAnswer retrieves context for the query and streams the answer.
// Retrieval failures degrade to answering without context rather than
// refusing; only init and stream setup errors are returned.
func (e *Engine) StreamAnswer(ctx context.Context, query string) (<-chan ai.StreamEvent, error) {
	if err := e.ensureInit(ctx); err != nil {
		return nil, err
	}

	prompt := e.buildPrompt(ctx, query)

	stream, err := e.model.GenerateCompletionStream(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to start answer stream: %w", err)
	}
	return stream, nil
}

func (e *Engine) buildPrompt(ctx context.Context, query string) string {
	snippets := e.retrieve(ctx, query)
	if len(snippets) == 0 {
		return fmt.Sprintf(ai.AnswerPromptNoContext, query)
	}

	var contextBlock strings.Builder
	for i, snippet := range snippets {
		content := util.TruncateUTF8(snippet.Content, snippetContextChars)
		fmt.Fprintf(&contextBlock, "[%d] %s (%s)\n%s\n\n", i+1, snippet.Title, snippet.URL, content)
	}

	return fmt.Sprintf(ai.AnswerPrompt, strings.TrimSpace(contextBlock.String()), query)
}

func (e *Engine) retrieve(ctx context.Context, query string) []pgxstore.Snippet {
	embedding, err := e.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		logger.Warn("[Chat] Failed to embed query, answering without context", "err", err)
		return nil
	}

	snippets, err := e.snippets.TopK(ctx, embedding, e.topK)
	if err != nil {
		logger.Warn("[Chat] Retrieval failed, answering without context", "err", err)
		return nil
	}
	return snippets
}
