package ollama

import (
	"context"
	"fmt"

	"github.com/topiclens/backend/internal/util"
	"github.com/topiclens/backend/pkg/ai"

	"github.com/ollama/ollama/api"
)

// GenerateEmbedding creates a vector embedding for the given input text
// using the configured embedding model on Ollama.
func (c *GraphOllamaClient) GenerateEmbedding(ctx context.Context, input string) ([]float32, error) {
	req := &api.EmbedRequest{
		Model: c.embeddingModel,
		Input: input,
	}

	res, err := util.RetryBackoff(ctx, c.backoff, isTransient,
		func(ctx context.Context) (*api.EmbedResponse, error) {
			return c.Client.Embed(ctx, req)
		})
	if err != nil {
		return nil, err
	}
	if len(res.Embeddings) == 0 {
		return nil, fmt.Errorf("embedding response empty for model %s", c.embeddingModel)
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens: res.PromptEvalCount,
		TotalTokens: res.PromptEvalCount,
		DurationMs:  res.TotalDuration.Milliseconds(),
	})

	src := res.Embeddings[0]
	out := make([]float32, 0, len(src))
	for _, v := range src {
		out = append(out, float32(v))
	}
	return out, nil
}

// GenerateEmbeddings embeds inputs sequentially with a pacing delay
// between calls; local Ollama servers stall under bursts just like
// hosted endpoints under rate limits.
func (c *GraphOllamaClient) GenerateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error) {
	return ai.EmbedPaced(ctx, c.embedPacing, inputs, c.GenerateEmbedding)
}
