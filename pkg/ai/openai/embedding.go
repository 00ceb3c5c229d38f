package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/topiclens/backend/internal/util"
	"github.com/topiclens/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
)

// GenerateEmbedding creates a vector embedding for the given input text
// using the configured embedding model.
func (c *GraphOpenAIClient) GenerateEmbedding(ctx context.Context, input string) ([]float32, error) {
	if c.EmbeddingClient == nil {
		return nil, errors.New("embedding client not configured")
	}

	body := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(input)},
		Model: c.embeddingModel,
	}

	response, err := util.RetryBackoff(ctx, c.backoff, isTransient,
		func(ctx context.Context) (*openai.CreateEmbeddingResponse, error) {
			start := time.Now()
			response, err := c.EmbeddingClient.Embeddings.New(ctx, body)
			if err != nil {
				return nil, err
			}

			c.modifyMetrics(ai.ModelMetrics{
				InputTokens: int(response.Usage.PromptTokens),
				TotalTokens: int(response.Usage.TotalTokens),
				DurationMs:  time.Since(start).Milliseconds(),
			})
			return response, nil
		})
	if err != nil {
		return nil, err
	}
	if len(response.Data) != 1 {
		return nil, fmt.Errorf("unexpected embedding result size: got %d want 1", len(response.Data))
	}

	vec := make([]float32, 0, len(response.Data[0].Embedding))
	for _, v := range response.Data[0].Embedding {
		vec = append(vec, float32(v))
	}
	return vec, nil
}

// GenerateEmbeddings embeds inputs one at a time with a pacing delay
// between provider calls. Embedding endpoints carry the tightest rate
// limits in the ingestion path, so this is deliberately sequential.
func (c *GraphOpenAIClient) GenerateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error) {
	return ai.EmbedPaced(ctx, c.embedPacing, inputs, c.GenerateEmbedding)
}
