package ai

import (
	"context"
	"fmt"
	"time"
)

// EmbedFunc embeds a single input.
type EmbedFunc func(ctx context.Context, input string) ([]float32, error)

// EmbedPaced embeds inputs one at a time with a mandatory delay between
// consecutive provider calls. Deliberately sequential; embedding
// endpoints carry the tightest rate limits in the ingestion path.
func EmbedPaced(ctx context.Context, pacing time.Duration, inputs []string, embed EmbedFunc) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(inputs))
	for i, input := range inputs {
		if i > 0 {
			select {
			case <-time.After(pacing):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		vec, err := embed(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("embedding input %d: %w", i, err)
		}
		out = append(out, vec)
	}
	return out, nil
}
