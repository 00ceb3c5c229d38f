package ai

import (
	"context"
)

// StreamEvent represents one event in a streaming completion.
//
// Type is one of:
//   - "content" → Content carries a text delta
//   - "error"   → the stream terminated early; Err holds the reason and
//     no further events follow. Deltas already delivered stand.
//
// A stream that closes without an "error" event completed normally.
type StreamEvent struct {
	Type    string
	Content string
	Err     string
}

// ModelMetrics contains accumulated usage metrics from model operations.
type ModelMetrics struct {
	InputTokens  int   `json:"input_tokens"`
	OutputTokens int   `json:"output_tokens"`
	TotalTokens  int   `json:"total_tokens"`
	DurationMs   int64 `json:"duration_ms"`
}

// GenerateOptions holds configuration for model generation requests.
type GenerateOptions struct {
	Model         string
	SystemPrompts []string
	Temperature   float64
}

// GenerateOption is a functional option for configuring generation requests.
type GenerateOption func(*GenerateOptions)

// WithModel sets the model to use for generation.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithSystemPrompts sets the system prompts prepended to the request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// ModelClient defines text generation against a provider. Implementations
// own the retry-with-backoff policy for transient provider failures so
// callers never see a rate-limit error that backoff could have absorbed.
// All calls are blocking; retry state is per-call-scoped.
type ModelClient interface {
	// GenerateCompletion sends a single-turn prompt and returns the
	// assistant text. Transient provider errors (rate limit, temporary
	// unavailability) are retried with exponential backoff; permanent
	// errors (bad credentials, malformed request, unknown model) fail
	// immediately.
	GenerateCompletion(ctx context.Context, prompt string, opts ...GenerateOption) (string, error)

	// GenerateCompletionWithFormat enforces a JSON schema derived from
	// out and unmarshals the response into it.
	GenerateCompletionWithFormat(
		ctx context.Context,
		name string,
		description string,
		prompt string,
		out any,
		opts ...GenerateOption,
	) error

	// GenerateCompletionStream streams the assistant reply incrementally.
	// There is no mid-stream retry; see StreamEvent for the termination
	// contract. Chunks carrying no usable text are skipped silently.
	GenerateCompletionStream(ctx context.Context, prompt string, opts ...GenerateOption) (<-chan StreamEvent, error)

	ResetMetrics()
	GetMetrics() ModelMetrics
}

// EmbeddingClient defines embedding generation against a provider.
type EmbeddingClient interface {
	// GenerateEmbedding returns the embedding vector for a single input.
	GenerateEmbedding(ctx context.Context, input string) ([]float32, error)

	// GenerateEmbeddings embeds inputs one at a time with a mandatory
	// pacing delay between provider calls. It is deliberately not
	// parallel; embedding endpoints are the tightest rate limit in the
	// ingestion path.
	GenerateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error)
}

// Client combines the model and embedding capabilities of one provider.
type Client interface {
	ModelClient
	EmbeddingClient
}
