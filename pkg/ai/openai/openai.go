package openai

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/topiclens/backend/internal/util"
	"github.com/topiclens/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// GraphOpenAIClient implements ai.Client against any OpenAI-compatible
// endpoint. It manages separate clients for embeddings and chat so the
// two can point at different providers.
//
// A GraphOpenAIClient should be created using NewGraphOpenAIClient.
type GraphOpenAIClient struct {
	chatModel       string
	extractionModel string
	embeddingModel  string

	chatURL      string
	chatKey      string
	embeddingURL string
	embeddingKey string

	backoff     util.BackoffPolicy
	embedPacing time.Duration

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewGraphOpenAIClientParams defines the configuration parameters for
// creating a new GraphOpenAIClient.
type NewGraphOpenAIClientParams struct {
	ChatModel       string
	ExtractionModel string
	EmbeddingModel  string

	ChatURL      string
	ChatKey      string
	EmbeddingURL string
	EmbeddingKey string

	// MaxRetries bounds attempts for transient provider failures.
	// Zero means the default policy (5 attempts, 1s base, 60s cap).
	MaxRetries int

	// EmbedPacing is the mandatory delay between consecutive embedding
	// calls in a batch. Zero means 1s.
	EmbedPacing time.Duration
}

// NewGraphOpenAIClient creates a new client configured with the provided
// parameters. The SDK's own retry loop is disabled; retry policy lives
// here so transient-versus-permanent classification is in one place.
func NewGraphOpenAIClient(params NewGraphOpenAIClientParams) *GraphOpenAIClient {
	backoff := util.DefaultBackoff()
	if params.MaxRetries > 0 {
		backoff.MaxAttempts = params.MaxRetries
	}

	pacing := params.EmbedPacing
	if pacing == 0 {
		pacing = time.Second
	}

	return &GraphOpenAIClient{
		chatModel:       params.ChatModel,
		extractionModel: params.ExtractionModel,
		embeddingModel:  params.EmbeddingModel,

		chatURL:      params.ChatURL,
		chatKey:      params.ChatKey,
		embeddingURL: params.EmbeddingURL,
		embeddingKey: params.EmbeddingKey,

		backoff:     backoff,
		embedPacing: pacing,

		ChatClient:      newOpenaiClient(params.ChatURL, params.ChatKey),
		EmbeddingClient: newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey),
	}
}

func newOpenaiClient(baseURL string, apiKey string) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}

// isTransient reports whether a provider error is worth retrying.
// Rate limits and 5xx responses are transient; auth failures, malformed
// requests and unknown models are permanent. Errors without an HTTP
// status (network-level) count as transient.
func isTransient(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	return true
}

func (c *GraphOpenAIClient) modifyMetrics(metrics ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += metrics.InputTokens
	c.metrics.OutputTokens += metrics.OutputTokens
	c.metrics.TotalTokens += metrics.TotalTokens
	c.metrics.DurationMs += metrics.DurationMs
}

// ResetMetrics clears the accumulated usage metrics.
func (c *GraphOpenAIClient) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}

// GetMetrics returns the accumulated usage metrics.
func (c *GraphOpenAIClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}
