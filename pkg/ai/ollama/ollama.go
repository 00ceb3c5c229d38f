package ollama

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/topiclens/backend/internal/util"
	"github.com/topiclens/backend/pkg/ai"

	"github.com/ollama/ollama/api"
)

// GraphOllamaClient implements ai.Client using Ollama as the backend,
// for locally-hosted models.
type GraphOllamaClient struct {
	chatModel       string
	extractionModel string
	embeddingModel  string

	backoff     util.BackoffPolicy
	embedPacing time.Duration

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	Client *api.Client
}

// NewGraphOllamaClientParams contains configuration options for creating
// a new GraphOllamaClient.
type NewGraphOllamaClientParams struct {
	ChatModel       string
	ExtractionModel string
	EmbeddingModel  string

	BaseURL string
	ApiKey  string

	MaxRetries  int
	EmbedPacing time.Duration
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewGraphOllamaClient creates a new Ollama-based AI client. It connects
// to the Ollama server at the given BaseURL (or the default if empty).
func NewGraphOllamaClient(params NewGraphOllamaClientParams) (*GraphOllamaClient, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.ApiKey,
			},
			rt: http.DefaultTransport,
		},
	}

	backoff := util.DefaultBackoff()
	if params.MaxRetries > 0 {
		backoff.MaxAttempts = params.MaxRetries
	}

	pacing := params.EmbedPacing
	if pacing == 0 {
		pacing = time.Second
	}

	return &GraphOllamaClient{
		chatModel:       params.ChatModel,
		extractionModel: params.ExtractionModel,
		embeddingModel:  params.EmbeddingModel,

		backoff:     backoff,
		embedPacing: pacing,

		Client: api.NewClient(u, httpClient),
	}, nil
}

// isTransient reports whether an Ollama API error is worth retrying.
// Ollama surfaces HTTP failures as api.StatusError.
func isTransient(err error) bool {
	if serr, ok := err.(api.StatusError); ok {
		switch serr.StatusCode {
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

func (c *GraphOllamaClient) modifyMetrics(metrics ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += metrics.InputTokens
	c.metrics.OutputTokens += metrics.OutputTokens
	c.metrics.TotalTokens += metrics.TotalTokens
	c.metrics.DurationMs += metrics.DurationMs
}

// ResetMetrics clears the accumulated usage metrics.
func (c *GraphOllamaClient) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}

// GetMetrics returns the accumulated usage metrics.
func (c *GraphOllamaClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}
