package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/topiclens/backend/internal/util"
	"github.com/topiclens/backend/pkg/ai"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
)

// numCtxFor estimates the context window needed for a prompt so long
// documents are not silently truncated by the model's default window.
func numCtxFor(prompt string) (int, error) {
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return 0, err
	}
	return 200 + len(enc.Encode(prompt, nil, nil)), nil
}

func buildMessages(prompt string, systemPrompts []string) []api.Message {
	msgs := make([]api.Message, 0, len(systemPrompts)+1)
	for _, sys := range systemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sys})
	}
	msgs = append(msgs, api.Message{Role: "user", Content: prompt})
	return msgs
}

// GenerateCompletion sends a single-turn prompt and returns assistant text.
func (c *GraphOllamaClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0.3,
	}
	for _, o := range opts {
		o(&options)
	}

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: buildMessages(prompt, options.SystemPrompts),
		Stream:   &stream,
		Options:  map[string]any{"temperature": options.Temperature},
	}

	tokens, err := numCtxFor(prompt)
	if err != nil {
		return "", err
	}
	if tokens > 4096 {
		req.Options["num_ctx"] = tokens
	}

	final, err := util.RetryBackoff(ctx, c.backoff, isTransient,
		func(ctx context.Context) (*api.ChatResponse, error) {
			var final api.ChatResponse
			if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
				final.Message.Content += cr.Message.Content
				if cr.Done {
					final.Done = true
					final.Metrics = cr.Metrics
				}
				return nil
			}); err != nil {
				return nil, err
			}
			return &final, nil
		})
	if err != nil {
		return "", err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   final.Metrics.TotalDuration.Milliseconds(),
	})

	return final.Message.Content, nil
}

// GenerateCompletionWithFormat enforces a JSON schema and unmarshals the
// response into out.
func (c *GraphOllamaClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	if out == nil {
		return errors.New("out must be a non-nil pointer")
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("out must be a non-nil pointer")
	}

	schemaObj := ai.GenerateSchema(out)
	formatBytes, err := json.Marshal(schemaObj)
	if err != nil {
		return err
	}
	var format json.RawMessage = formatBytes

	options := ai.GenerateOptions{
		Model:       c.extractionModel,
		Temperature: 0.1,
	}
	for _, o := range opts {
		o(&options)
	}

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: buildMessages(prompt, options.SystemPrompts),
		Stream:   &stream,
		Format:   format,
		Options:  map[string]any{"temperature": options.Temperature},
	}

	tokens, err := numCtxFor(prompt)
	if err != nil {
		return err
	}
	if tokens > 4096 {
		req.Options["num_ctx"] = tokens
	}

	final, err := util.RetryBackoff(ctx, c.backoff, isTransient,
		func(ctx context.Context) (*api.ChatResponse, error) {
			var final api.ChatResponse
			if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
				final.Message.Content += cr.Message.Content
				if cr.Done {
					final.Done = true
					final.Metrics = cr.Metrics
				}
				return nil
			}); err != nil {
				return nil, err
			}
			return &final, nil
		})
	if err != nil {
		return err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   final.Metrics.TotalDuration.Milliseconds(),
	})

	if err := ai.UnmarshalFlexible(final.Message.Content, out); err != nil {
		return fmt.Errorf("failed to parse structured output: %w", err)
	}
	return nil
}

// GenerateCompletionStream streams the assistant reply incrementally.
// A trailing error event marks early termination; deltas already sent
// stand.
func (c *GraphOllamaClient) GenerateCompletionStream(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (<-chan ai.StreamEvent, error) {
	options := ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0.2,
	}
	for _, o := range opts {
		o(&options)
	}

	stream := true
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: buildMessages(prompt, options.SystemPrompts),
		Stream:   &stream,
		Options:  map[string]any{"temperature": options.Temperature},
	}

	tokens, err := numCtxFor(prompt)
	if err != nil {
		return nil, err
	}
	if tokens > 4096 {
		req.Options["num_ctx"] = tokens
	}

	out := make(chan ai.StreamEvent, 16)

	go func() {
		defer close(out)

		var final api.Metrics
		err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
			if s := cr.Message.Content; s != "" {
				select {
				case out <- ai.StreamEvent{Type: "content", Content: s}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if cr.Done {
				final = cr.Metrics
			}
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			select {
			case out <- ai.StreamEvent{Type: "error", Err: err.Error()}:
			case <-ctx.Done():
			}
		}

		c.modifyMetrics(ai.ModelMetrics{
			InputTokens:  final.PromptEvalCount,
			OutputTokens: final.EvalCount,
			TotalTokens:  final.PromptEvalCount + final.EvalCount,
			DurationMs:   final.TotalDuration.Milliseconds(),
		})
	}()

	return out, nil
}
