package openai

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/topiclens/backend/internal/util"
	"github.com/topiclens/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
)

func buildMessages(prompt string, systemPrompts []string) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(systemPrompts)+1)
	for _, message := range systemPrompts {
		msgs = append(msgs, openai.SystemMessage(message))
	}
	msgs = append(msgs, openai.UserMessage(prompt))
	return msgs
}

// GenerateCompletion sends a single-turn prompt and returns assistant text.
// Transient provider errors are retried with exponential backoff;
// permanent errors fail on the first attempt.
func (c *GraphOpenAIClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	if c.ChatClient == nil {
		return "", errors.New("chat client not configured")
	}

	options := ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0.3,
	}
	for _, o := range opts {
		o(&options)
	}

	body := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(options.Model),
		Messages:    buildMessages(prompt, options.SystemPrompts),
		Temperature: openai.Float(options.Temperature),
	}

	response, err := util.RetryBackoff(ctx, c.backoff, isTransient,
		func(ctx context.Context) (*openai.ChatCompletion, error) {
			start := time.Now()
			response, err := c.ChatClient.Chat.Completions.New(ctx, body)
			if err != nil {
				return nil, err
			}

			c.modifyMetrics(ai.ModelMetrics{
				InputTokens:  int(response.Usage.PromptTokens),
				OutputTokens: int(response.Usage.CompletionTokens),
				TotalTokens:  int(response.Usage.TotalTokens),
				DurationMs:   time.Since(start).Milliseconds(),
			})
			return response, nil
		})
	if err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}

	return response.Choices[0].Message.Content, nil
}

// GenerateCompletionWithFormat enforces a JSON schema derived from out
// and unmarshals the response into it. The same retry policy as
// GenerateCompletion applies.
func (c *GraphOpenAIClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	if c.ChatClient == nil {
		return errors.New("chat client not configured")
	}
	if out == nil {
		return errors.New("out must be a non-nil pointer")
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("out must be a non-nil pointer")
	}

	schema := ai.GenerateSchema(out)
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        name,
		Description: openai.String(description),
		Schema:      schema,
		Strict:      openai.Bool(true),
	}

	options := ai.GenerateOptions{
		Model:       c.extractionModel,
		Temperature: 0.1,
	}
	for _, o := range opts {
		o(&options)
	}

	body := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(options.Model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
		Messages:    buildMessages(prompt, options.SystemPrompts),
		Temperature: openai.Float(options.Temperature),
	}

	response, err := util.RetryBackoff(ctx, c.backoff, isTransient,
		func(ctx context.Context) (*openai.ChatCompletion, error) {
			start := time.Now()
			response, err := c.ChatClient.Chat.Completions.New(ctx, body)
			if err != nil {
				return nil, err
			}

			c.modifyMetrics(ai.ModelMetrics{
				InputTokens:  int(response.Usage.PromptTokens),
				OutputTokens: int(response.Usage.CompletionTokens),
				TotalTokens:  int(response.Usage.TotalTokens),
				DurationMs:   time.Since(start).Milliseconds(),
			})
			return response, nil
		})
	if err != nil {
		return err
	}
	if len(response.Choices) == 0 {
		return errors.New("completion returned no choices")
	}

	if err := ai.UnmarshalFlexible(response.Choices[0].Message.Content, out); err != nil {
		return fmt.Errorf("failed to parse structured output: %w", err)
	}
	return nil
}

// GenerateCompletionStream streams the assistant reply incrementally.
// The returned channel closes when the stream ends; a trailing
// StreamEvent with Type "error" marks early termination. Chunks without
// usable text are skipped.
func (c *GraphOpenAIClient) GenerateCompletionStream(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (<-chan ai.StreamEvent, error) {
	if c.ChatClient == nil {
		return nil, errors.New("chat client not configured")
	}

	options := ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0.2,
	}
	for _, o := range opts {
		o(&options)
	}

	body := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(options.Model),
		Messages:    buildMessages(prompt, options.SystemPrompts),
		Temperature: openai.Float(options.Temperature),
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}

	start := time.Now()
	stream := c.ChatClient.Chat.Completions.NewStreaming(ctx, body)
	contentChan := make(chan ai.StreamEvent, 10)

	go func() {
		defer close(contentChan)
		defer stream.Close()

		acc := openai.ChatCompletionAccumulator{}

		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)

			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}

			select {
			case contentChan <- ai.StreamEvent{Type: "content", Content: chunk.Choices[0].Delta.Content}:
			case <-ctx.Done():
				return
			}
		}

		if err := stream.Err(); err != nil {
			select {
			case contentChan <- ai.StreamEvent{Type: "error", Err: err.Error()}:
			case <-ctx.Done():
			}
		}

		c.modifyMetrics(ai.ModelMetrics{
			InputTokens:  int(acc.Usage.PromptTokens),
			OutputTokens: int(acc.Usage.CompletionTokens),
			TotalTokens:  int(acc.Usage.TotalTokens),
			DurationMs:   time.Since(start).Milliseconds(),
		})
	}()

	return contentChan, nil
}
