// ABOUTME: OpenAI chat and embedding providers using the official openai-go SDK.
// ABOUTME: Also serves OpenAI-compatible endpoints via a custom base URL.

package model

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIModel adapts the OpenAI Chat Completions API to the Model interface.
type OpenAIModel struct {
	client   *openai.Client
	provider string
	name     string
}

// NewOpenAIModel creates a chat model for the given API key and model name.
// A non-empty baseURL points the client at an OpenAI-compatible endpoint, in
// which case provider distinguishes it from the hosted service.
func NewOpenAIModel(provider, name, apiKey, baseURL string) *OpenAIModel {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIModel{client: &client, provider: provider, name: name}
}

// Info returns the provider and model name.
func (m *OpenAIModel) Info() Info {
	return Info{Provider: m.provider, Name: m.name}
}

// Generate streams a chat completion, emitting one Delta per content chunk.
func (m *OpenAIModel) Generate(ctx context.Context, req Request) (<-chan Delta, <-chan error) {
	out := make(chan Delta, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := openai.ChatCompletionNewParams{
			Model:       m.name,
			Messages:    buildOpenAIMessages(req.Messages),
			Temperature: openai.Float(req.Temperature),
		}

		stream := m.client.Chat.Completions.NewStreaming(ctx, params)
		for stream.Next() {
			chunk := stream.Current()
			for _, choice := range chunk.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				select {
				case out <- Delta{Text: choice.Delta.Content}:
				case <-ctx.Done():
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			errCh <- fmt.Errorf("openai streaming: %w", err)
		}
	}()

	return out, errCh
}

func buildOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			params = append(params, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			params = append(params, openai.AssistantMessage(msg.Content))
		default:
			params = append(params, openai.UserMessage(msg.Content))
		}
	}
	return params
}

// OpenAIEmbedder adapts the OpenAI Embeddings API to the Embedder interface.
type OpenAIEmbedder struct {
	client   *openai.Client
	provider string
	name     string
}

// NewOpenAIEmbedder creates an embedder for the given API key and model name.
func NewOpenAIEmbedder(provider, name, apiKey, baseURL string) *OpenAIEmbedder {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIEmbedder{client: &client, provider: provider, name: name}
}

// Info returns the provider and model name.
func (e *OpenAIEmbedder) Info() Info {
	return Info{Provider: e.provider, Name: e.name}
}

// Embed returns one vector per input text, in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: e.name,
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}
	vectors := make([][]float64, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
