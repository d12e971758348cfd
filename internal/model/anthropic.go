// ABOUTME: Anthropic chat provider using the official anthropic-sdk-go SDK.
// ABOUTME: Streams Messages API text deltas; Anthropic offers no embeddings endpoint.

package model

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 4096

// AnthropicModel adapts the Anthropic Messages API to the Model interface.
type AnthropicModel struct {
	client *anthropic.Client
	name   string
}

// NewAnthropicModel creates a chat model for the given API key and model name.
func NewAnthropicModel(name, apiKey string) *AnthropicModel {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicModel{client: &client, name: name}
}

// Info returns the provider and model name.
func (m *AnthropicModel) Info() Info {
	return Info{Provider: "anthropic", Name: m.name}
}

// Generate streams a message completion, emitting one Delta per text delta.
func (m *AnthropicModel) Generate(ctx context.Context, req Request) (<-chan Delta, <-chan error) {
	out := make(chan Delta, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := anthropic.MessageNewParams{
			Model:       anthropic.Model(m.name),
			MaxTokens:   anthropicMaxTokens,
			Temperature: anthropic.Float(req.Temperature),
		}

		// The Messages API takes system text as a top-level parameter, not a message.
		for _, msg := range req.Messages {
			switch msg.Role {
			case RoleSystem:
				params.System = append(params.System, anthropic.TextBlockParam{Text: msg.Content})
			case RoleAssistant:
				params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
			default:
				params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			}
		}

		stream := m.client.Messages.NewStreaming(ctx, params)
		for stream.Next() {
			event := stream.Current()
			switch ev := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				if ev.Delta.Text == "" {
					continue
				}
				select {
				case out <- Delta{Text: ev.Delta.Text}:
				case <-ctx.Done():
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			errCh <- fmt.Errorf("anthropic streaming: %w", err)
		}
	}()

	return out, errCh
}
