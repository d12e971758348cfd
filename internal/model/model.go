// ABOUTME: Chat model and embedder interfaces with streaming generation.
// ABOUTME: Deltas flow on one channel, errors on a second, both closed on completion.

package model

import "context"

// Message roles for chat requests.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat message in a generation request.
type Message struct {
	Role    string
	Content string
}

// Request is the normalized input for a chat generation.
type Request struct {
	Messages    []Message
	Temperature float64
}

// Delta is one streamed chunk of generated text.
type Delta struct {
	Text string
}

// Info identifies a model implementation.
type Info struct {
	Provider string
	Name     string
}

// Model streams chat completions. The delta channel carries text chunks and
// is closed when generation finishes; a failure is delivered on the error
// channel before both close.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Delta, <-chan error)
	Info() Info
}

// Embedder produces one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	Info() Info
}

// Bindings are the resolved models for one request.
type Bindings struct {
	Chat     Model
	Embedder Embedder
}
