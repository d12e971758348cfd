// ABOUTME: Mock Model and Embedder implementations for testing.
// ABOUTME: Allow agent and gateway tests to run without provider credentials.

package model

import "context"

// MockModel streams a fixed sequence of chunks, or fails with Err.
type MockModel struct {
	Chunks []string
	Err    error

	// Calls counts Generate invocations.
	Calls int
}

// Info identifies the mock.
func (m *MockModel) Info() Info {
	return Info{Provider: "mock", Name: "mock-chat"}
}

// Generate replays the configured chunks.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Delta, <-chan error) {
	m.Calls++
	out := make(chan Delta, len(m.Chunks)+1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)
		if m.Err != nil {
			errCh <- m.Err
			return
		}
		for _, chunk := range m.Chunks {
			select {
			case out <- Delta{Text: chunk}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errCh
}

// MockEmbedder returns fixed vectors keyed by input text, or Fallback for
// texts it does not know.
type MockEmbedder struct {
	Vectors  map[string][]float64
	Fallback []float64
	Err      error
}

// Info identifies the mock.
func (e *MockEmbedder) Info() Info {
	return Info{Provider: "mock", Name: "mock-embed"}
}

// Embed returns one vector per input text.
func (e *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		if v, ok := e.Vectors[text]; ok {
			vectors[i] = v
		} else {
			vectors[i] = e.Fallback
		}
	}
	return vectors, nil
}
