// ABOUTME: StreamRelay forwards one envelope stream to the client as framed messages.
// ABOUTME: Accumulates the answer and persists the assistant turn exactly once on End.

package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/2389/quorum-gateway/internal/agent"
	"github.com/2389/quorum-gateway/internal/store"
)

// Frame types on the client-facing channel.
const (
	FrameMessage    = "message"
	FrameSources    = "sources"
	FrameMessageEnd = "messageEnd"
	FrameError      = "error"
)

// Frame is one client-facing streaming unit.
type Frame struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	MessageID string `json:"messageId,omitempty"`
}

// FrameSink receives frames for one request. It is owned by exactly one
// relay and never written concurrently. Close is called exactly once, after
// the terminal frame.
type FrameSink interface {
	WriteFrame(frame Frame) error
	Close() error
}

// TurnWriter is the slice of the store the relay needs.
type TurnWriter interface {
	InsertTurn(ctx context.Context, turn *store.Turn) error
}

// Relay consumes one envelope stream, forwards it to a sink, and persists
// the assistant turn when the stream ends successfully.
type Relay struct {
	sink   FrameSink
	turns  TurnWriter // nil disables persistence
	logger *slog.Logger
}

// NewRelay creates a relay writing to sink. A nil turns disables assistant
// turn persistence (used by the buffered query path).
func NewRelay(sink FrameSink, turns TurnWriter, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		sink:   sink,
		turns:  turns,
		logger: logger.With("component", "relay"),
	}
}

// Run forwards the stream until its terminal envelope. On End the assistant
// turn is persisted with the accumulated text; on Error nothing is persisted
// and any partial text is discarded. The sink is closed exactly once in
// either case.
func (r *Relay) Run(ctx context.Context, stream <-chan agent.Envelope, assistantID, chatID string) error {
	var answer strings.Builder
	var sources []agent.Source
	sentSources := false
	defer r.closeSink()

	for {
		select {
		case env, ok := <-stream:
			if !ok {
				// Upstream guarantees a terminal envelope; a bare close means
				// the producer was cut off.
				r.logger.Warn("stream closed without terminal envelope",
					"chat_id", chatID, "message_id", assistantID)
				return fmt.Errorf("stream ended without terminal envelope")
			}

			switch env.Type {
			case agent.EnvelopeResponse:
				if err := r.sink.WriteFrame(Frame{Type: FrameMessage, Data: env.Chunk, MessageID: assistantID}); err != nil {
					return fmt.Errorf("writing message frame: %w", err)
				}
				answer.WriteString(env.Chunk)

			case agent.EnvelopeSources:
				if sentSources {
					continue
				}
				sentSources = true
				if err := r.sink.WriteFrame(Frame{Type: FrameSources, Data: env.Sources, MessageID: assistantID}); err != nil {
					return fmt.Errorf("writing sources frame: %w", err)
				}
				sources = env.Sources

			case agent.EnvelopeEnd:
				if err := r.sink.WriteFrame(Frame{Type: FrameMessageEnd, MessageID: assistantID}); err != nil {
					return fmt.Errorf("writing end frame: %w", err)
				}
				r.persistAssistantTurn(assistantID, chatID, answer.String(), sources)
				return nil

			case agent.EnvelopeError:
				// Deliberate: no persistence on error, partial text is discarded.
				if err := r.sink.WriteFrame(Frame{Type: FrameError, Data: env.Err}); err != nil {
					return fmt.Errorf("writing error frame: %w", err)
				}
				return nil
			}

		case <-ctx.Done():
			r.logger.Debug("relay cancelled", "chat_id", chatID, "message_id", assistantID)
			return ctx.Err()
		}
	}
}

// persistAssistantTurn writes the assistant turn. Failures are logged only:
// the answer has already been streamed to the client.
func (r *Relay) persistAssistantTurn(assistantID, chatID, content string, sources []agent.Source) {
	if r.turns == nil {
		return
	}

	// Separate timeout context so persistence survives request cancellation.
	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metadata := store.TurnMetadata{CreatedAt: time.Now().UTC()}
	if len(sources) > 0 {
		metadata.Sources = sources
	}
	turn := &store.Turn{
		MessageID: assistantID,
		ChatID:    chatID,
		Role:      store.RoleAssistant,
		Content:   content,
		Metadata:  metadata,
	}
	if err := r.turns.InsertTurn(saveCtx, turn); err != nil {
		r.logger.Error("failed to persist assistant turn",
			"error", err,
			"chat_id", chatID,
			"message_id", assistantID)
		return
	}
	r.logger.Debug("assistant turn persisted",
		"chat_id", chatID,
		"message_id", assistantID,
		"sources", len(sources))
}

func (r *Relay) closeSink() {
	if err := r.sink.Close(); err != nil {
		r.logger.Error("failed to close sink", "error", err)
	}
}

// Collect buffers an entire stream server-side and returns the full answer
// text and final source list. An Error envelope or a stream that never
// terminates cleanly is returned as an error.
func Collect(ctx context.Context, stream <-chan agent.Envelope) (string, []agent.Source, error) {
	var answer strings.Builder
	var sources []agent.Source

	for {
		select {
		case env, ok := <-stream:
			if !ok {
				return "", nil, fmt.Errorf("stream ended without terminal envelope")
			}
			switch env.Type {
			case agent.EnvelopeResponse:
				answer.WriteString(env.Chunk)
			case agent.EnvelopeSources:
				sources = env.Sources
			case agent.EnvelopeEnd:
				return answer.String(), sources, nil
			case agent.EnvelopeError:
				return "", nil, fmt.Errorf("agent error: %s", env.Err)
			}
		case <-ctx.Done():
			return "", nil, ctx.Err()
		}
	}
}
