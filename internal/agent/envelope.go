// ABOUTME: Envelope is the tagged streaming unit produced by agents.
// ABOUTME: A stream carries any number of Response chunks, at most one Sources, then End or Error.

package agent

// Source is a retrieved document citable in a synthesized answer.
// Identity for cross-agent deduplication is the URL.
type Source struct {
	URL      string            `json:"url"`
	Title    string            `json:"title"`
	Content  string            `json:"content,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// EnvelopeType indicates the kind of streaming envelope.
type EnvelopeType int

const (
	EnvelopeResponse EnvelopeType = iota // a chunk of answer text
	EnvelopeSources                      // the cited source list
	EnvelopeEnd                          // successful terminal
	EnvelopeError                        // failure terminal
)

// Envelope is one unit of the agent streaming protocol. Exactly one of
// EnvelopeEnd or EnvelopeError terminates a stream, and nothing follows it.
type Envelope struct {
	Type    EnvelopeType
	Chunk   string   // set for EnvelopeResponse
	Sources []Source // set for EnvelopeSources
	Err     string   // set for EnvelopeError
}

// Terminal reports whether the envelope ends its stream.
func (e Envelope) Terminal() bool {
	return e.Type == EnvelopeEnd || e.Type == EnvelopeError
}

// ResponseEnvelope builds an answer chunk envelope.
func ResponseEnvelope(chunk string) Envelope {
	return Envelope{Type: EnvelopeResponse, Chunk: chunk}
}

// SourcesEnvelope builds a source list envelope.
func SourcesEnvelope(sources []Source) Envelope {
	return Envelope{Type: EnvelopeSources, Sources: sources}
}

// EndEnvelope builds the successful terminal envelope.
func EndEnvelope() Envelope {
	return Envelope{Type: EnvelopeEnd}
}

// ErrorEnvelope builds the failure terminal envelope.
func ErrorEnvelope(msg string) Envelope {
	return Envelope{Type: EnvelopeError, Err: msg}
}
