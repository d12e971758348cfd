// ABOUTME: NDJSON frame sink writing relay frames to an HTTP response.
// ABOUTME: Each frame is one JSON line, flushed immediately for live streaming.

package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/2389/quorum-gateway/internal/orchestrator"
)

// ndjsonWriter writes newline-delimited JSON frames to an HTTP response,
// flushing after every frame so the client sees chunks as they arrive.
// It is owned by exactly one relay per request.
type ndjsonWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	closed  bool
}

func newNDJSONWriter(w http.ResponseWriter, flusher http.Flusher) *ndjsonWriter {
	return &ndjsonWriter{w: w, flusher: flusher}
}

func (n *ndjsonWriter) WriteFrame(frame orchestrator.Frame) error {
	if n.closed {
		return fmt.Errorf("write after close")
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshaling frame: %w", err)
	}
	if _, err := n.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	n.flusher.Flush()
	return nil
}

func (n *ndjsonWriter) Close() error {
	n.closed = true
	return nil
}
