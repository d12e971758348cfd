// ABOUTME: Concurrent fan-out across focus-mode agents with source merge barrier.
// ABOUTME: The primary agent runs once; its captured stream is replayed with merged sources.

package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/quorum-gateway/internal/agent"
)

// defaultAgentTimeout bounds each fan-out task so one stalled agent cannot
// hold the join barrier open forever.
const defaultAgentTimeout = 2 * time.Minute

// Orchestrator fans a request out to every requested focus mode, merges the
// collected sources, and produces the forwarded stream.
type Orchestrator struct {
	registry *agent.Registry
	logger   *slog.Logger
	timeout  time.Duration
}

// New creates an orchestrator over the given agent registry. timeout bounds
// each fan-out task; zero selects the default.
func New(registry *agent.Registry, logger *slog.Logger, timeout time.Duration) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultAgentTimeout
	}
	return &Orchestrator{
		registry: registry,
		logger:   logger.With("component", "orchestrator"),
		timeout:  timeout,
	}
}

// fanoutResult is what one fan-out task produced.
type fanoutResult struct {
	sources   []agent.Source
	envelopes []agent.Envelope // full capture, primary task only
	err       error
}

// Stream runs every registered mode in modeKeys concurrently, waits for all
// of them, and returns the primary agent's stream with its sources payload
// replaced by the deduplicated union of every agent's sources.
//
// Unknown mode keys are skipped silently except for the primary (first) key,
// which must be registered. A non-primary agent failure is logged and
// contributes no sources; it never aborts the request. The primary agent is
// invoked exactly once: its fan-out task captures the full envelope
// sequence, which is replayed after the merge barrier.
func (o *Orchestrator) Stream(ctx context.Context, req agent.Request, modeKeys []string) (<-chan agent.Envelope, error) {
	if len(modeKeys) == 0 {
		return nil, fmt.Errorf("no focus modes requested")
	}
	if _, ok := o.registry.Get(modeKeys[0]); !ok {
		return nil, fmt.Errorf("primary mode %q: %w", modeKeys[0], agent.ErrUnknownMode)
	}

	results := make([]*fanoutResult, len(modeKeys))
	var wg sync.WaitGroup
	for i, key := range modeKeys {
		a, ok := o.registry.Get(key)
		if !ok {
			o.logger.Debug("skipping unregistered mode", "mode", key)
			continue
		}
		result := &fanoutResult{}
		results[i] = result
		wg.Add(1)
		go func(key string, a agent.Agent, capture bool) {
			defer wg.Done()
			o.collect(ctx, a, req, capture, result)
			if result.err != nil {
				o.logger.Warn("fan-out agent failed", "mode", key, "error", result.err)
			}
		}(key, a, i == 0)
	}
	wg.Wait()

	// Join barrier passed: the merge is complete before any envelope is
	// forwarded, so the client never sees a partial union.
	perAgent := make([][]agent.Source, 0, len(results))
	for _, r := range results {
		if r == nil || r.err != nil {
			continue
		}
		perAgent = append(perAgent, r.sources)
	}
	merged := mergeSources(perAgent)

	primary := results[0]
	out := make(chan agent.Envelope, 16)
	go func() {
		defer close(out)

		substitute := primary.err == nil
		sentSources := false
		sentTerminal := false
		for _, env := range primary.envelopes {
			if env.Type == agent.EnvelopeSources {
				if sentSources {
					continue
				}
				sentSources = true
				if substitute {
					env = agent.SourcesEnvelope(merged)
				}
			}
			if env.Terminal() {
				sentTerminal = true
			}
			select {
			case out <- env:
			case <-ctx.Done():
				return
			}
		}

		// Primary rejected before its stream started, or its capture was cut
		// short: the forwarded stream still needs a terminal envelope.
		if !sentTerminal {
			msg := "primary agent produced no terminal event"
			if primary.err != nil {
				msg = primary.err.Error()
			}
			select {
			case out <- agent.ErrorEnvelope(msg):
			case <-ctx.Done():
			}
		}
	}()

	return out, nil
}

// collect invokes one agent, drains its stream, and records sources. When
// capture is set the full envelope sequence is kept for replay. A stream
// that ends with an Error envelope marks the result failed while keeping
// the capture, so the primary's error reaches the client verbatim.
func (o *Orchestrator) collect(ctx context.Context, a agent.Agent, req agent.Request, capture bool, result *fanoutResult) {
	actx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	stream, err := a.Invoke(actx, req)
	if err != nil {
		result.err = err
		return
	}

	for {
		select {
		case env, ok := <-stream:
			if !ok {
				return
			}
			if capture {
				result.envelopes = append(result.envelopes, env)
			}
			switch env.Type {
			case agent.EnvelopeSources:
				result.sources = append(result.sources, env.Sources...)
			case agent.EnvelopeError:
				result.err = fmt.Errorf("agent error: %s", env.Err)
			}
			if env.Terminal() {
				return
			}
		case <-actx.Done():
			// Bounded wait: a timed-out agent is treated as failed and
			// its partial source list is excluded from the merge.
			result.err = actx.Err()
			return
		}
	}
}

// mergeSources concatenates per-agent source lists in agent order and
// deduplicates by URL, keeping the first occurrence.
func mergeSources(perAgent [][]agent.Source) []agent.Source {
	seen := make(map[string]bool)
	var merged []agent.Source
	for _, sources := range perAgent {
		for _, s := range sources {
			if seen[s.URL] {
				continue
			}
			seen[s.URL] = true
			merged = append(merged, s)
		}
	}
	return merged
}
