// Package orchestrator coordinates multi-agent fan-out and stream relaying.
// It runs all requested focus modes concurrently to collect sources, merges
// them into a deduplicated union behind a join barrier, and relays the
// primary agent's stream to the client while persisting the assistant turn.
package orchestrator
