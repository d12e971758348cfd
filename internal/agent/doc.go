// Package agent defines the streaming envelope protocol, the Agent contract,
// the mode-keyed registry, and the builtin retrieval-and-generation agents.
package agent
