// ABOUTME: Mode-keyed agent registry, populated once at startup.
// ABOUTME: Read-only at request time, so lookups need no locking.

package agent

import "errors"

// ErrUnknownMode indicates a focus mode has no registered agent.
var ErrUnknownMode = errors.New("unknown focus mode")

// Registry maps focus mode keys to agents. It is constructed once at process
// start and passed by reference into the router; it is never mutated after.
type Registry struct {
	agents map[string]Agent
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]Agent)}
}

// Register binds a focus mode key to an agent. Later registrations of the
// same key replace the earlier one without changing its position.
func (r *Registry) Register(key string, a Agent) {
	if _, exists := r.agents[key]; !exists {
		r.order = append(r.order, key)
	}
	r.agents[key] = a
}

// Get returns the agent for a mode key.
func (r *Registry) Get(key string) (Agent, bool) {
	a, ok := r.agents[key]
	return a, ok
}

// Modes returns the registered mode keys in registration order.
func (r *Registry) Modes() []string {
	modes := make([]string, len(r.order))
	copy(modes, r.order)
	return modes
}
