// ABOUTME: Ordered provider/model registry with first-available fallback resolution.
// ABOUTME: Populated once at startup from config; read-only at request time.

package model

import (
	"errors"
	"fmt"
)

// ErrNoModels indicates the registry has no model of the requested kind.
var ErrNoModels = errors.New("no models available")

// ErrModelNotFound indicates the requested provider/model is not registered.
var ErrModelNotFound = errors.New("model not found")

// Selection names a provider/model pair requested by a caller. Either field
// may be empty, in which case resolution falls back to the first registered
// provider and model.
type Selection struct {
	Provider string `json:"provider"`
	Name     string `json:"name"`
}

type chatEntry struct {
	provider string
	name     string
	model    Model
}

type embedEntry struct {
	provider string
	name     string
	embedder Embedder
}

// Registry holds available chat models and embedders in registration order.
// The first registered entry of each kind is the fallback default.
type Registry struct {
	chat  []chatEntry
	embed []embedEntry
}

// NewRegistry creates an empty model registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterChat adds a chat model under the given provider and name.
func (r *Registry) RegisterChat(provider, name string, m Model) {
	r.chat = append(r.chat, chatEntry{provider: provider, name: name, model: m})
}

// RegisterEmbedder adds an embedder under the given provider and name.
func (r *Registry) RegisterEmbedder(provider, name string, e Embedder) {
	r.embed = append(r.embed, embedEntry{provider: provider, name: name, embedder: e})
}

// ResolveChat returns the chat model for a selection. An empty provider
// selects the first registered provider; an empty name selects that
// provider's first model. Unknown provider/name pairs are an error.
func (r *Registry) ResolveChat(sel Selection) (Model, error) {
	if len(r.chat) == 0 {
		return nil, fmt.Errorf("chat: %w", ErrNoModels)
	}
	if sel.Provider == "" {
		sel.Provider = r.chat[0].provider
	}
	for _, e := range r.chat {
		if e.provider != sel.Provider {
			continue
		}
		if sel.Name == "" || e.name == sel.Name {
			return e.model, nil
		}
	}
	return nil, fmt.Errorf("chat model %s/%s: %w", sel.Provider, sel.Name, ErrModelNotFound)
}

// ResolveEmbedder returns the embedder for a selection, with the same
// fallback semantics as ResolveChat.
func (r *Registry) ResolveEmbedder(sel Selection) (Embedder, error) {
	if len(r.embed) == 0 {
		return nil, fmt.Errorf("embedding: %w", ErrNoModels)
	}
	if sel.Provider == "" {
		sel.Provider = r.embed[0].provider
	}
	for _, e := range r.embed {
		if e.provider != sel.Provider {
			continue
		}
		if sel.Name == "" || e.name == sel.Name {
			return e.embedder, nil
		}
	}
	return nil, fmt.Errorf("embedding model %s/%s: %w", sel.Provider, sel.Name, ErrModelNotFound)
}

// ChatModels returns provider/name pairs for all registered chat models.
func (r *Registry) ChatModels() []Info {
	infos := make([]Info, len(r.chat))
	for i, e := range r.chat {
		infos[i] = Info{Provider: e.provider, Name: e.name}
	}
	return infos
}

// EmbeddingModels returns provider/name pairs for all registered embedders.
func (r *Registry) EmbeddingModels() []Info {
	infos := make([]Info, len(r.embed))
	for i, e := range r.embed {
		infos[i] = Info{Provider: e.provider, Name: e.name}
	}
	return infos
}
