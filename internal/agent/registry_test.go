package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopAgent struct{ name string }

func (n *nopAgent) Name() string { return n.name }

func (n *nopAgent) Invoke(ctx context.Context, req Request) (<-chan Envelope, error) {
	out := make(chan Envelope, 1)
	out <- EndEnvelope()
	close(out)
	return out, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	reg.Register("alpha", &nopAgent{name: "alpha"})
	reg.Register("beta", &nopAgent{name: "beta"})

	a, ok := reg.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", a.Name())

	_, ok = reg.Get("doesNotExist")
	assert.False(t, ok)
}

func TestRegistry_ModesPreserveOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Register("c", &nopAgent{name: "c"})
	reg.Register("a", &nopAgent{name: "a"})
	reg.Register("b", &nopAgent{name: "b"})

	assert.Equal(t, []string{"c", "a", "b"}, reg.Modes())

	// Re-registering keeps the original position.
	reg.Register("a", &nopAgent{name: "a2"})
	assert.Equal(t, []string{"c", "a", "b"}, reg.Modes())
	a, _ := reg.Get("a")
	assert.Equal(t, "a2", a.Name())
}

func TestNewBuiltinRegistry(t *testing.T) {
	reg := NewBuiltinRegistry(nil, nil)

	modes := reg.Modes()
	require.NotEmpty(t, modes)
	assert.Equal(t, DefaultMode, modes[0])

	for _, key := range []string{"generalAgent", "jiraAgent", "logAnalyzerAgent", "webSearch", "writingAssistant", "wolframAlphaSearch"} {
		_, ok := reg.Get(key)
		assert.True(t, ok, "builtin mode %s missing", key)
	}
}

func TestBuiltinModes_WolframAlphaUsesEngineFilter(t *testing.T) {
	for _, cfg := range BuiltinModes() {
		if cfg.Key != "wolframAlphaSearch" {
			continue
		}
		assert.True(t, cfg.SearchWeb)
		assert.Equal(t, []string{"wolframalpha"}, cfg.Engines)
		assert.False(t, cfg.Rerank)
		return
	}
	t.Fatal("wolframAlphaSearch not registered")
}
