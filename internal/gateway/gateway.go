// ABOUTME: Gateway wires the store, search client, model registry, and agents
// ABOUTME: into an HTTP server and manages its lifecycle.

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/2389/quorum-gateway/internal/agent"
	"github.com/2389/quorum-gateway/internal/config"
	"github.com/2389/quorum-gateway/internal/history"
	"github.com/2389/quorum-gateway/internal/model"
	"github.com/2389/quorum-gateway/internal/orchestrator"
	"github.com/2389/quorum-gateway/internal/searxng"
	"github.com/2389/quorum-gateway/internal/store"
)

// Gateway coordinates the quorum-gateway server components. It owns the
// sqlite store, the agent and model registries, and the HTTP server exposing
// the chat and search API.
type Gateway struct {
	config     *config.Config
	store      store.Store
	models     *model.Registry
	agents     *agent.Registry
	history    *history.Service
	orch       *orchestrator.Orchestrator
	httpServer *http.Server
	logger     *slog.Logger
}

// New builds a fully wired gateway from configuration. It opens the database
// and constructs the model and agent registries; no network listener is
// started until Run.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	sqlStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	models := buildModelRegistry(cfg)

	searcher := searxng.New(cfg.SearxNG.URL, cfg.SearxNG.Timeout)
	agents := agent.NewBuiltinRegistry(searcher, logger)

	gw := &Gateway{
		config:  cfg,
		store:   sqlStore,
		models:  models,
		agents:  agents,
		history: history.New(sqlStore, logger),
		orch:    orchestrator.New(agents, logger, cfg.Agents.StreamTimeout),
		logger:  logger.With("component", "gateway"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", gw.handleHealth)
	mux.HandleFunc("/api/chat", gw.handleChat)
	mux.HandleFunc("/api/search", gw.handleSearch)
	mux.HandleFunc("/api/chats", gw.handleChats)
	mux.HandleFunc("/api/chats/", gw.handleChatByID)
	mux.HandleFunc("/api/models", gw.handleModels)

	gw.httpServer = &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: mux,
	}

	return gw, nil
}

// buildModelRegistry registers every configured provider model in config
// order. The first registered chat model and embedder become the fallbacks
// for requests that do not name one.
func buildModelRegistry(cfg *config.Config) *model.Registry {
	registry := model.NewRegistry()

	oa := cfg.Providers.OpenAI
	if oa.APIKey != "" {
		for _, name := range oa.ChatModels {
			registry.RegisterChat("openai", name, model.NewOpenAIModel("openai", name, oa.APIKey, oa.BaseURL))
		}
		for _, name := range oa.EmbeddingModels {
			registry.RegisterEmbedder("openai", name, model.NewOpenAIEmbedder("openai", name, oa.APIKey, oa.BaseURL))
		}
	}

	an := cfg.Providers.Anthropic
	if an.APIKey != "" {
		for _, name := range an.ChatModels {
			registry.RegisterChat("anthropic", name, model.NewAnthropicModel(name, an.APIKey))
		}
	}

	return registry
}

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails, then performs a graceful shutdown.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", g.httpServer.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown gracefully stops the HTTP server and closes the store.
func (g *Gateway) Shutdown(ctx context.Context) error {
	var errs []error
	if err := g.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if err := g.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	g.logger.Info("gateway shutdown complete")
	return nil
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
