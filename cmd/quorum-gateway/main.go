// ABOUTME: Entry point for the quorum-gateway search orchestration server
// ABOUTME: Routes chat requests across focus-mode agents and streams answers

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/quorum-gateway/internal/config"
	"github.com/2389/quorum-gateway/internal/gateway"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  __ _ _   _  ___  _ __ _   _ _ __ ___        __ _  __ _| |_ _____      ____ _ _   _
 / _' | | | |/ _ \| '__| | | | '_ ' _ \ _____/ _' |/ _' | __/ _ \ \ /\ / / _' | | | |
| (_| | |_| | (_) | |  | |_| | | | | | |_____| (_| | (_| | ||  __/\ V  V / (_| | |_| |
 \__, |\__,_|\___/|_|   \__,_|_| |_| |_|      \__, |\__,_|\__\___| \_/\_/ \__,_|\__, |
    |_|                                       |___/                             |___/
`

// getConfigPath returns the path to the gateway config file.
// Priority: QUORUM_CONFIG env var > XDG_CONFIG_HOME/quorum/gateway.yaml > ~/.config/quorum/gateway.yaml
func getConfigPath() string {
	if envPath := os.Getenv("QUORUM_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "quorum", "gateway.yaml")
}

// getDataPath returns the path to the quorum data directory.
// Priority: XDG_DATA_HOME/quorum > ~/.local/share/quorum
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "quorum")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: quorum-gateway <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve   Start the gateway server")
		fmt.Println("  init    Create a new config file interactively")
		fmt.Println("  health  Check gateway health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)

	// Startup info
	green := color.New(color.FgGreen)

	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("SearxNG:  %s\n", cfg.SearxNG.URL)

	fmt.Println()

	logger.Info("starting quorum-gateway",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"searxng_url", cfg.SearxNG.URL,
	)

	// Create and run gateway
	gw, err := gateway.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	return gw.Run(ctx)
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Make HTTP request to health endpoint with context
	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d (%s)", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	fmt.Println("healthy")
	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("quorum-gateway configuration setup")
	fmt.Println("==================================")
	fmt.Println()

	// Default paths
	defaultConfigPath := getConfigPath()
	defaultDataPath := getDataPath()
	defaultDbPath := filepath.Join(defaultDataPath, "gateway.db")

	// Output filename
	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	// Check if file exists
	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	// Server configuration
	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", "localhost:8080")

	// Database
	fmt.Println("\n--- Database Configuration ---")
	dbPath := prompt(reader, "SQLite database path", defaultDbPath)

	// Search backend
	fmt.Println("\n--- Search Configuration ---")
	searxURL := prompt(reader, "SearxNG URL", "http://localhost:8888")

	// Providers
	fmt.Println("\n--- Model Providers ---")
	fmt.Println("API keys can reference environment variables, e.g. ${OPENAI_API_KEY}")
	openaiKey := prompt(reader, "OpenAI API key", "${OPENAI_API_KEY}")
	openaiChat := prompt(reader, "OpenAI chat models (comma-separated)", "gpt-4o-mini")
	openaiEmbed := prompt(reader, "OpenAI embedding models (comma-separated)", "text-embedding-3-small")
	anthropicKey := prompt(reader, "Anthropic API key (empty to skip)", "")
	var anthropicChat string
	if anthropicKey != "" {
		anthropicChat = prompt(reader, "Anthropic chat models (comma-separated)", "claude-sonnet-4-5")
	}

	// Logging
	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	// Generate config
	var cfg strings.Builder
	cfg.WriteString("# quorum-gateway configuration\n")
	cfg.WriteString("# Generated by quorum-gateway init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: \"%s\"\n", httpAddr))
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: \"%s\"\n", dbPath))
	cfg.WriteString("\n")

	cfg.WriteString("searxng:\n")
	cfg.WriteString(fmt.Sprintf("  url: \"%s\"\n", searxURL))
	cfg.WriteString("  timeout: \"5s\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("providers:\n")
	cfg.WriteString("  openai:\n")
	cfg.WriteString(fmt.Sprintf("    api_key: \"%s\"\n", openaiKey))
	writeModelList(&cfg, "    chat_models", openaiChat)
	writeModelList(&cfg, "    embedding_models", openaiEmbed)
	if anthropicKey != "" {
		cfg.WriteString("  anthropic:\n")
		cfg.WriteString(fmt.Sprintf("    api_key: \"%s\"\n", anthropicKey))
		writeModelList(&cfg, "    chat_models", anthropicChat)
	}
	cfg.WriteString("\n")

	cfg.WriteString("agents:\n")
	cfg.WriteString("  stream_timeout: \"2m\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: \"%s\"\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: \"%s\"\n", logFormat))

	// Ensure parent directory exists
	if dir := filepath.Dir(outputFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Println("Start the server with: quorum-gateway serve")
	return nil
}

// writeModelList writes a comma-separated model list as a YAML sequence.
func writeModelList(cfg *strings.Builder, key, models string) {
	cfg.WriteString(key + ":\n")
	for _, m := range strings.Split(models, ",") {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		cfg.WriteString(fmt.Sprintf("      - \"%s\"\n", m))
	}
}

func prompt(reader *bufio.Reader, question, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", question, defaultValue)
	} else {
		fmt.Printf("%s: ", question)
	}

	answer, err := reader.ReadString('\n')
	if err != nil {
		return defaultValue
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return defaultValue
	}
	return answer
}
