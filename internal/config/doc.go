// Package config handles configuration loading for quorum-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	providers:
//	  openai:
//	    api_key: "${OPENAI_API_KEY}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	searxng:
//	  timeout: "5s"
//	agents:
//	  stream_timeout: "2m"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
// Database:
//
//	database:
//	  path: "/var/lib/quorum/gateway.db"
//
// Search backend:
//
//	searxng:
//	  url: "http://localhost:8888"
//	  timeout: "5s"
//
// Model providers:
//
//	providers:
//	  openai:
//	    api_key: "${OPENAI_API_KEY}"
//	    chat_models: ["gpt-4o-mini"]
//	    embedding_models: ["text-embedding-3-small"]
//	  anthropic:
//	    api_key: "${ANTHROPIC_API_KEY}"
//	    chat_models: ["claude-sonnet-4-5"]
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
// Load configuration from a path:
//
//	cfg, err := config.Load("/etc/quorum/gateway.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
