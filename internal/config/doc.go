// Package config handles configuration loading for the sam chat client.
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
//	provider:
//	  client_id: "${SAM_CLIENT_ID}"
//
// # Configuration Sections
//
// Identity provider:
//
//	provider:
//	  domain: "https://auth.example.com"
//	  client_id: "${SAM_CLIENT_ID}"
//	  redirect_uri: "http://localhost:8910/callback"
//	  scope: "openid email profile"
//	  token_timeout: "15s"
//
// Assistant endpoint:
//
//	assistant:
//	  base_url: "https://api.example.com/prod"
//	  timeout: "60s"
//
// Local storage:
//
//	storage:
//	  token_path: "~/.local/share/sam/tokens.db"
//	  archive_path: "~/.local/share/sam/archive.db"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
