// Package config handles configuration loading for courseline-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and duration parsing.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from COURSELINE_CONFIG environment variable
//  2. ./config.yaml (current directory)
//  3. ~/.config/courseline/gateway.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	line:
//	  channel_secret: "${LINE_CHANNEL_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	moodle:
//	  idle_timeout: "60s"
//	dispatch:
//	  shutdown_grace: "10s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"   # Webhook and batch API
//
// LINE channel:
//
//	line:
//	  channel_secret: "${LINE_CHANNEL_SECRET}"
//	  channel_token: "${LINE_CHANNEL_TOKEN}"
//	  ta_user_id: "U..."          # TA account questions are forwarded to
//	  rich_menu_id: "richmenu-..."
//
// Database:
//
//	database:
//	  path: "/var/lib/courseline/gateway.db"
//
// Moodle roster database (optionally through an SSH tunnel):
//
//	moodle:
//	  host: "127.0.0.1"
//	  port: 5432
//	  database: "moodle"
//	  user: "reader"
//	  password: "${MOODLE_DB_PASSWORD}"
//	  idle_timeout: "60s"
//	  ssh:
//	    enabled: true
//	    host: "moodle.example.edu"
//	    port: 22
//	    user: "tunnel"
//	    password: "${MOODLE_SSH_PASSWORD}"
//
// Event dispatch:
//
//	dispatch:
//	  workers: 4
//	  queue_size: 64
//	  shutdown_grace: "10s"
//
// Operator batch API:
//
//	batch:
//	  jwt_secret: "${COURSELINE_JWT_SECRET}"
//
// Course conversation:
//
//	course:
//	  trigger_phrase: "助教安安，我有問題!"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
