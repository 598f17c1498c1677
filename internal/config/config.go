// ABOUTME: Configuration loading and parsing for courseline-gateway
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete courseline-gateway configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Line     LineConfig     `yaml:"line"`
	Database DatabaseConfig `yaml:"database"`
	Moodle   MoodleConfig   `yaml:"moodle"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Batch    BatchConfig    `yaml:"batch"`
	Course   CourseConfig   `yaml:"course"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// LineConfig holds LINE Messaging API credentials and addressing
type LineConfig struct {
	ChannelSecret string `yaml:"channel_secret"`
	ChannelToken  string `yaml:"channel_token"`
	APIBase       string `yaml:"api_base"`
	TAUserID      string `yaml:"ta_user_id"`
	RichMenuID    string `yaml:"rich_menu_id"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// MoodleConfig holds the Moodle database connection settings
type MoodleConfig struct {
	Host     string          `yaml:"host"`
	Port     int             `yaml:"port"`
	Database string          `yaml:"database"`
	User     string          `yaml:"user"`
	Password string          `yaml:"password"`
	SSH      MoodleSSHConfig `yaml:"ssh"`

	IdleTimeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	IdleTimeoutRaw string `yaml:"idle_timeout"`
}

// MoodleSSHConfig holds the SSH tunnel settings for the Moodle database
type MoodleSSHConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// DispatchConfig holds worker pool sizing and shutdown timing
type DispatchConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`

	ShutdownGrace time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	ShutdownGraceRaw string `yaml:"shutdown_grace"`
}

// BatchConfig holds the operator batch API configuration
type BatchConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// CourseConfig holds course-specific conversation settings
type CourseConfig struct {
	TriggerPhrase string `yaml:"trigger_phrase"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Line.ChannelSecret == "" {
		return fmt.Errorf("line.channel_secret is required")
	}
	if c.Line.ChannelToken == "" {
		return fmt.Errorf("line.channel_token is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Moodle.SSH.Enabled {
		if c.Moodle.SSH.Host == "" {
			return fmt.Errorf("moodle.ssh.host is required when the tunnel is enabled")
		}
		if c.Moodle.SSH.User == "" {
			return fmt.Errorf("moodle.ssh.user is required when the tunnel is enabled")
		}
	}

	if c.Dispatch.Workers < 0 {
		return fmt.Errorf("dispatch.workers must not be negative")
	}
	if c.Dispatch.QueueSize < 0 {
		return fmt.Errorf("dispatch.queue_size must not be negative")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Moodle.IdleTimeoutRaw != "" {
		cfg.Moodle.IdleTimeout, err = time.ParseDuration(cfg.Moodle.IdleTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing moodle.idle_timeout %q: %w", cfg.Moodle.IdleTimeoutRaw, err)
		}
	}

	if cfg.Dispatch.ShutdownGraceRaw != "" {
		cfg.Dispatch.ShutdownGrace, err = time.ParseDuration(cfg.Dispatch.ShutdownGraceRaw)
		if err != nil {
			return fmt.Errorf("parsing dispatch.shutdown_grace %q: %w", cfg.Dispatch.ShutdownGraceRaw, err)
		}
	}

	return nil
}
