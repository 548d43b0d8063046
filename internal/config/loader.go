package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Load reads, interpolates, defaults and validates a config file. The format
// is chosen by extension: .toml for TOML, anything else is YAML.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s: %w", absPath, err)
	}

	cfg, err := Parse(data, formatOf(absPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", absPath, err)
	}
	cfg.Path = absPath
	cfg.Fingerprint = Fingerprint(data)
	return cfg, nil
}

// Parse decodes data on top of Defaults and validates the result.
// format is "yaml" or "toml".
func Parse(data []byte, format string) (*Config, error) {
	cfg := Defaults()
	interpolated := interpolateEnv(string(data))

	switch format {
	case "toml":
		if _, err := toml.Decode(interpolated, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal([]byte(interpolated), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}

	applyConfigDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "yaml"
}

// applyConfigDefaults restores defaults for fields a file set to their zero value.
func applyConfigDefaults(cfg *Config) {
	defaults := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = defaults.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}
	if cfg.Bus.Delimiter == "" {
		cfg.Bus.Delimiter = defaults.Bus.Delimiter
	}
	if cfg.Stream.MaxMessageBytes == 0 {
		cfg.Stream.MaxMessageBytes = defaults.Stream.MaxMessageBytes
	}
	if cfg.Stream.AckTimeout == 0 {
		cfg.Stream.AckTimeout = defaults.Stream.AckTimeout
	}
	if cfg.Admin.Listen == "" {
		cfg.Admin.Listen = defaults.Admin.Listen
	}
	if cfg.Admin.EventBuffer == 0 {
		cfg.Admin.EventBuffer = defaults.Admin.EventBuffer
	}
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is.
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

func validate(cfg *Config) error {
	if !validLogLevels[cfg.Service.LogLevel] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}

	if cfg.Bus.MaxListeners < 0 {
		return fmt.Errorf("bus.max_listeners must not be negative")
	}
	if cfg.Bus.Wildcard && strings.ContainsAny(cfg.Bus.Delimiter, "*") {
		return fmt.Errorf("bus.delimiter %q must not contain '*' when wildcards are enabled", cfg.Bus.Delimiter)
	}

	if cfg.Stream.MaxMessageBytes < 0 {
		return fmt.Errorf("stream.max_message_bytes must not be negative")
	}
	if cfg.Stream.AckTimeout < 0 {
		return fmt.Errorf("stream.ack_timeout must not be negative")
	}

	if cfg.Admin.Enabled {
		if cfg.Admin.Listen == "" {
			return fmt.Errorf("admin.listen is required when admin is enabled")
		}
		if cfg.Admin.EventBuffer < 0 {
			return fmt.Errorf("admin.event_buffer must not be negative")
		}
		if matches := envVarPattern.FindStringSubmatch(cfg.Admin.APIKey); len(matches) > 1 {
			return fmt.Errorf("admin.api_key: environment variable ${%s} is not set", matches[1])
		}
	}
	return nil
}
