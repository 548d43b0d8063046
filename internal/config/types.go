package config

import (
	"time"

	"github.com/mattjoyce/ipcee/internal/emitter"
	"github.com/mattjoyce/ipcee/internal/protocol"
)

// Config is the complete ipcee configuration.
type Config struct {
	Service ServiceConfig   `yaml:"service" toml:"service"`
	Bus     emitter.Options `yaml:"bus" toml:"bus"`
	Stream  StreamConfig    `yaml:"stream" toml:"stream"`
	Admin   AdminConfig     `yaml:"admin" toml:"admin"`

	// Path and Fingerprint describe the file the config was loaded from.
	Path        string `yaml:"-" toml:"-"`
	Fingerprint string `yaml:"-" toml:"-"`
}

// ServiceConfig defines process-wide settings.
type ServiceConfig struct {
	Name     string `yaml:"name" toml:"name"`
	LogLevel string `yaml:"log_level" toml:"log_level"`
}

// StreamConfig defines the stdin/stdout channel settings.
type StreamConfig struct {
	MaxMessageBytes int `yaml:"max_message_bytes" toml:"max_message_bytes"`
	// AckTimeout bounds how long a forwarded panic waits for the write.
	AckTimeout time.Duration `yaml:"ack_timeout" toml:"ack_timeout"`
}

// Limits returns the codec limits for the stream channel.
func (s StreamConfig) Limits() protocol.Limits {
	return protocol.Limits{MaxMessageBytes: s.MaxMessageBytes}
}

// AdminConfig defines the HTTP admin surface.
type AdminConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Listen  string `yaml:"listen" toml:"listen"`
	// APIKey, when set, is required as a bearer token on every route but /healthz.
	APIKey      string `yaml:"api_key" toml:"api_key"`
	EventBuffer int    `yaml:"event_buffer" toml:"event_buffer"`
}

// Defaults returns a config with every default applied.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:     "ipcee",
			LogLevel: "info",
		},
		Bus: emitter.DefaultOptions(),
		Stream: StreamConfig{
			MaxMessageBytes: protocol.DefaultLimits().MaxMessageBytes,
			AckTimeout:      2 * time.Second,
		},
		Admin: AdminConfig{
			Listen:      "127.0.0.1:8089",
			EventBuffer: 100,
		},
	}
}
