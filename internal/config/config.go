package config

import (
	"fmt"
	"time"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Source.Format == "" {
		cfg.Source.Format = "leveldb"
	}
	if cfg.Labels.All == "" {
		cfg.Labels.All = "All"
	}
	if cfg.Labels.Players == "" {
		cfg.Labels.Players = "All Players"
	}
	if cfg.Labels.Gamemaster == "" {
		cfg.Labels.Gamemaster = "Gamemaster"
	}
	if cfg.Exclude.Start == "" {
		cfg.Exclude.Start = "# April Fools Marker"
	}
	if cfg.Exclude.End == "" {
		cfg.Exclude.End = "#End April Fools"
	}
	if cfg.Session.Gap == 0 {
		cfg.Session.Gap = 24 * time.Hour
	}
	if cfg.Session.MinMessages == 0 {
		cfg.Session.MinMessages = 11
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "public"
	}
	if len(cfg.Output.Formats) == 0 {
		cfg.Output.Formats = []string{"json", "json-v2"}
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8347
	}
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = "loopback"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
}

// ListenAddr returns the host:port the report server binds to.
func (s ServerConfig) ListenAddr() string {
	host := "127.0.0.1"
	switch s.Bind {
	case "lan":
		host = "0.0.0.0"
	case "custom":
		host = s.CustomBindHost
	}
	return fmt.Sprintf("%s:%d", host, s.Port)
}

// Location resolves the transcript timezone, UTC when unset.
func (s SourceConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, &ConfigError{Message: fmt.Sprintf("source.timezone: %v", err)}
	}
	return loc, nil
}
