package config

import (
	"fmt"
	"slices"
)

var (
	// SourceFormats are the accepted source.format values.
	SourceFormats = []string{"nedb", "zip", "leveldb", "transcript", "json"}
	// OutputFormats are the accepted output.formats entries.
	OutputFormats = []string{"json", "json-v2", "xlsx", "table", "sqlite"}
	// ReservedLabels are the top-level keys of the keyed json-v2 report.
	// No slice may use them.
	ReservedLabels = []string{"world", "players", "field_metadata"}
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	// Source validation
	if cfg.Source.Format != "" && !slices.Contains(SourceFormats, cfg.Source.Format) {
		add("source.format", "must be one of %v, got %q", SourceFormats, cfg.Source.Format)
	}
	if _, err := cfg.Source.Location(); err != nil {
		add("source.timezone", "unknown time zone %q", cfg.Source.Timezone)
	}

	// Slice validation
	labels := []string{cfg.Labels.All, cfg.Labels.Players, cfg.Labels.Gamemaster}
	for i, l := range labels {
		if l == "" {
			continue
		}
		if slices.Contains(labels[:i], l) {
			add("labels", "label %q is used twice", l)
		}
		if slices.Contains(ReservedLabels, l) {
			add("labels", "label %q is reserved", l)
		}
	}
	seen := map[string]bool{}
	for _, p := range cfg.Players {
		switch {
		case p == "":
			add("players", "player names must not be empty")
		case p == cfg.Labels.All || p == cfg.Labels.Players || p == cfg.Labels.Gamemaster:
			add("players", "player %q collides with a slice label", p)
		case slices.Contains(ReservedLabels, p):
			add("players", "player %q is a reserved name", p)
		case seen[p]:
			add("players", "player %q is listed twice", p)
		}
		seen[p] = true
	}

	if cfg.Exclude.Start != "" && cfg.Exclude.Start == cfg.Exclude.End {
		add("exclude.end", "must differ from exclude.start")
	}

	// Session validation
	if cfg.Session.Gap < 0 {
		add("session.gap", "must be positive, got %s", cfg.Session.Gap)
	}
	if cfg.Session.MinMessages < 0 {
		add("session.minMessages", "must not be negative, got %d", cfg.Session.MinMessages)
	}
	if cfg.Stats.Concurrency < 0 {
		add("stats.concurrency", "must not be negative, got %d", cfg.Stats.Concurrency)
	}

	// Output validation
	for _, f := range cfg.Output.Formats {
		if !slices.Contains(OutputFormats, f) {
			add("output.formats", "must be one of %v, got %q", OutputFormats, f)
		}
	}

	// Server validation
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		add("server.port", "port must be 0-65535, got %d", cfg.Server.Port)
	}
	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Server.Bind != "" && !slices.Contains(validBinds, cfg.Server.Bind) {
		add("server.bind", "must be one of %v, got %q", validBinds, cfg.Server.Bind)
	}
	if cfg.Server.Bind == "custom" && cfg.Server.CustomBindHost == "" {
		add("server.customBindHost", "required when server.bind is custom")
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		add("logging.level", "must be one of %v, got %q", validLogLevels, cfg.Logging.Level)
	}
	validConsoleStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		add("logging.consoleStyle", "must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle)
	}

	return issues
}
