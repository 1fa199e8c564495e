package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Empty(t, Validate(&cfg))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"bad source format", func(c *Config) { c.Source.Format = "roll20" }, "source.format"},
		{"bad timezone", func(c *Config) { c.Source.Timezone = "Nowhere/Land" }, "source.timezone"},
		{"duplicate label", func(c *Config) { c.Labels.Gamemaster = "All" }, "labels"},
		{"player collides with label", func(c *Config) { c.Players = []string{"Gamemaster"} }, "players"},
		{"duplicate player", func(c *Config) { c.Players = []string{"Thorn", "Thorn"} }, "players"},
		{"empty player", func(c *Config) { c.Players = []string{""} }, "players"},
		{"reserved player", func(c *Config) { c.Players = []string{"Thorn", "field_metadata"} }, "players"},
		{"player named world", func(c *Config) { c.Players = []string{"world"} }, "players"},
		{"reserved label", func(c *Config) { c.Labels.All = "players" }, "labels"},
		{"same markers", func(c *Config) { c.Exclude.End = c.Exclude.Start }, "exclude.end"},
		{"negative gap", func(c *Config) { c.Session.Gap = -1 }, "session.gap"},
		{"negative minimum", func(c *Config) { c.Session.MinMessages = -3 }, "session.minMessages"},
		{"negative concurrency", func(c *Config) { c.Stats.Concurrency = -1 }, "stats.concurrency"},
		{"bad output format", func(c *Config) { c.Output.Formats = []string{"json", "pdf"} }, "output.formats"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad bind", func(c *Config) { c.Server.Bind = "tailnet" }, "server.bind"},
		{"custom bind without host", func(c *Config) { c.Server.Bind = "custom" }, "server.customBindHost"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad console style", func(c *Config) { c.Logging.ConsoleStyle = "compact" }, "logging.consoleStyle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			issues := Validate(&cfg)
			require.Len(t, issues, 1)
			assert.Equal(t, tt.path, issues[0].Path)
		})
	}
}

func TestValidate_MultipleIssues(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Port = -1
	cfg.Logging.Level = "loud"
	assert.Len(t, Validate(&cfg), 2)
}

func TestValidate_ValidPlayers(t *testing.T) {
	cfg := Defaults()
	cfg.Players = []string{"Thorn", "Mira"}
	assert.Empty(t, Validate(&cfg))
}

func TestValidationIssueString(t *testing.T) {
	issue := ValidationIssue{Path: "session.gap", Message: "must be positive"}
	assert.Equal(t, "session.gap: must be positive", issue.String())
}
