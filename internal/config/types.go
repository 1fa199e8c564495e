package config

import "time"

// Config is the root configuration for d20stats.
type Config struct {
	World   string        `yaml:"world,omitempty"`
	Players []string      `yaml:"players,omitempty"`
	Source  SourceConfig  `yaml:"source,omitempty"`
	Labels  LabelsConfig  `yaml:"labels,omitempty"`
	Exclude ExcludeConfig `yaml:"exclude,omitempty"`
	Session SessionConfig `yaml:"session,omitempty"`
	Stats   StatsConfig   `yaml:"stats,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
	Store   StoreConfig   `yaml:"store,omitempty"`
	Server  ServerConfig  `yaml:"server,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// SourceConfig locates the chat export to read.
type SourceConfig struct {
	Format   string `yaml:"format,omitempty"` // "nedb" | "zip" | "leveldb" | "transcript" | "json"
	Path     string `yaml:"path,omitempty"`
	World    string `yaml:"world,omitempty"`    // world folder inside a zip archive
	Timezone string `yaml:"timezone,omitempty"` // IANA zone for transcript timestamps
}

// LabelsConfig names the fixed participant slices.
type LabelsConfig struct {
	All        string `yaml:"all,omitempty"`
	Players    string `yaml:"players,omitempty"`
	Gamemaster string `yaml:"gamemaster,omitempty"`
}

// ExcludeConfig sets the markers of spans left out of statistics.
type ExcludeConfig struct {
	Disabled bool   `yaml:"disabled,omitempty"`
	Start    string `yaml:"start,omitempty"`
	End      string `yaml:"end,omitempty"`
}

// SessionConfig controls session segmentation.
type SessionConfig struct {
	Gap         time.Duration `yaml:"gap,omitempty"`
	MinMessages int           `yaml:"minMessages,omitempty"`
}

// StatsConfig tunes report computation.
type StatsConfig struct {
	Concurrency int `yaml:"concurrency,omitempty"` // 0 means one worker per CPU
}

// OutputConfig controls where and how reports are written.
type OutputConfig struct {
	Dir     string   `yaml:"dir,omitempty"`
	Formats []string `yaml:"formats,omitempty"` // "json" | "json-v2" | "xlsx" | "table" | "sqlite"
}

// StoreConfig locates the run history database.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"` // defaults to <home>/data/history.db
}

// ServerConfig controls the report viewer HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port,omitempty"`
	Bind           string   `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string   `yaml:"customBindHost,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
	Watch          bool     `yaml:"watch,omitempty"` // restart when the binary changes
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}
