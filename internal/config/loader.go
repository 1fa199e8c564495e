package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandPathFields lets filesystem paths reference ${ENV_VAR}.
func expandPathFields(cfg *Config) {
	cfg.Source.Path = expandEnvVars(cfg.Source.Path)
	cfg.Output.Dir = expandEnvVars(cfg.Output.Dir)
	cfg.Store.Path = expandEnvVars(cfg.Store.Path)
}

// envOverrides are the D20STATS_* variables that take precedence over the file.
type envOverrides struct {
	LogLevel     string        `env:"D20STATS_LOG_LEVEL"`
	LogStyle     string        `env:"D20STATS_LOG_STYLE"`
	World        string        `env:"D20STATS_WORLD"`
	Players      []string      `env:"D20STATS_PLAYERS" envSeparator:","`
	SourceFormat string        `env:"D20STATS_SOURCE_FORMAT"`
	SourcePath   string        `env:"D20STATS_SOURCE_PATH"`
	OutputDir    string        `env:"D20STATS_OUTPUT_DIR"`
	SessionGap   time.Duration `env:"D20STATS_SESSION_GAP"`
	ServerPort   int           `env:"D20STATS_SERVER_PORT"`
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only. A .env file next
// to the config file is loaded first without replacing variables already set.
func Load(path string) (Config, error) {
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))

	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return Defaults(), err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Defaults(), &ConfigError{Message: "failed to parse config: " + err.Error()}
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Defaults(), err
	}
	applyDefaults(&cfg)
	expandPathFields(&cfg)
	return cfg, nil
}

// applyEnvOverrides reads D20STATS_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return &ConfigError{Message: "environment: " + err.Error()}
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = strings.ToLower(o.LogLevel)
	}
	if o.LogStyle != "" {
		cfg.Logging.ConsoleStyle = o.LogStyle
	}
	if o.World != "" {
		cfg.World = o.World
	}
	if len(o.Players) > 0 {
		cfg.Players = o.Players
	}
	if o.SourceFormat != "" {
		cfg.Source.Format = o.SourceFormat
	}
	if o.SourcePath != "" {
		cfg.Source.Path = o.SourcePath
	}
	if o.OutputDir != "" {
		cfg.Output.Dir = o.OutputDir
	}
	if o.SessionGap != 0 {
		cfg.Session.Gap = o.SessionGap
	}
	if o.ServerPort != 0 {
		cfg.Server.Port = o.ServerPort
	}
	return nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
