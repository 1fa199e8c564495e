package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/d20stats/internal/config"
	"github.com/soyeahso/d20stats/internal/store"
)

// runFlags override the loaded config for one invocation.
type runFlags struct {
	world     string
	players   []string
	format    string
	path      string
	archive   string
	timezone  string
	noExclude bool
	gap       time.Duration
	minMsgs   int
}

func (f *runFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.world, "world", "w", "", "world name used in output file names")
	fs.StringSliceVarP(&f.players, "player", "p", nil, "player to report on (repeatable)")
	fs.StringVarP(&f.format, "source", "s", "", "source format (nedb, zip, leveldb, transcript, json)")
	fs.StringVar(&f.path, "path", "", "world directory, archive or file to read")
	fs.StringVar(&f.archive, "archive-world", "", "world folder inside a zip archive")
	fs.StringVar(&f.timezone, "tz", "", "timezone of transcript timestamps")
	fs.BoolVar(&f.noExclude, "no-exclude", false, "keep messages inside exclusion markers")
	fs.DurationVar(&f.gap, "gap", 0, "silence that separates two sessions")
	fs.IntVar(&f.minMsgs, "min-messages", 0, "messages a session needs to count as played")
}

func (f *runFlags) apply(c *config.Config) {
	if f.world != "" {
		c.World = f.world
	}
	if len(f.players) > 0 {
		c.Players = f.players
	}
	if f.format != "" {
		c.Source.Format = f.format
	}
	if f.path != "" {
		c.Source.Path = f.path
	}
	if f.archive != "" {
		c.Source.World = f.archive
	}
	if f.timezone != "" {
		c.Source.Timezone = f.timezone
	}
	if f.noExclude {
		c.Exclude.Disabled = true
	}
	if f.gap > 0 {
		c.Session.Gap = f.gap
	}
	if f.minMsgs > 0 {
		c.Session.MinMessages = f.minMsgs
	}
}

// loadedConfig returns the config loaded by the root command with flag overrides applied.
func loadedConfig(f *runFlags) (config.Config, error) {
	if cfgErr != nil {
		return cfg, cfgErr
	}
	c := cfg
	if f != nil {
		f.apply(&c)
	}
	return c, nil
}

// validated fails with every validation issue logged.
func validated(c *config.Config) error {
	issues := config.Validate(c)
	if len(issues) == 0 {
		return nil
	}
	for _, issue := range issues {
		log.Error().Str("path", issue.Path).Msg(issue.Message)
	}
	return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
}

// openHistory opens the run history database.
func openHistory(c *config.Config) (*store.DB, *store.RunStore, error) {
	db, err := store.Open(paths.HistoryPath(c), log)
	if err != nil {
		return nil, nil, err
	}
	return db, store.NewRunStore(db), nil
}
