package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soyeahso/d20stats/internal/config"
	"github.com/soyeahso/d20stats/internal/version"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show d20stats paths and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "d20stats %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Fprintf(out, "Config:  %s\n", paths.Config)
			fmt.Fprintf(out, "Data:    %s\n", paths.Data)
			fmt.Fprintf(out, "History: %s\n", paths.HistoryPath(&cfg))
			fmt.Fprintln(out)

			if cfgErr != nil {
				fmt.Fprintf(out, "Config:  error loading: %v\n", cfgErr)
				return nil
			}
			if _, err := os.Stat(paths.Config); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(out, "Config:  not found (using defaults)")
			}

			world := cfg.World
			if world == "" {
				world = "(not set)"
			}
			fmt.Fprintf(out, "World:   %s\n", world)
			fmt.Fprintf(out, "Players: %s\n", strings.Join(cfg.Players, ", "))
			fmt.Fprintf(out, "Source:  format=%s path=%s\n", cfg.Source.Format, cfg.Source.Path)
			fmt.Fprintf(out, "Session: gap=%s minMessages=%d\n", cfg.Session.Gap, cfg.Session.MinMessages)
			fmt.Fprintf(out, "Output:  dir=%s formats=%s\n", cfg.Output.Dir, strings.Join(cfg.Output.Formats, ","))
			fmt.Fprintf(out, "Server:  %s\n", cfg.Server.ListenAddr())

			if _, err := os.Stat(paths.HistoryPath(&cfg)); err == nil {
				db, runs, err := openHistory(&cfg)
				if err == nil {
					list, err := runs.ListRuns(cmd.Context(), cfg.World, 1)
					if err == nil && len(list) > 0 {
						fmt.Fprintf(out, "Latest:  run %s at %s\n", list[0].ID, list[0].CreatedAt.Local().Format("2006-01-02 15:04"))
					}
					db.Close()
				}
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}
