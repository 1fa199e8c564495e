package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soyeahso/d20stats/internal/emit"
	"github.com/soyeahso/d20stats/internal/hooks"
	"github.com/soyeahso/d20stats/internal/pipeline"
	"github.com/soyeahso/d20stats/internal/source"
	"github.com/soyeahso/d20stats/internal/store"
)

func newReportCmd() *cobra.Command {
	var (
		flags   runFlags
		outDir  string
		outputs []string
		noStore bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compute dice statistics and write the reports",
		Long: "Reads the configured chat export, computes all-time and previous-session statistics\n" +
			"for every player, and writes them in each configured output format.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadedConfig(&flags)
			if err != nil {
				return err
			}
			if outDir != "" {
				c.Output.Dir = outDir
			}
			if len(outputs) > 0 {
				c.Output.Formats = outputs
			}
			if noStore {
				c.Output.Formats = slices.DeleteFunc(slices.Clone(c.Output.Formats), func(f string) bool { return f == "sqlite" })
			}
			if err := validated(&c); err != nil {
				return err
			}
			if c.World == "" {
				return errors.New("no world name: set world in the config or pass --world")
			}
			if c.Source.Path == "" {
				return errors.New("no source path: set source.path in the config or pass --path")
			}

			req, err := pipeline.RequestFromConfig(&c)
			if err != nil {
				return err
			}
			req.Out = cmd.OutOrStdout()

			var runs *store.RunStore
			if slices.Contains(c.Output.Formats, "sqlite") {
				db, rs, err := openHistory(&c)
				if err != nil {
					return err
				}
				defer db.Close()
				runs = rs
			}

			hookMgr := hooks.NewManager(log)
			hookMgr.OnAll("log", func(_ context.Context, p hooks.Payload) error {
				log.Debug().Str("event", string(p.Event)).Str("run", p.RunID).Interface("data", p.Data).Msg("stage")
				return nil
			})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runner := pipeline.NewRunner(source.Default(log), emit.Default(), hookMgr, runs, log)
			res, err := runner.Run(ctx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Reported %d slices from %d messages (%d sessions)\n",
				len(res.Bundle.Reports), len(res.Loaded.Messages), len(res.Loaded.Sessions))
			for _, name := range res.Emitted {
				switch name {
				case "json":
					fmt.Fprintf(out, "  wrote %s/%s\n", c.Output.Dir, emit.FileName(c.World, "_data.json"))
				case "json-v2":
					fmt.Fprintf(out, "  wrote %s/%s\n", c.Output.Dir, emit.FileName(c.World, "_data_v2.json"))
				case "xlsx":
					fmt.Fprintf(out, "  wrote %s/%s\n", c.Output.Dir, emit.FileName(c.World, "_data.xlsx"))
				case "sqlite":
					fmt.Fprintf(out, "  saved run %s\n", res.StoredAs)
				}
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "directory for report files")
	cmd.Flags().StringSliceVar(&outputs, "output", nil, "output formats (json, json-v2, xlsx, table, sqlite)")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "do not save the run to the history database")
	return cmd
}
