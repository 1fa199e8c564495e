package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/soyeahso/d20stats/internal/emit"
	"github.com/soyeahso/d20stats/internal/store"
)

func newHistoryCmd() *cobra.Command {
	var (
		world string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved report runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadedConfig(nil)
			if err != nil {
				return err
			}
			db, runs, err := openHistory(&c)
			if err != nil {
				return err
			}
			defer db.Close()

			list, err := runs.ListRuns(cmd.Context(), world, limit)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs saved yet.")
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("Run", "World", "Created", "Source", "Messages", "Previous session")
			for _, r := range list {
				prev := "-"
				if r.Session != nil {
					prev = fmt.Sprintf("%s (%d)", r.Session.Start.Format("2006-01-02"), r.Session.Count)
				}
				t.Row(r.ID, r.World, r.CreatedAt.Local().Format(time.DateTime), r.SourceFormat, strconv.Itoa(r.Messages), prev)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&world, "world", "w", "", "only list runs of this world")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to list (0 for all)")

	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistoryMetricCmd())
	cmd.AddCommand(newHistoryDeleteCmd())
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	var latest string

	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Print the headline statistics of a saved run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadedConfig(nil)
			if err != nil {
				return err
			}
			db, runs, err := openHistory(&c)
			if err != nil {
				return err
			}
			defer db.Close()

			var run *store.Run
			if len(args) == 1 {
				run, err = runs.LoadRun(cmd.Context(), args[0])
			} else {
				w := latest
				if w == "" {
					w = c.World
				}
				if w == "" {
					return errors.New("pass a run id or --world")
				}
				run, err = runs.LatestRun(cmd.Context(), w)
			}
			if err != nil {
				return err
			}
			return emit.NewTableEmitter(cmd.OutOrStdout()).Emit(cmd.Context(), run.Bundle)
		},
	}

	cmd.Flags().StringVarP(&latest, "world", "w", "", "show the latest run of this world")
	return cmd
}

func newHistoryMetricCmd() *cobra.Command {
	var world, slice string

	cmd := &cobra.Command{
		Use:   "metric <name>",
		Short: "Show how a metric changed across saved runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadedConfig(nil)
			if err != nil {
				return err
			}
			if world == "" {
				world = c.World
			}
			if slice == "" {
				slice = c.Labels.All
			}
			db, runs, err := openHistory(&c)
			if err != nil {
				return err
			}
			defer db.Close()

			points, err := runs.MetricHistory(cmd.Context(), world, slice, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(points) == 0 {
				fmt.Fprintf(out, "No values of %s for %s in %s.\n", args[0], slice, world)
				return nil
			}
			for _, p := range points {
				fmt.Fprintf(out, "%s  %s  %g\n", p.CreatedAt.Local().Format(time.DateTime), p.RunID, p.Value)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&world, "world", "w", "", "world to read (defaults to the configured world)")
	cmd.Flags().StringVar(&slice, "slice", "", "slice label (defaults to the whole group)")
	return cmd
}

func newHistoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadedConfig(nil)
			if err != nil {
				return err
			}
			db, runs, err := openHistory(&c)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := runs.DeleteRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
			return nil
		},
	}
}
