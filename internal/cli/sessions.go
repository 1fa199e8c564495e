package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/soyeahso/d20stats/internal/emit"
	"github.com/soyeahso/d20stats/internal/pipeline"
	"github.com/soyeahso/d20stats/internal/session"
	"github.com/soyeahso/d20stats/internal/source"
)

type sessionRow struct {
	Start      string `json:"start"`
	End        string `json:"end"`
	Duration   string `json:"duration"`
	Messages   int    `json:"messages"`
	Qualifying bool   `json:"qualifying"`
	Previous   bool   `json:"previous"`
}

func newSessionsCmd() *cobra.Command {
	var (
		flags  runFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List the play sessions found in the chat log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadedConfig(&flags)
			if err != nil {
				return err
			}
			if err := validated(&c); err != nil {
				return err
			}
			if c.Source.Path == "" {
				return errors.New("no source path: set source.path in the config or pass --path")
			}
			req, err := pipeline.RequestFromConfig(&c)
			if err != nil {
				return err
			}

			runner := pipeline.NewRunner(source.Default(log), emit.Default(), nil, nil, log)
			loaded, err := runner.Load(context.Background(), req)
			if err != nil {
				return err
			}

			minCount := c.Session.MinMessages
			if minCount <= 0 {
				minCount = session.DefaultMinMessages
			}
			rows := make([]sessionRow, 0, len(loaded.Sessions))
			for _, s := range loaded.Sessions {
				rows = append(rows, sessionRow{
					Start:      s.Start.Format("2006-01-02 15:04"),
					End:        s.End.Format("2006-01-02 15:04"),
					Duration:   s.Duration().String(),
					Messages:   s.Count,
					Qualifying: s.Count >= minCount,
					Previous:   s == loaded.Previous,
				})
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("#", "Start", "End", "Duration", "Messages", "")
			for i, r := range rows {
				mark := ""
				switch {
				case r.Previous:
					mark = "previous"
				case !r.Qualifying:
					mark = "too short"
				}
				t.Row(strconv.Itoa(i+1), r.Start, r.End, r.Duration, strconv.Itoa(r.Messages), mark)
			}
			fmt.Fprintln(out, t.String())
			fmt.Fprintf(out, "%d messages, %d skipped, %d excluded\n",
				len(loaded.Messages), loaded.Summary.Skipped(), loaded.Excluded)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print sessions as JSON")
	return cmd
}
