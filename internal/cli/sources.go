package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soyeahso/d20stats/internal/emit"
	"github.com/soyeahso/d20stats/internal/source"
)

func newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List supported source and output formats",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Source formats:")
			for _, f := range source.Default(log).Formats() {
				fmt.Fprintf(out, "  %-11s %s\n", f.Name, f.Description)
			}
			fmt.Fprintln(out, "\nOutput formats:")
			for _, name := range emit.Default().Names() {
				fmt.Fprintf(out, "  %s\n", name)
			}
		},
	}
}
