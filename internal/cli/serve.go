package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tillberg/autorestart"

	"github.com/soyeahso/d20stats/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		port  int
		bind  string
		dir   string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve report files and the run history over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadedConfig(nil)
			if err != nil {
				return err
			}
			if port != 0 {
				c.Server.Port = port
			}
			if bind != "" {
				c.Server.Bind = bind
			}
			if dir != "" {
				c.Output.Dir = dir
			}
			if watch {
				c.Server.Watch = true
			}
			if err := validated(&c); err != nil {
				return err
			}

			if c.Server.Watch {
				log.Info().Msg("restarting when the binary changes")
				go autorestart.RestartOnChange()
			}

			db, runs, err := openHistory(&c)
			if err != nil {
				return err
			}
			defer db.Close()

			srv := server.New(c.Server, log,
				server.WithRuns(runs),
				server.WithStaticDir(c.Output.Dir),
				server.WithAllLabel(c.Labels.All),
			)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "port to listen on")
	cmd.Flags().StringVar(&bind, "bind", "", "bind mode (loopback, lan, custom)")
	cmd.Flags().StringVar(&dir, "dir", "", "directory of report files to serve")
	cmd.Flags().BoolVar(&watch, "watch", false, "restart when the d20stats binary is rebuilt")
	return cmd
}
