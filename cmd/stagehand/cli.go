package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bft-labs/stagehand/internal/cli"
	"github.com/bft-labs/stagehand/pkg/app"
	"github.com/bft-labs/stagehand/pkg/lifecycle"
)

func newCliCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cli",
		Short: "Read commands from stdin: ping, stage, help, quit, abort",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			d := cli.NewDispatcher(cmd.InOrStdin(), cmd.OutOrStdout(), logger)
			return app.Launch(cmd.Context(), app.Service(cli.Module(d), cliEndpoints(d)),
				app.WithLogger(logger),
			)
		},
	}
}

// cliEndpoints adds the sample endpoints and prints each stage change.
func cliEndpoints(d *cli.Dispatcher) app.Module {
	return app.ModuleFunc(func(b *app.Binder) error {
		ctrl := b.Lifecycle()

		if err := d.Handle("ping", func(out io.Writer) error {
			_, err := fmt.Fprintln(out, "pong")
			return err
		}); err != nil {
			return err
		}
		if err := d.Handle("stage", func(out io.Writer) error {
			_, err := fmt.Fprintln(out, ctrl.Stage())
			return err
		}); err != nil {
			return err
		}

		announce := func(msg string) lifecycle.Command {
			return lifecycle.Named("cli.announce."+msg, func() error {
				_, err := fmt.Fprintln(os.Stderr, msg)
				return err
			})
		}
		b.OnStarting(announce("starting"))
		b.OnRunning(announce("running"))
		b.OnStopping(announce("stopping"))
		b.OnTerminated(announce("terminated"))
		return nil
	})
}
