package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/bft-labs/stagehand/pkg/app"
	"github.com/bft-labs/stagehand/pkg/lifecycle"
	"github.com/bft-labs/stagehand/pkg/log"
)

// Module starts d while the application starts and stops it when the
// application stops. It registers the built-in "quit", "abort" and "help"
// endpoints, and stops the application when the input is exhausted.
func Module(d *Dispatcher) app.Module {
	return app.ModuleFunc(func(b *app.Binder) error {
		ctrl := b.Lifecycle()
		logger := b.Logger()

		if err := d.Handle("quit", QuitEndpoint(ctrl)); err != nil {
			return err
		}
		if err := d.Handle("abort", AbortEndpoint(ctrl)); err != nil {
			return err
		}
		if err := d.Handle("help", HelpEndpoint(d)); err != nil {
			return err
		}

		d.onClose = func() {
			if err := ctrl.Stop(); err != nil && !errors.Is(err, lifecycle.ErrIllegalTransition) {
				logger.Error("stop after input closed", log.Err(err))
			}
		}

		b.OnStarting(lifecycle.Named("cli.launcher", d.Start))
		b.OnStopping(lifecycle.Named("cli.killer", d.Stop))
		return nil
	})
}

// QuitEndpoint stops ctrl.
func QuitEndpoint(ctrl lifecycle.Controller) Handler {
	return func(out io.Writer) error {
		fmt.Fprintln(out, "bye")
		return ctrl.Stop()
	}
}

// AbortEndpoint aborts ctrl, skipping every shutdown command.
func AbortEndpoint(ctrl lifecycle.Controller) Handler {
	return func(io.Writer) error {
		ctrl.Abort()
		return nil
	}
}

// HelpEndpoint lists the paths registered on d.
func HelpEndpoint(d *Dispatcher) Handler {
	return func(out io.Writer) error {
		for _, p := range d.Paths() {
			fmt.Fprintln(out, p)
		}
		return nil
	}
}
