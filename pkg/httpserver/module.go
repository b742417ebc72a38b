package httpserver

import (
	"context"

	"github.com/bft-labs/stagehand/pkg/app"
	"github.com/bft-labs/stagehand/pkg/lifecycle"
)

// Module returns an app.Module that starts srv while the application starts
// and shuts it down gracefully when it stops.
//
// A bind failure aborts the launch. Handlers that stop the lifecycle must do
// so asynchronously: the stopping command waits for in-flight requests.
func Module(srv *Server) app.Module {
	return app.ModuleFunc(func(b *app.Binder) error {
		b.OnStarting(lifecycle.Named("httpserver.launcher", srv.Start))
		b.OnStopping(lifecycle.Named("httpserver.killer", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), srv.cfg.ShutdownTimeout)
			defer cancel()
			return srv.Stop(ctx)
		}))
		return nil
	})
}
