// Package lifecycle provides the staged lifecycle controller of a service.
//
// A Lifecycle owns four frozen command sets and runs them, synchronously and
// in registration order, as the service moves through its stages.
//
// # Usage
//
//	lc, err := lifecycle.NewBuilder().
//	    AddStartingCommands(lifecycle.Named("listen", srv.Start)).
//	    AddStoppingCommands(lifecycle.Named("shutdown", srv.Close)).
//	    Build(lifecycle.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//
//	if err := lc.Start(); err != nil {
//	    return err // stuck in StageStarting, the process should exit
//	}
//
//	// elsewhere, e.g. in a signal handler
//	_ = lc.Stop()
//
//	// blocks until Stop has completed
//	_ = lc.AwaitRunning()
//
// # Stages
//
// The only transitions are:
//   - New -> Starting -> Running (Start)
//   - Running -> Stopping -> Terminated (Stop)
//
// Starting commands are all-or-nothing: the first failure aborts Start and
// the lifecycle never reaches Running. Running, stopping and terminated
// commands are best-effort: a failure is logged, reported to the
// EventEmitter, and the remaining commands still run.
//
// Abort leaves the state machine entirely and exits the process.
//
// # Version
//
// Current version: 2.0.0
// Minimum compatible version: 2.0.0
//
// See version.go for version constants that can be used programmatically.
package lifecycle
