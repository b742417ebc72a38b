// Package log provides the logging abstraction shared by stagehand packages.
//
// Lifecycle controllers, launchers and modules log through the Logger
// interface so that embedding applications can plug in their own backend.
// A zerolog adapter and a no-op logger are provided.
//
// # Usage
//
//	logger, err := log.NewZerologAdapterWithOptions(log.Options{
//	    Level:  "debug",
//	    Format: log.FormatJSON,
//	})
//	if err != nil {
//	    return err
//	}
//	lc, err := lifecycle.NewBuilder().Build(lifecycle.WithLogger(logger))
//
// Tests usually pass log.NewNoopLogger().
//
// # Version
//
// Current version: 1.1.0
// Minimum compatible version: 1.0.0
package log
