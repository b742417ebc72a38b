package configwatcher

import (
	"context"

	"github.com/bft-labs/stagehand/internal/config"
	"github.com/bft-labs/stagehand/pkg/app"
	"github.com/bft-labs/stagehand/pkg/lifecycle"
)

// Module runs p while the application is RUNNING.
//
// Usage:
//
//	p := configwatcher.New(configwatcher.Config{
//	    Path:   path,
//	    Reload: configwatcher.LogLevelReloader(adapter),
//	}, logger)
//	app.Service(configwatcher.Module(p), ...)
func Module(p *Plugin) app.Module {
	return app.ModuleFunc(func(b *app.Binder) error {
		b.OnRunning(lifecycle.Named(p.Name()+".start", func() error {
			return p.Start(context.Background())
		}))
		b.OnStopping(lifecycle.Named(p.Name()+".shutdown", p.Shutdown))
		return nil
	})
}

// LevelSetter changes a logger level at runtime.
type LevelSetter interface {
	SetLevel(level string) error
}

// LogLevelReloader returns a ReloadFunc that applies the file's log_level.
// A file without log_level leaves the level unchanged.
func LogLevelReloader(setter LevelSetter) ReloadFunc {
	return func(path string) error {
		fc, err := config.LoadFileConfig(path)
		if err != nil {
			return err
		}
		if fc.LogLevel == "" {
			return nil
		}
		return setter.SetLevel(fc.LogLevel)
	}
}
