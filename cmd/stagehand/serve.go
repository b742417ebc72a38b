package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/bft-labs/stagehand/internal/config"
	"github.com/bft-labs/stagehand/internal/metrics"
	"github.com/bft-labs/stagehand/internal/places"
	"github.com/bft-labs/stagehand/pkg/app"
	"github.com/bft-labs/stagehand/pkg/httpserver"
	"github.com/bft-labs/stagehand/pkg/lifecycle"
	"github.com/bft-labs/stagehand/pkg/log"
	"github.com/bft-labs/stagehand/pkg/persistence"
	"github.com/bft-labs/stagehand/plugins/configwatcher"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP sample until interrupted or POST /quit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgFile, err := opts.resolve(cmd)
			if err != nil {
				return err
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			logger.Info("configuration",
				log.String("http_addr", cfg.HTTPAddr),
				log.String("database", cfg.DatabasePath),
				log.Duration("shutdown_timeout", cfg.ShutdownTimeout),
				log.Bool("watch", cfg.Watch),
			)

			m := metrics.New()
			modules, err := serveModules(cfg, cfgFile, logger, m)
			if err != nil {
				return err
			}

			return app.Launch(cmd.Context(), app.Service(modules...),
				app.WithLogger(logger),
				app.WithEventEmitter(m),
			)
		},
	}

	cmd.Flags().StringVar(&opts.cfg.HTTPAddr, "http-addr", opts.cfg.HTTPAddr, "HTTP listen address")
	cmd.Flags().StringVar(&opts.cfg.DatabasePath, "database", opts.cfg.DatabasePath, "SQLite file for places (default: in memory)")
	cmd.Flags().DurationVar(&opts.cfg.ShutdownTimeout, "shutdown-timeout", opts.cfg.ShutdownTimeout, "graceful HTTP shutdown timeout")
	cmd.Flags().BoolVar(&opts.cfg.Watch, "watch", opts.cfg.Watch, "reload the log level when the config file changes")

	return cmd
}

// serveModules assembles the HTTP sample.
func serveModules(cfg config.Config, cfgFile string, logger *log.ZerologAdapter, m *metrics.Metrics) ([]app.Module, error) {
	srvCfg := httpserver.DefaultConfig()
	srvCfg.Addr = cfg.HTTPAddr
	srvCfg.ShutdownTimeout = cfg.ShutdownTimeout

	srv := httpserver.New(srvCfg, logger)
	srv.Use(middleware.Recoverer, m.Middleware)

	var modules []app.Module

	var repo places.Repository
	if cfg.DatabasePath != "" {
		db := persistence.NewDatabase(persistence.Config{Path: cfg.DatabasePath}, logger, &places.Place{})
		modules = append(modules, persistence.Module(db))
		repo = places.NewStoreRepository(persistence.NewGormRepository[places.Place, string](db))
	} else {
		repo = places.NewMemoryRepository()
	}

	modules = append(modules,
		sampleModule(srv, m),
		places.Module(srv, repo),
		httpserver.Module(srv),
	)

	if cfg.Watch {
		if cfgFile == "" {
			return nil, errors.New("--watch needs a config file")
		}
		p := configwatcher.New(configwatcher.Config{
			Path:   cfgFile,
			Reload: configwatcher.LogLevelReloader(logger),
		}, logger)
		modules = append(modules, configwatcher.Module(p))
	}

	return modules, nil
}

// sampleModule registers the health, stats, metrics and quit routes.
func sampleModule(srv *httpserver.Server, m *metrics.Metrics) app.Module {
	return app.ModuleFunc(func(b *app.Binder) error {
		ctrl := b.Lifecycle()
		logger := b.Logger()

		srv.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprintln(w, "ok")
		})
		srv.HandleFunc("/stats", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprintf(w, "requests: %d\n", m.TotalRequests())
		})
		srv.Handle("/metrics", m.Handler())

		// Graceful shutdown waits for this handler, so stop asynchronously.
		srv.Method(http.MethodPost, "/quit", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			go func() {
				if err := ctrl.Stop(); err != nil && !errors.Is(err, lifecycle.ErrIllegalTransition) {
					logger.Error("stop failed", log.Err(err))
				}
			}()
			w.WriteHeader(http.StatusAccepted)
			fmt.Fprintln(w, "stopping")
		}))

		b.OnRunning(lifecycle.Named("sample.ready", func() error {
			logger.Info("http sample ready", log.String("addr", srv.Addr()))
			return nil
		}))
		return nil
	})
}
