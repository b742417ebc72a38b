package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bft-labs/stagehand/pkg/lifecycle"
	"github.com/bft-labs/stagehand/pkg/log"
)

// Option configures Launch.
type Option func(*options)

type options struct {
	logger  log.Logger
	emitter lifecycle.EventEmitter
	signals []os.Signal
	exit    func(code int)
}

func defaultOptions() options {
	return options{
		logger:  log.NewNoopLogger(),
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		exit:    defaultExit,
	}
}

// WithLogger sets the logger shared by the launcher, its lifecycle and modules.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEventEmitter observes the lifecycle's stage changes and command failures.
func WithEventEmitter(emitter lifecycle.EventEmitter) Option {
	return func(o *options) {
		o.emitter = emitter
	}
}

// WithSignals replaces the shutdown signals (SIGINT and SIGTERM by default).
// The first signal stops the lifecycle, a second one aborts the process.
func WithSignals(signals ...os.Signal) Option {
	return func(o *options) {
		o.signals = signals
	}
}

// WithExitFunc replaces os.Exit for Abort.
func WithExitFunc(exit func(code int)) Option {
	return func(o *options) {
		if exit != nil {
			o.exit = exit
		}
	}
}

// Build configures every module of application and builds its lifecycle.
// The returned lifecycle is also the one modules see through Binder.Lifecycle.
func Build(application Application, opts ...Option) (*lifecycle.Lifecycle, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return build(application, o)
}

func build(application Application, o options) (*lifecycle.Lifecycle, error) {
	if application == nil {
		return nil, errors.New("app: nil application")
	}
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	binder := &Binder{
		builder: lifecycle.NewBuilder(),
		logger:  o.logger,
		ref:     &controllerRef{},
	}
	for i, m := range application.Modules() {
		if m == nil {
			return nil, fmt.Errorf("app: module %d is nil", i)
		}
		if err := m.Configure(binder); err != nil {
			return nil, fmt.Errorf("configure module %T: %w", m, err)
		}
	}

	lcOpts := []lifecycle.Option{
		lifecycle.WithLogger(o.logger),
		lifecycle.WithExitFunc(o.exit),
	}
	if o.emitter != nil {
		lcOpts = append(lcOpts, lifecycle.WithEventEmitter(o.emitter))
	}
	lc, err := binder.builder.Build(lcOpts...)
	if err != nil {
		return nil, fmt.Errorf("build lifecycle: %w", err)
	}
	binder.ref.lc.Store(lc)
	return lc, nil
}

// Launch builds the application's lifecycle, starts it, runs the application
// and blocks until the lifecycle has been stopped.
//
// The lifecycle is stopped when ctx is done or on the first shutdown signal;
// a second signal aborts the process. Returns the start error if a starting
// command failed, or the error returned by Application.Run.
func Launch(ctx context.Context, application Application, opts ...Option) error {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	lc, err := build(application, o)
	if err != nil {
		return err
	}

	if err := lc.Start(); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	var sigCh chan os.Signal
	if len(o.signals) > 0 {
		sigCh = make(chan os.Signal, 2)
		signal.Notify(sigCh, o.signals...)
		defer signal.Stop(sigCh)
	}
	go watchShutdown(ctx, lc, sigCh, o.logger)

	runErr := application.Run(ctx, lc)
	if runErr != nil {
		o.logger.Error("application run failed, stopping", log.Err(runErr))
		stop(lc, o.logger)
	}

	if lc.IsRunning() {
		if err := lc.AwaitRunning(); err != nil {
			o.logger.Debug("await running", log.Err(err))
		}
	}
	<-lc.Done()

	return runErr
}

// watchShutdown stops lc on the first signal or when ctx is done, and aborts
// on a second signal.
func watchShutdown(ctx context.Context, lc *lifecycle.Lifecycle, sigCh <-chan os.Signal, logger log.Logger) {
	select {
	case <-lc.Done():
		return
	case sig := <-sigCh:
		logger.Info("received signal, stopping", log.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("context done, stopping", log.Err(ctx.Err()))
	}

	go stop(lc, logger)

	select {
	case <-lc.Done():
	case sig := <-sigCh:
		logger.Warn("received second signal, aborting", log.String("signal", sig.String()))
		lc.Abort()
	}
}

func stop(lc *lifecycle.Lifecycle, logger log.Logger) {
	if err := lc.Stop(); err != nil && !errors.Is(err, lifecycle.ErrIllegalTransition) {
		logger.Error("stop failed", log.Err(err))
	}
}

func defaultExit(code int) {
	os.Exit(code)
}
