package app

import (
	"context"
	"sync/atomic"

	"github.com/bft-labs/stagehand/pkg/lifecycle"
	"github.com/bft-labs/stagehand/pkg/log"
)

// Application is a service launched by Launch.
type Application interface {
	// Modules returns the modules contributing lifecycle commands.
	Modules() []Module

	// Run is called once the lifecycle is running. It may return immediately;
	// the launcher keeps waiting until the lifecycle is stopped.
	Run(ctx context.Context, lc lifecycle.Controller) error
}

// Module contributes commands to the lifecycle of an application.
type Module interface {
	Configure(b *Binder) error
}

// ModuleFunc adapts a function to Module.
type ModuleFunc func(b *Binder) error

// Configure calls f.
func (f ModuleFunc) Configure(b *Binder) error {
	return f(b)
}

// Service returns an Application whose Run does nothing: all of its work is
// done by the commands of its modules.
func Service(modules ...Module) Application {
	return &service{modules: modules}
}

type service struct {
	modules []Module
}

func (s *service) Modules() []Module { return s.modules }

func (s *service) Run(context.Context, lifecycle.Controller) error { return nil }

// Binder is handed to every Module. It registers commands against the four
// lifecycle stages and gives access to the lifecycle being built.
type Binder struct {
	builder *lifecycle.Builder
	logger  log.Logger
	ref     *controllerRef
}

// OnStarting registers commands run before the application is running.
// A failure aborts the launch.
func (b *Binder) OnStarting(commands ...lifecycle.Command) *Binder {
	b.builder.AddStartingCommands(commands...)
	return b
}

// OnRunning registers best-effort commands run once the application is running.
func (b *Binder) OnRunning(commands ...lifecycle.Command) *Binder {
	b.builder.AddRunningCommands(commands...)
	return b
}

// OnStopping registers best-effort commands run when the application stops.
func (b *Binder) OnStopping(commands ...lifecycle.Command) *Binder {
	b.builder.AddStoppingCommands(commands...)
	return b
}

// OnTerminated registers best-effort commands run after the application stopped.
func (b *Binder) OnTerminated(commands ...lifecycle.Command) *Binder {
	b.builder.AddTerminatedCommands(commands...)
	return b
}

// Logger returns the launcher logger.
func (b *Binder) Logger() log.Logger {
	return b.logger
}

// Lifecycle returns the application's lifecycle. It is usable from commands
// and handlers; before the lifecycle is built it behaves as a lifecycle in
// StageNew that refuses every transition.
func (b *Binder) Lifecycle() lifecycle.Controller {
	return b.ref
}

// controllerRef forwards to a Lifecycle bound after every module is configured.
type controllerRef struct {
	lc atomic.Pointer[lifecycle.Lifecycle]
}

func (r *controllerRef) Start() error {
	if lc := r.lc.Load(); lc != nil {
		return lc.Start()
	}
	return &lifecycle.TransitionError{Op: "start", Stage: lifecycle.StageNew}
}

func (r *controllerRef) Stop() error {
	if lc := r.lc.Load(); lc != nil {
		return lc.Stop()
	}
	return &lifecycle.TransitionError{Op: "stop", Stage: lifecycle.StageNew}
}

func (r *controllerRef) Abort() {
	if lc := r.lc.Load(); lc != nil {
		lc.Abort()
		return
	}
	defaultExit(1)
}

func (r *controllerRef) AwaitRunning() error {
	if lc := r.lc.Load(); lc != nil {
		return lc.AwaitRunning()
	}
	return lifecycle.ErrIllegalState
}

func (r *controllerRef) IsRunning() bool {
	return r.Stage() == lifecycle.StageRunning
}

func (r *controllerRef) Stage() lifecycle.Stage {
	if lc := r.lc.Load(); lc != nil {
		return lc.Stage()
	}
	return lifecycle.StageNew
}
