package lifecycle

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/bft-labs/stagehand/pkg/log"
)

// CommandSets holds the four command collections of a Lifecycle.
// Nil slices are empty sets.
type CommandSets struct {
	Starting   []Command
	Running    []Command
	Stopping   []Command
	Terminated []Command
}

// Lifecycle runs registered commands at each stage transition of a service.
//
// Start and Stop are serialized on a single mutex. The stage is atomic and can
// be observed from any goroutine without locking.
type Lifecycle struct {
	mu    sync.Mutex
	stage atomic.Int32

	starting   []Command
	running    []Command
	stopping   []Command
	terminated []Command

	// done is closed once Stop has run every stopping and terminated command.
	done chan struct{}

	logger  log.Logger
	emitter EventEmitter
	exit    func(code int)
}

var _ Controller = (*Lifecycle)(nil)

// New creates a Lifecycle in StageNew from the given command sets.
// Duplicate comparable commands are collapsed. Returns ErrNilCommand if any
// set contains a nil command.
func New(sets CommandSets, opts ...Option) (*Lifecycle, error) {
	return NewBuilder().
		AddStartingCommands(sets.Starting...).
		AddRunningCommands(sets.Running...).
		AddStoppingCommands(sets.Stopping...).
		AddTerminatedCommands(sets.Terminated...).
		Build(opts...)
}

// Start executes the starting commands, moves to StageRunning and executes
// the running commands.
//
// A failing starting command aborts Start: the remaining starting commands and
// all running commands are skipped and the lifecycle stays in StageStarting.
// Running commands are best-effort: failures are logged and the rest still run.
//
// Commands that spawn goroutines may still be initializing when the stage
// reaches StageRunning. Commands must not call Start or Stop synchronously:
// the lock is not reentrant.
func (l *Lifecycle) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if current := l.Stage(); current != StageNew {
		return &TransitionError{Op: "start", Stage: current}
	}

	l.transitionTo(StageStarting)
	for _, c := range l.starting {
		if err := execute(c); err != nil {
			cerr := &CommandError{Stage: StageStarting, Command: commandName(c), Err: err}
			l.logger.Error("starting command failed, lifecycle will not reach running",
				log.String("command", cerr.Command),
				log.Err(err),
			)
			l.emitFailure(StageStarting, cerr.Command, err)
			return cerr
		}
	}

	l.transitionTo(StageRunning)
	l.runBestEffort(StageRunning, l.running)
	return nil
}

// Stop executes the stopping commands, moves to StageTerminated and executes
// the terminated commands. Both phases are best-effort.
//
// A starting or running command that stops the lifecycle must do so from a
// goroutine; Stop then waits for Start to return.
func (l *Lifecycle) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if current := l.Stage(); current != StageRunning {
		return &TransitionError{Op: "stop", Stage: current}
	}

	l.transitionTo(StageStopping)
	l.runBestEffort(StageStopping, l.stopping)

	l.transitionTo(StageTerminated)
	l.runBestEffort(StageTerminated, l.terminated)

	close(l.done)
	return nil
}

// Abort terminates the process with exit code 1 without running any stopping
// or terminated command. It is meant for emergencies, never for orderly
// shutdown.
func (l *Lifecycle) Abort() {
	l.logger.Warn("lifecycle aborted, skipping shutdown commands",
		log.Stringer("stage", l.Stage()),
	)
	l.exit(1)
}

// AwaitRunning blocks until a concurrent Stop has completed.
// Returns ErrIllegalState if the lifecycle is not running when called.
func (l *Lifecycle) AwaitRunning() error {
	return l.AwaitRunningContext(context.Background())
}

// AwaitRunningContext is AwaitRunning bounded by ctx.
func (l *Lifecycle) AwaitRunningContext(ctx context.Context) error {
	if current := l.Stage(); current != StageRunning {
		return fmt.Errorf("%w (stage %s)", ErrIllegalState, current)
	}

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed once Stop has completed.
func (l *Lifecycle) Done() <-chan struct{} {
	return l.done
}

// IsRunning reports whether the current stage is StageRunning.
func (l *Lifecycle) IsRunning() bool {
	return l.Stage() == StageRunning
}

// Stage returns the current stage.
func (l *Lifecycle) Stage() Stage {
	return Stage(l.stage.Load())
}

// transitionTo must be called with mu held.
func (l *Lifecycle) transitionTo(next Stage) {
	previous := Stage(l.stage.Swap(int32(next)))

	if l.emitter != nil {
		l.emitter.OnStageChange(previous, next)
	}

	l.logger.Info("stage transition",
		log.Stringer("from", previous),
		log.Stringer("to", next),
	)
}

func (l *Lifecycle) runBestEffort(stage Stage, commands []Command) {
	for _, c := range commands {
		if err := execute(c); err != nil {
			name := commandName(c)
			l.logger.Error("command failed, continuing",
				log.Stringer("stage", stage),
				log.String("command", name),
				log.Err(err),
			)
			l.emitFailure(stage, name, err)
		}
	}
}

func (l *Lifecycle) emitFailure(stage Stage, command string, err error) {
	if l.emitter != nil {
		l.emitter.OnCommandFailure(stage, command, err)
	}
}

// execute runs c, turning a panic into an error.
func execute(c Command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.Execute()
}

func defaultExit(code int) {
	os.Exit(code)
}
