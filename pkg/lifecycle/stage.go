package lifecycle

// Stage represents a phase of a Lifecycle. Stages are totally ordered:
// StageNew < StageStarting < StageRunning < StageStopping < StageTerminated.
type Stage int32

const (
	StageNew Stage = iota
	StageStarting
	StageRunning
	StageStopping
	StageTerminated
)

// String returns a human-readable representation of the stage.
func (s Stage) String() string {
	switch s {
	case StageNew:
		return "New"
	case StageStarting:
		return "Starting"
	case StageRunning:
		return "Running"
	case StageStopping:
		return "Stopping"
	case StageTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// EventEmitter is notified of stage changes and of every command failure,
// including the starting failure that aborts Start.
type EventEmitter interface {
	OnStageChange(previous, current Stage)
	OnCommandFailure(stage Stage, command string, err error)
}

// Controller is the capability a Lifecycle exposes to collaborators such as
// HTTP quit handlers or CLI endpoints.
type Controller interface {
	// Start runs the starting and running commands. It can only succeed once.
	// Start and Stop are serialized and not reentrant: a command must never
	// call them synchronously, only from another goroutine.
	Start() error

	// Stop runs the stopping and terminated commands. It requires StageRunning.
	// Called from a starting or running command it must run in a goroutine;
	// it then proceeds once Start has returned.
	Stop() error

	// Abort exits the process without running any further command.
	Abort()

	// AwaitRunning blocks until a concurrent Stop has completed.
	AwaitRunning() error

	// IsRunning reports whether the current stage is StageRunning.
	IsRunning() bool

	// Stage returns the current stage.
	Stage() Stage
}
