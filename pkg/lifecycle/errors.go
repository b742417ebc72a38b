package lifecycle

import (
	"errors"
	"fmt"
)

// Lifecycle errors. Check them with errors.Is.
var (
	// ErrIllegalTransition is returned when Start is called outside StageNew
	// or Stop is called outside StageRunning.
	ErrIllegalTransition = errors.New("lifecycle: illegal transition")

	// ErrIllegalState is returned when AwaitRunning is called outside StageRunning.
	ErrIllegalState = errors.New("lifecycle: not running")

	// ErrCommandFailure matches every *CommandError.
	ErrCommandFailure = errors.New("lifecycle: command failed")

	// ErrNilCommand is returned by Build when a nil command was registered.
	ErrNilCommand = errors.New("lifecycle: nil command")
)

// TransitionError reports a Start or Stop refused because of the current stage.
type TransitionError struct {
	Op    string
	Stage Stage
}

func (e *TransitionError) Error() string {
	switch e.Op {
	case "start":
		return fmt.Sprintf("lifecycle: can only start once (stage %s)", e.Stage)
	case "stop":
		return fmt.Sprintf("lifecycle: can only stop once while running (stage %s)", e.Stage)
	default:
		return fmt.Sprintf("lifecycle: illegal %s in stage %s", e.Op, e.Stage)
	}
}

// Unwrap returns ErrIllegalTransition.
func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}

// CommandError reports a command that failed, or panicked, during a transition.
type CommandError struct {
	Stage   Stage
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("lifecycle: %s command %s: %v", e.Stage, e.Command, e.Err)
}

// Unwrap returns the command's own error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrCommandFailure.
func (e *CommandError) Is(target error) bool {
	return target == ErrCommandFailure
}
