package lifecycle

import "github.com/bft-labs/stagehand/pkg/log"

// Option configures optional behavior of a Lifecycle.
type Option func(*options)

type options struct {
	logger  log.Logger
	emitter EventEmitter
	exit    func(code int)
}

func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
		exit:   defaultExit,
	}
}

// WithLogger sets the logger used for transitions and swallowed failures.
// If not provided, a no-op logger is used.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEventEmitter sets a handler notified synchronously, from the goroutine
// calling Start or Stop, of stage changes and command failures.
func WithEventEmitter(emitter EventEmitter) Option {
	return func(o *options) {
		o.emitter = emitter
	}
}

// WithExitFunc replaces os.Exit as the function Abort calls.
func WithExitFunc(exit func(code int)) Option {
	return func(o *options) {
		if exit != nil {
			o.exit = exit
		}
	}
}
