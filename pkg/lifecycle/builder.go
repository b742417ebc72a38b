package lifecycle

import "github.com/bft-labs/stagehand/pkg/log"

// Builder collects the command sets of a Lifecycle.
// Add methods preserve call order; a command already present is ignored.
//
// Commands run while the lifecycle holds its transition lock. A command that
// needs to stop the lifecycle must call Stop from a new goroutine
// (go lc.Stop()); a synchronous call never returns.
type Builder struct {
	starting   commandSet
	running    commandSet
	stopping   commandSet
	terminated commandSet
	nilCommand bool
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddStartingCommands registers commands run before the lifecycle is running.
// Any failure aborts Start.
func (b *Builder) AddStartingCommands(commands ...Command) *Builder {
	b.add(&b.starting, commands)
	return b
}

// AddRunningCommands registers commands run once the lifecycle is running.
func (b *Builder) AddRunningCommands(commands ...Command) *Builder {
	b.add(&b.running, commands)
	return b
}

// AddStoppingCommands registers commands run when Stop begins.
func (b *Builder) AddStoppingCommands(commands ...Command) *Builder {
	b.add(&b.stopping, commands)
	return b
}

// AddTerminatedCommands registers commands run after the lifecycle is terminated.
func (b *Builder) AddTerminatedCommands(commands ...Command) *Builder {
	b.add(&b.terminated, commands)
	return b
}

func (b *Builder) add(set *commandSet, commands []Command) {
	for _, c := range commands {
		if c == nil {
			b.nilCommand = true
			continue
		}
		set.add(c)
	}
}

// Build freezes the command sets into a new Lifecycle in StageNew.
// The builder may keep being used; the returned Lifecycle does not see later adds.
func (b *Builder) Build(opts ...Option) (*Lifecycle, error) {
	if b.nilCommand {
		return nil, ErrNilCommand
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	l := &Lifecycle{
		starting:   b.starting.freeze(),
		running:    b.running.freeze(),
		stopping:   b.stopping.freeze(),
		terminated: b.terminated.freeze(),
		done:       make(chan struct{}),
		logger:     o.logger.With(log.Component("lifecycle")),
		emitter:    o.emitter,
		exit:       o.exit,
	}
	l.stage.Store(int32(StageNew))
	return l, nil
}
