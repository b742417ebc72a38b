package lifecycle

import (
	"fmt"
	"reflect"
)

// Command is a unit of work run at a lifecycle transition.
type Command interface {
	Execute() error
}

// CommandFunc adapts a plain function to Command.
//
// Function values are not comparable, so every registration of a CommandFunc
// is its own set member. Use Named to get a command that deduplicates.
type CommandFunc func() error

// Execute calls f.
func (f CommandFunc) Execute() error {
	return f()
}

// NamedCommand is a Command with a name used in logs and errors.
// Commands are compared by pointer, so registering the same *NamedCommand
// twice keeps a single membership.
type NamedCommand struct {
	name string
	fn   func() error
}

// Named returns a named command running fn.
func Named(name string, fn func() error) *NamedCommand {
	return &NamedCommand{name: name, fn: fn}
}

// Execute calls the wrapped function.
func (c *NamedCommand) Execute() error {
	return c.fn()
}

// String returns the command name.
func (c *NamedCommand) String() string {
	return c.name
}

// commandName describes c for logs.
func commandName(c Command) string {
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", c)
}

// commandSet is an insertion-ordered set of commands, frozen once built.
type commandSet struct {
	commands []Command
	seen     map[Command]struct{}
}

func (s *commandSet) add(c Command) {
	if isComparable(c) && !s.markSeen(c) {
		return
	}
	s.commands = append(s.commands, c)
}

// markSeen records c and reports whether it was new. A comparable type can
// still hold an unhashable value, e.g. a struct wrapping a CommandFunc; such
// a command is always new.
func (s *commandSet) markSeen(c Command) (added bool) {
	defer func() {
		if recover() != nil {
			added = true
		}
	}()
	if s.seen == nil {
		s.seen = make(map[Command]struct{})
	}
	if _, ok := s.seen[c]; ok {
		return false
	}
	s.seen[c] = struct{}{}
	return true
}

// freeze returns a copy of the members that later adds cannot alter.
func (s *commandSet) freeze() []Command {
	return append([]Command(nil), s.commands...)
}

func isComparable(c Command) bool {
	return reflect.TypeOf(c).Comparable()
}
