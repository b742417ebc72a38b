// Package cli reads commands line by line and dispatches each line to the
// endpoint registered under the same path.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bft-labs/stagehand/pkg/log"
)

var (
	// ErrAlreadyStarted is returned by Start on a dispatcher that was started before.
	ErrAlreadyStarted = errors.New("cli: dispatcher already started")

	// ErrEmptyPath is returned by Handle for a blank path.
	ErrEmptyPath = errors.New("cli: empty endpoint path")
)

// Handler runs an endpoint. Anything written to out is shown to the user.
type Handler func(out io.Writer) error

// Dispatcher reads lines from an input and runs the endpoint whose path equals
// the trimmed line. Blank lines are ignored; unknown paths print an error line.
type Dispatcher struct {
	in     io.Reader
	out    io.Writer
	logger log.Logger

	mu        sync.RWMutex
	endpoints map[string]Handler

	started atomic.Bool
	stopped atomic.Bool
	done    chan struct{}

	// onClose runs when the input is exhausted before Stop.
	onClose func()
}

// NewDispatcher returns a dispatcher reading from in and writing to out.
func NewDispatcher(in io.Reader, out io.Writer, logger log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Dispatcher{
		in:        in,
		out:       out,
		logger:    logger.With(log.Component("cli")),
		endpoints: make(map[string]Handler),
		done:      make(chan struct{}),
	}
}

// Handle registers h under path, replacing any previous endpoint.
func (d *Dispatcher) Handle(path string, h Handler) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return ErrEmptyPath
	}
	d.mu.Lock()
	d.endpoints[path] = h
	d.mu.Unlock()
	return nil
}

// Paths returns the registered paths in lexical order.
func (d *Dispatcher) Paths() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	paths := make([]string, 0, len(d.endpoints))
	for p := range d.endpoints {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Start launches the read loop in its own goroutine. It can be called once.
func (d *Dispatcher) Start() error {
	if !d.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	go d.loop()
	d.logger.Info("cli dispatcher started", log.Int("endpoints", len(d.Paths())))
	return nil
}

// Stop asks the read loop to exit after the line being handled. It does not
// wait: an endpoint may itself be the caller. A loop blocked on a read exits
// after the next line.
func (d *Dispatcher) Stop() error {
	if d.stopped.CompareAndSwap(false, true) {
		d.logger.Info("cli dispatcher stopping")
	}
	return nil
}

// Done is closed when the read loop has exited.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) loop() {
	defer close(d.done)

	sc := bufio.NewScanner(d.in)
	for !d.stopped.Load() && sc.Scan() {
		if d.stopped.Load() {
			return
		}
		d.dispatch(strings.TrimSpace(sc.Text()))
	}
	if d.stopped.Load() {
		return
	}

	if err := sc.Err(); err != nil {
		d.logger.Warn("cli input failed", log.Err(err))
	} else {
		d.logger.Debug("cli input closed")
	}
	if d.onClose != nil {
		d.onClose()
	}
}

func (d *Dispatcher) dispatch(line string) {
	if line == "" {
		return
	}

	d.mu.RLock()
	h, ok := d.endpoints[line]
	d.mu.RUnlock()
	if !ok {
		fmt.Fprintf(d.out, "unknown command %q\n", line)
		return
	}

	if err := run(h, d.out); err != nil {
		d.logger.Warn("cli endpoint failed", log.String("path", line), log.Err(err))
		fmt.Fprintf(d.out, "%s: %v\n", line, err)
	}
}

func run(h Handler, out io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(out)
}
