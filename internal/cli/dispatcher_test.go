package cli

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/stagehand/pkg/app"
	"github.com/bft-labs/stagehand/pkg/lifecycle"
)

func pong(out io.Writer) error {
	_, err := io.WriteString(out, "pong\n")
	return err
}

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestDispatcher_DispatchesByPath(t *testing.T) {
	var out bytes.Buffer
	d := NewDispatcher(strings.NewReader("ping\n\n  nope \nfail\npanic\nping\n"), &out, nil)
	require.NoError(t, d.Handle("ping", pong))
	require.NoError(t, d.Handle("fail", func(io.Writer) error { return errors.New("boom") }))
	require.NoError(t, d.Handle("panic", func(io.Writer) error { panic("oops") }))

	closed := make(chan struct{})
	d.onClose = func() { close(closed) }

	require.NoError(t, d.Start())
	waitClosed(t, d.Done())
	waitClosed(t, closed)

	assert.Equal(t, "pong\nunknown command \"nope\"\nfail: boom\npanic: panic: oops\npong\n", out.String())
}

func TestDispatcher_StartTwice(t *testing.T) {
	d := NewDispatcher(strings.NewReader(""), io.Discard, nil)
	require.NoError(t, d.Start())
	assert.ErrorIs(t, d.Start(), ErrAlreadyStarted)
	waitClosed(t, d.Done())
}

func TestDispatcher_HandleEmptyPath(t *testing.T) {
	d := NewDispatcher(strings.NewReader(""), io.Discard, nil)
	assert.ErrorIs(t, d.Handle("  ", pong), ErrEmptyPath)
	require.NoError(t, d.Handle("b", pong))
	require.NoError(t, d.Handle("a", pong))
	assert.Equal(t, []string{"a", "b"}, d.Paths())
}

func TestDispatcher_StopSkipsFurtherLines(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	var calls atomic.Int32
	handled := make(chan struct{}, 1)
	d := NewDispatcher(r, io.Discard, nil)
	require.NoError(t, d.Handle("ping", func(io.Writer) error {
		calls.Add(1)
		handled <- struct{}{}
		return nil
	}))

	closed := atomic.Bool{}
	d.onClose = func() { closed.Store(true) }

	require.NoError(t, d.Start())
	_, err := io.WriteString(w, "ping\n")
	require.NoError(t, err)
	waitClosed(t, handled)

	require.NoError(t, d.Stop())
	_, err = io.WriteString(w, "ping\n")
	require.NoError(t, err)
	waitClosed(t, d.Done())

	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, closed.Load(), "onClose must not run after Stop")
}

func TestModule_QuitStopsLifecycle(t *testing.T) {
	var out bytes.Buffer
	d := NewDispatcher(strings.NewReader("ping\nquit\nping\n"), &out, nil)

	lc, err := app.Build(app.Service(
		Module(d),
		app.ModuleFunc(func(b *app.Binder) error { return d.Handle("ping", pong) }),
	))
	require.NoError(t, err)

	require.NoError(t, lc.Start())
	waitClosed(t, lc.Done())
	waitClosed(t, d.Done())

	assert.Equal(t, lifecycle.StageTerminated, lc.Stage())
	assert.Equal(t, "pong\nbye\n", out.String())
}

func TestModule_InputClosedStopsLifecycle(t *testing.T) {
	d := NewDispatcher(strings.NewReader("help\n"), io.Discard, nil)

	lc, err := app.Build(app.Service(Module(d)))
	require.NoError(t, err)

	require.NoError(t, lc.Start())
	waitClosed(t, lc.Done())
	assert.Equal(t, lifecycle.StageTerminated, lc.Stage())
}

func TestModule_AbortExits(t *testing.T) {
	codes := make(chan int, 1)
	d := NewDispatcher(strings.NewReader("abort\n"), io.Discard, nil)

	lc, err := app.Build(app.Service(Module(d)), app.WithExitFunc(func(code int) { codes <- code }))
	require.NoError(t, err)
	require.NoError(t, lc.Start())

	select {
	case code := <-codes:
		assert.Equal(t, 1, code)
	case <-time.After(2 * time.Second):
		t.Fatal("abort did not exit")
	}
	waitClosed(t, lc.Done())
}
