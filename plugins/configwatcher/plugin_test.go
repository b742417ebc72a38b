package configwatcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/stagehand/pkg/app"
	"github.com/bft-labs/stagehand/pkg/lifecycle"
)

type levelRecorder struct {
	mu     sync.Mutex
	levels []string
}

func (r *levelRecorder) SetLevel(level string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels = append(r.levels, level)
	return nil
}

func (r *levelRecorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.levels) == 0 {
		return ""
	}
	return r.levels[len(r.levels)-1]
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestModule_ReloadsLogLevelWhileRunning(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, `log_level = "info"`)

	rec := &levelRecorder{}
	p := New(Config{
		Path:          path,
		DebounceDelay: 10 * time.Millisecond,
		Reload:        LogLevelReloader(rec),
	}, nil)

	lc, err := app.Build(app.Service(Module(p)))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if err := lc.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	writeConfig(t, path, `log_level = "debug"`)
	eventually(t, func() bool { return rec.last() == "debug" })

	if err := lc.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if lc.Stage() != lifecycle.StageTerminated {
		t.Fatalf("Stage = %v, want Terminated", lc.Stage())
	}

	writeConfig(t, path, `log_level = "error"`)
	time.Sleep(100 * time.Millisecond)
	if got := rec.last(); got != "debug" {
		t.Errorf("level after shutdown = %q, want debug", got)
	}
}

func TestPlugin_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, `log_level = "info"`)

	var mu sync.Mutex
	var reloads int
	p := New(Config{
		Path:          path,
		DebounceDelay: 10 * time.Millisecond,
		Reload: func(string) error {
			mu.Lock()
			reloads++
			mu.Unlock()
			return nil
		},
	}, nil)

	if err := p.Start(testContext(t)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Shutdown()

	writeConfig(t, filepath.Join(dir, "other.toml"), `x = 1`)
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if reloads != 0 {
		t.Errorf("reloads = %d, want 0", reloads)
	}
}

func TestPlugin_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, ``)

	var mu sync.Mutex
	var reloads int
	p := New(Config{
		Path:          path,
		DebounceDelay: 200 * time.Millisecond,
		Reload: func(string) error {
			mu.Lock()
			reloads++
			mu.Unlock()
			return nil
		},
	}, nil)

	if err := p.Start(testContext(t)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Shutdown()

	for i := 0; i < 5; i++ {
		writeConfig(t, path, `log_level = "warn"`)
	}
	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if reloads != 1 {
		t.Errorf("reloads = %d, want 1", reloads)
	}
}

func TestPlugin_StartMissingDirectory(t *testing.T) {
	p := New(Config{
		Path:   filepath.Join(t.TempDir(), "missing", "config.toml"),
		Reload: func(string) error { return nil },
	}, nil)

	if err := p.Start(testContext(t)); err == nil {
		t.Fatal("Start() expected error for missing directory")
	}
	if err := p.Shutdown(); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestLogLevelReloader_EmptyLevelKeepsCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, `http_addr = ":1"`)

	rec := &levelRecorder{}
	if err := LogLevelReloader(rec)(path); err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if len(rec.levels) != 0 {
		t.Errorf("levels = %v, want none", rec.levels)
	}
}

// testContext mirrors testing.T.Context (Go 1.24+): the returned context is
// canceled just before Cleanup-registered functions run.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
