// Package configwatcher watches a configuration file and reloads it when it
// changes. The watcher runs while the application is RUNNING.
package configwatcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/stagehand/pkg/log"
)

// ReloadFunc applies the configuration file at path.
type ReloadFunc func(path string) error

// Config holds configuration options for the config watcher plugin.
type Config struct {
	// Path is the watched file.
	Path string

	// DebounceDelay is the delay to wait after a file change before reloading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration

	// Reload is called after each debounced change.
	Reload ReloadFunc
}

// Plugin implements config watching functionality.
// It watches the directory of the config file, so that editors replacing the
// file instead of writing it in place are seen too.
type Plugin struct {
	mu sync.Mutex

	path          string
	debounceDelay time.Duration
	reload        ReloadFunc
	logger        log.Logger

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
	closed   bool
}

// New creates a new config watcher plugin with the given configuration.
func New(cfg Config, logger log.Logger) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Plugin{
		path:          filepath.Clean(cfg.Path),
		debounceDelay: cfg.DebounceDelay,
		reload:        cfg.Reload,
		logger:        logger.With(log.Component("configwatcher")),
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Start begins watching. The watch is registered before Start returns.
func (p *Plugin) Start(ctx context.Context) error {
	if p.reload == nil {
		return errors.New("configwatcher: no reload function")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(p.path), err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.closed = false
	p.mu.Unlock()

	p.logger.Info("config watcher started", log.String("path", p.path))

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)
	return nil
}

// Shutdown stops the watcher and waits for its loop to exit. A pending
// reload is dropped.
func (p *Plugin) Shutdown() error {
	p.mu.Lock()
	p.closed = true
	if p.debounce != nil {
		p.debounce.Stop()
	}
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	return nil
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != p.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			p.scheduleReload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("config watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) scheduleReload() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = time.AfterFunc(p.debounceDelay, p.doReload)
}

func (p *Plugin) doReload() {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return
	}

	if err := p.reload(p.path); err != nil {
		p.logger.Warn("config reload failed", log.String("path", p.path), log.Err(err))
		return
	}
	p.logger.Info("config reloaded", log.String("path", p.path))
}
