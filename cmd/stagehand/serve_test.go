package main

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/stagehand/internal/config"
	"github.com/bft-labs/stagehand/internal/metrics"
	"github.com/bft-labs/stagehand/internal/places"
	"github.com/bft-labs/stagehand/pkg/app"
	"github.com/bft-labs/stagehand/pkg/httpserver"
	"github.com/bft-labs/stagehand/pkg/lifecycle"
	"github.com/bft-labs/stagehand/pkg/log"
)

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestSampleModule(t *testing.T) {
	m := metrics.New()
	srv := httpserver.New(httpserver.Config{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second}, nil)
	srv.Use(m.Middleware)

	lc, err := app.Build(app.Service(
		sampleModule(srv, m),
		places.Module(srv, places.NewMemoryRepository()),
		httpserver.Module(srv),
	), app.WithEventEmitter(m))
	require.NoError(t, err)
	require.NoError(t, lc.Start())
	base := "http://" + srv.Addr()

	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", body(t, resp))

	resp, err = http.Post(base+"/places", "application/json",
		strings.NewReader(`{"name":"paris","longitude":2.35,"latitude":48.85}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body(t, resp)

	resp, err = http.Get(base + "/stats")
	require.NoError(t, err)
	assert.Equal(t, "requests: 2\n", body(t, resp))

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	assert.Contains(t, body(t, resp), "stagehand_lifecycle_stage")

	resp, err = http.Post(base+"/quit", "text/plain", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	body(t, resp)

	select {
	case <-lc.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("lifecycle did not stop after /quit")
	}
	assert.Equal(t, lifecycle.StageTerminated, lc.Stage())
	assert.False(t, srv.IsRunning())
}

func TestServeModules(t *testing.T) {
	logger := log.NewZerologAdapter()

	cfg := config.DefaultConfig()
	modules, err := serveModules(cfg, "", logger, metrics.New())
	require.NoError(t, err)
	assert.Len(t, modules, 3)

	cfg.DatabasePath = filepath.Join(t.TempDir(), "places.db")
	modules, err = serveModules(cfg, "", logger, metrics.New())
	require.NoError(t, err)
	assert.Len(t, modules, 4)

	cfg.Watch = true
	_, err = serveModules(cfg, "", logger, metrics.New())
	assert.Error(t, err)

	modules, err = serveModules(cfg, filepath.Join(t.TempDir(), "config.toml"), logger, metrics.New())
	require.NoError(t, err)
	assert.Len(t, modules, 5)
}
