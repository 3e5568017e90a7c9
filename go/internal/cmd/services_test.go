package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/clients"
	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/clients/league_api_client"
	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/config"
)

// recordingBackend records each request path once its response is ready
type recordingBackend struct {
	rootDelay time.Duration

	mu        sync.Mutex
	completed []string
}

func newRecordingBackend(t *testing.T, rootDelay time.Duration) (*recordingBackend, *httptest.Server) {
	t.Helper()
	b := &recordingBackend{rootDelay: rootDelay}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case clients.RootEndpoint:
			time.Sleep(b.rootDelay)
			b.record(r.URL.Path)
			w.Write([]byte(`{"status":"ok"}`))
		case league_api_client.DraftRaceStatusEndpoint:
			b.record(r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"time_locked":true,"draft_completed":false,"time_until_reveal":600,"should_auto_start":false}`))
		default:
			b.record(r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *recordingBackend) record(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.completed = append(b.completed, path)
}

func (b *recordingBackend) paths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.completed...)
}

func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.Backend.Profile = clients.BackendProfileLocal
	cfg.Backend.URLs = map[clients.BackendProfile]string{clients.BackendProfileLocal: baseURL}
	cfg.Backend.WakeOnStart = false
	cfg.Race.PollInterval = 50 * time.Millisecond
	return &cfg
}

func TestServicesRun_WakesBackendBeforeFirstPoll(t *testing.T) {
	backend, srv := newRecordingBackend(t, 300*time.Millisecond)
	cfg := testConfig(srv.URL)
	cfg.Backend.WakeOnStart = true

	ctx, cancel := context.WithCancel(context.Background())
	services, err := setupServices(ctx, cfg)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- services.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
		services.Close()
	})

	require.Eventually(t, func() bool {
		return slices.Contains(backend.paths(), league_api_client.DraftRaceStatusEndpoint)
	}, 5*time.Second, 10*time.Millisecond)

	paths := backend.paths()
	assert.Equal(t, clients.RootEndpoint, paths[0], "completion order %v", paths)
}

func TestServicesRun_PollsImmediatelyWithoutWake(t *testing.T) {
	backend, srv := newRecordingBackend(t, 0)
	cfg := testConfig(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	services, err := setupServices(ctx, cfg)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- services.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
		services.Close()
	})

	require.Eventually(t, func() bool {
		return slices.Contains(backend.paths(), league_api_client.DraftRaceStatusEndpoint)
	}, 5*time.Second, 10*time.Millisecond)
	assert.NotContains(t, backend.paths(), clients.RootEndpoint)
}

func TestInfo_DoesNotCallBackend(t *testing.T) {
	backend, srv := newRecordingBackend(t, 0)
	cfg := testConfig(srv.URL)

	services, err := setupServices(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(services.Close)

	server := setupServer(cfg, services)
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/info", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var info map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, srv.URL, info["backend_url"])
	assert.Contains(t, info, "race_poller")
	assert.Empty(t, backend.paths())
}
