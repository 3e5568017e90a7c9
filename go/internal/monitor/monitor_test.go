package monitor

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/clients"
)

type pingResult struct {
	latency time.Duration
	err     error
}

type fakeBackend struct {
	mu      sync.Mutex
	results map[string]pingResult
	pings   []string
	wakes   int
	awake   bool
}

func (f *fakeBackend) Ping(_ context.Context, endpoint string, _ time.Duration) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings = append(f.pings, endpoint)
	r := f.results[endpoint]
	return r.latency, r.err
}

func (f *fakeBackend) Wake(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wakes++
	f.awake = true
	return true
}

func (f *fakeBackend) IsAwake(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.awake
}

func (f *fakeBackend) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pings), f.wakes
}

var endpoints = []string{"/", "/league", "/teams"}

func testConfig() Config {
	return Config{
		Endpoints:     endpoints,
		Timeout:       time.Second,
		WatchInterval: 5 * time.Minute,
		DraftInterval: 2 * time.Minute,
	}
}

func asleep() pingResult {
	return pingResult{err: &clients.NetworkError{Endpoint: "/", Err: errors.New("connection refused")}}
}

func TestMonitor_Sweep(t *testing.T) {
	backend := &fakeBackend{results: map[string]pingResult{
		"/":       {latency: 100 * time.Millisecond},
		"/league": {latency: 300 * time.Millisecond},
		"/teams":  {err: &clients.HTTPError{Endpoint: "/teams", StatusCode: http.StatusServiceUnavailable}},
	}}
	m := NewMonitor(backend, clockwork.NewFakeClock(), testConfig())

	report, err := m.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Healthy)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 200*time.Millisecond, report.MeanLatency)
	require.Len(t, report.Results, 3)
	assert.Equal(t, StatusWarning, report.Results[2].Status)
	assert.Equal(t, http.StatusServiceUnavailable, report.Results[2].Code)
	assert.False(t, report.AllFailed())
	assert.Equal(t, endpoints, backend.pings)
}

func TestMonitor_SweepWaitsBetweenRequests(t *testing.T) {
	backend := &fakeBackend{results: map[string]pingResult{}}
	fc := clockwork.NewFakeClock()
	cfg := testConfig()
	cfg.RequestGap = 500 * time.Millisecond
	m := NewMonitor(backend, fc, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan Report, 1)
	go func() {
		report, _ := m.Sweep(ctx)
		done <- report
	}()

	for want := 2; want <= 3; want++ {
		require.NoError(t, fc.BlockUntilContext(ctx, 1))
		pings, _ := backend.counts()
		assert.Equal(t, want-1, pings)
		fc.Advance(cfg.RequestGap)
	}

	report := <-done
	assert.Equal(t, 3, report.Healthy)
}

func TestMonitor_SweepNoHealthyEndpoints(t *testing.T) {
	backend := &fakeBackend{results: map[string]pingResult{
		"/": asleep(), "/league": asleep(), "/teams": asleep(),
	}}
	m := NewMonitor(backend, clockwork.NewFakeClock(), testConfig())

	report, err := m.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Healthy)
	assert.Zero(t, report.MeanLatency)
	assert.True(t, report.AllFailed())
}

func TestMonitor_RunOnceWakesSleepingBackend(t *testing.T) {
	backend := &fakeBackend{results: map[string]pingResult{
		"/": asleep(), "/league": asleep(), "/teams": asleep(),
	}}
	m := NewMonitor(backend, clockwork.NewFakeClock(), testConfig())

	var reports []Report
	require.NoError(t, m.Run(context.Background(), ModeOnce, func(r Report) { reports = append(reports, r) }))

	require.Len(t, reports, 1)
	_, wakes := backend.counts()
	assert.Equal(t, 1, wakes)
}

func TestMonitor_RunWarningsDoNotWake(t *testing.T) {
	backend := &fakeBackend{results: map[string]pingResult{
		"/":       asleep(),
		"/league": {err: &clients.HTTPError{StatusCode: http.StatusInternalServerError}},
		"/teams":  asleep(),
	}}
	m := NewMonitor(backend, clockwork.NewFakeClock(), testConfig())

	require.NoError(t, m.Run(context.Background(), ModeOnce, nil))
	_, wakes := backend.counts()
	assert.Zero(t, wakes)
}

func TestMonitor_RunDraftModeSweepsOnInterval(t *testing.T) {
	backend := &fakeBackend{results: map[string]pingResult{}}
	fc := clockwork.NewFakeClock()
	m := NewMonitor(backend, fc, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	sweeps := 0
	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx, ModeDraft, func(Report) {
			mu.Lock()
			sweeps++
			mu.Unlock()
		})
	}()

	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	require.NoError(t, fc.BlockUntilContext(waitCtx, 1))

	fc.Advance(2 * time.Minute)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return sweeps == 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestMonitor_Interval(t *testing.T) {
	m := NewMonitor(&fakeBackend{}, clockwork.NewFakeClock(), testConfig())

	tests := []struct {
		mode    Mode
		want    time.Duration
		wantErr bool
	}{
		{ModeOnce, 0, false},
		{ModeWatch, 5 * time.Minute, false},
		{ModeDraft, 2 * time.Minute, false},
		{Mode("hourly"), 0, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			got, err := m.Interval(tt.mode)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
