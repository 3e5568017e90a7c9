package draftrace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSnapshots struct {
	phase Phase
	err   error
}

func (s stubSnapshots) Snapshot(context.Context) (Snapshot, error) {
	return Snapshot{Phase: s.phase}, s.err
}

type stubConnection bool

func (c stubConnection) Connected() bool { return bool(c) }

func healthFixture(t *testing.T) (*Poller, *clockwork.FakeClock) {
	t.Helper()
	status := lockedStatus
	source := &fakeStatusSource{statuses: []statusResult{{status: &status}}}
	fc := clockwork.NewFakeClock()
	return NewPoller(source, &recordingSink{}, fc, time.Second), fc
}

func TestHealthChecker_Check(t *testing.T) {
	poller, fc := healthFixture(t)
	checker := NewHealthChecker(poller, stubSnapshots{phase: PhaseLocked}, stubConnection(true), fc, 10*time.Second)

	status := checker.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.Contains(t, status.Errors, "no race status received yet")

	poller.PollOnce(context.Background())
	status = checker.Check(context.Background())
	assert.True(t, status.Healthy, status.Errors)
	assert.Equal(t, PhaseLocked, status.Phase)
	assert.EqualValues(t, 1, status.Poller.Polls)
	assert.True(t, status.Poller.StatusKnown)

	fc.Advance(11 * time.Second)
	status = checker.Check(context.Background())
	assert.False(t, status.Healthy)
	require.Len(t, status.Errors, 1)
	assert.Contains(t, status.Errors[0], "no successful status poll for 11s")
}

func TestHealthChecker_PublisherAndController(t *testing.T) {
	poller, fc := healthFixture(t)
	poller.PollOnce(context.Background())

	checker := NewHealthChecker(poller, stubSnapshots{err: ErrControllerStopped}, stubConnection(false), fc, time.Minute)
	status := checker.Check(context.Background())

	assert.False(t, status.Healthy)
	assert.False(t, status.PublisherConnected)
	assert.Len(t, status.Errors, 2)
}

func TestHealthChecker_ServeHTTP(t *testing.T) {
	poller, fc := healthFixture(t)
	checker := NewHealthChecker(poller, stubSnapshots{phase: PhaseReady}, nil, fc, time.Minute)

	rec := httptest.NewRecorder()
	checker.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/race", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	poller.PollOnce(context.Background())
	rec = httptest.NewRecorder()
	checker.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/race", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Healthy)
	assert.Equal(t, PhaseReady, status.Phase)
}
