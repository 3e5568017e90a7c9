package draftrace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type HealthStatus struct {
	Healthy            bool        `json:"healthy"`
	Phase              Phase       `json:"phase,omitempty"`
	Poller             PollerStats `json:"poller"`
	PublisherConnected bool        `json:"publisher_connected"`
	Errors             []string    `json:"errors"`
}

// SnapshotSource is the part of the controller the health check reads
type SnapshotSource interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// ConnectionReporter is implemented by publishers with a broker connection
type ConnectionReporter interface {
	Connected() bool
}

type HealthChecker struct {
	poller     *Poller
	controller SnapshotSource
	publisher  ConnectionReporter
	clock      clockwork.Clock
	threshold  time.Duration // How long without a successful poll before unhealthy
}

func NewHealthChecker(poller *Poller, controller SnapshotSource, publisher ConnectionReporter, clock clockwork.Clock, threshold time.Duration) *HealthChecker {
	return &HealthChecker{
		poller:     poller,
		controller: controller,
		publisher:  publisher,
		clock:      clock,
		threshold:  threshold,
	}
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy:            true,
		Poller:             h.poller.Stats(),
		PublisherConnected: true,
		Errors:             []string{},
	}

	snap, err := h.controller.Snapshot(ctx)
	if err != nil {
		status.Healthy = false
		status.Errors = append(status.Errors, fmt.Sprintf("race controller unavailable: %v", err))
	} else {
		status.Phase = snap.Phase
	}

	if h.publisher != nil && !h.publisher.Connected() {
		status.PublisherConnected = false
		status.Healthy = false
		status.Errors = append(status.Errors, "event publisher disconnected")
	}

	if !status.Poller.StatusKnown {
		status.Healthy = false
		status.Errors = append(status.Errors, "no race status received yet")
	} else if since := h.clock.Since(status.Poller.LastSuccessAt); since > h.threshold {
		status.Healthy = false
		status.Errors = append(status.Errors, fmt.Sprintf("no successful status poll for %s", since.Round(time.Second)))
	}

	return status
}

// ServeHTTP answers 503 when the race is unhealthy
func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to write race health response")
	}
}
