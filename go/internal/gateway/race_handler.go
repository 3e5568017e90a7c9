package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/draftrace"
)

// RaceController is the race the gateway exposes
type RaceController interface {
	Snapshot(ctx context.Context) (draftrace.Snapshot, error)
	Start(ctx context.Context) error
	RetryReveal(ctx context.Context) error
	Subscribe(ctx context.Context) (<-chan draftrace.Snapshot, func(), error)
}

// RaceHandler serves the race over HTTP and WebSocket
type RaceHandler struct {
	race              RaceController
	connectionManager *ConnectionManager
	clock             clockwork.Clock
}

func NewRaceHandler(race RaceController, clock clockwork.Clock) *RaceHandler {
	return &RaceHandler{race: race, clock: clock}
}

// HandleGetRace handles GET /api/race
func (h *RaceHandler) HandleGetRace(w http.ResponseWriter, r *http.Request) {
	snap, err := h.race.Snapshot(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to get race snapshot")
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleStartRace handles POST /api/race/start
func (h *RaceHandler) HandleStartRace(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, ActionStart)
}

// HandleRetryReveal handles POST /api/race/retry
func (h *RaceHandler) HandleRetryReveal(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, ActionRetry)
}

func (h *RaceHandler) runAction(w http.ResponseWriter, r *http.Request, action ClientAction) {
	if err := h.do(r.Context(), action); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	snap, err := h.race.Snapshot(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, snap)
}

// HandleRaceConnection handles GET /ws/race
func (h *RaceHandler) HandleRaceConnection(w http.ResponseWriter, r *http.Request) {
	viewer := r.URL.Query().Get("viewer")
	if viewer == "" {
		viewer = "anonymous"
	}

	var initial *Message
	if snap, err := h.race.Snapshot(r.Context()); err == nil {
		initial, _ = NewMessage(MessageTypeSnapshot, snap, h.clock.Now())
	}

	if err := h.connectionManager.UpgradeConnection(w, r, viewer, initial); err != nil {
		// the upgrader has already written the HTTP error
		log.Error().Err(err).Str("viewer", viewer).Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats handles GET /ws/stats
func (h *RaceHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.connectionManager.GetConnectionStats())
}

// HandleAction runs an action received over a socket and answers with the
// resulting snapshot
func (h *RaceHandler) HandleAction(ctx context.Context, action ClientAction) (*Message, error) {
	if err := h.do(ctx, action); err != nil {
		return nil, err
	}
	snap, err := h.race.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return NewMessage(MessageTypeSnapshot, snap, h.clock.Now())
}

func (h *RaceHandler) do(ctx context.Context, action ClientAction) error {
	switch action {
	case ActionStart:
		return h.race.Start(ctx)
	case ActionRetry:
		return h.race.RetryReveal(ctx)
	case ActionResync:
		return nil
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

// RegisterRoutes registers race routes
func (h *RaceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/race", h.HandleGetRace)
	r.Post("/api/race/start", h.HandleStartRace)
	r.Post("/api/race/retry", h.HandleRetryReveal)
	r.Get("/ws/race", h.HandleRaceConnection)
	r.Get("/ws/stats", h.HandleConnectionStats)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, draftrace.ErrRaceLocked),
		errors.Is(err, draftrace.ErrNotReady),
		errors.Is(err, draftrace.ErrAlreadyRacing),
		errors.Is(err, draftrace.ErrNoRevealError):
		return http.StatusConflict
	case errors.Is(err, draftrace.ErrStatusUnknown),
		errors.Is(err, draftrace.ErrControllerStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorPayload{Error: err.Error()})
}
