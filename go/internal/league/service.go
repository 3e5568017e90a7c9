package league

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/clients"
	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/models"
)

// TokenHeader carries the commissioner session token
const TokenHeader = "X-Commissioner-Token"

// LeagueApp defines what the service layer needs from the league application
type LeagueApp interface {
	LoadPage(ctx context.Context) (*Page, error)
	Login(pin string) (string, error)
	Logout(token string)
	UpdateTeam(ctx context.Context, token string, index int, update models.TeamUpdate) (*models.Team, error)
	TogglePaid(ctx context.Context, token string, index int) (*models.Team, error)
	GetSwapInterest(ctx context.Context) (models.SwapInterest, error)
	SetSwapInterest(ctx context.Context, req models.SwapInterestRequest) error
}

// Service serves the league pages as JSON
type Service struct {
	app LeagueApp
}

func NewService(app LeagueApp) *Service {
	return &Service{app: app}
}

// RegisterRoutes registers the league routes
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Get("/api/league", s.HandleGetPage)
	r.Get("/api/swap-interest", s.HandleGetSwapInterest)
	r.Post("/api/swap-interest", s.HandleSetSwapInterest)
	r.Post("/api/commissioner/login", s.HandleLogin)
	r.Post("/api/commissioner/logout", s.HandleLogout)
	r.Put("/api/admin/teams/{index}", s.HandleUpdateTeam)
	r.Post("/api/admin/teams/{index}/paid", s.HandleTogglePaid)
}

// HandleGetPage handles GET /api/league
func (s *Service) HandleGetPage(w http.ResponseWriter, r *http.Request) {
	page, err := s.app.LoadPage(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleGetSwapInterest handles GET /api/swap-interest
func (s *Service) HandleGetSwapInterest(w http.ResponseWriter, r *http.Request) {
	interest, err := s.app.GetSwapInterest(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, interest)
}

// HandleSetSwapInterest handles POST /api/swap-interest
func (s *Service) HandleSetSwapInterest(w http.ResponseWriter, r *http.Request) {
	var req models.SwapInterestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.app.SetSwapInterest(r.Context(), req); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleLogin handles POST /api/commissioner/login
func (s *Service) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	token, err := s.app.Login(strings.TrimSpace(req.PIN))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, CommissionerMode: true})
}

// HandleLogout handles POST /api/commissioner/logout
func (s *Service) HandleLogout(w http.ResponseWriter, r *http.Request) {
	s.app.Logout(r.Header.Get(TokenHeader))
	w.WriteHeader(http.StatusNoContent)
}

// HandleUpdateTeam handles PUT /api/admin/teams/{index}
func (s *Service) HandleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	index, ok := teamIndex(w, r)
	if !ok {
		return
	}
	var update models.TeamUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	team, err := s.app.UpdateTeam(r.Context(), r.Header.Get(TokenHeader), index, update)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, models.TeamUpdateResponse{Team: team})
}

// HandleTogglePaid handles POST /api/admin/teams/{index}/paid
func (s *Service) HandleTogglePaid(w http.ResponseWriter, r *http.Request) {
	index, ok := teamIndex(w, r)
	if !ok {
		return
	}
	team, err := s.app.TogglePaid(r.Context(), r.Header.Get(TokenHeader), index)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, PaidToggleResponse{Team: *team})
}

func teamIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("team index must be a number"))
		return 0, false
	}
	return index, true
}

func statusFor(err error) int {
	var httpErr *clients.HTTPError
	switch {
	case errors.Is(err, ErrInvalidPIN), errors.Is(err, ErrNotCommissioner):
		return http.StatusUnauthorized
	case errors.Is(err, ErrCommissionerDisabled):
		return http.StatusForbidden
	case errors.Is(err, ErrTeamNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrOwnerRequired), errors.Is(err, ErrEmptyUpdate):
		return http.StatusBadRequest
	case errors.As(err, &httpErr) && httpErr.StatusCode < http.StatusInternalServerError:
		return httpErr.StatusCode
	case clients.IsAsleep(err):
		return http.StatusBadGateway
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
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
