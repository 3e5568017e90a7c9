package league

import (
	"errors"

	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/models"
)

var (
	ErrCommissionerDisabled = errors.New("commissioner mode is not configured")
	ErrInvalidPIN           = errors.New("invalid commissioner PIN")
	ErrNotCommissioner      = errors.New("commissioner mode required")
	ErrTeamNotFound         = errors.New("team not found")
	ErrOwnerRequired        = errors.New("owner is required")
	ErrEmptyUpdate          = errors.New("team update has no fields")
)

// Page sections, used as keys of Page.Errors
const (
	SectionLeague  = "league"
	SectionTeams   = "teams"
	SectionPayment = "payment"
	SectionDraft   = "draft"
)

// Page is everything the league home page shows. A section that failed to
// load is nil and its error is listed in Errors.
type Page struct {
	League        *models.League    `json:"league,omitempty"`
	Teams         []models.Team     `json:"teams"`
	Payment       *models.Payment   `json:"payment,omitempty"`
	Draft         *models.DraftInfo `json:"draft,omitempty"`
	DraftStartsIn string            `json:"draft_starts_in,omitempty"`
	PaidCount     int               `json:"paid_count"`
	Errors        map[string]string `json:"errors,omitempty"`
}

// LoginRequest is the body of POST /api/commissioner/login
type LoginRequest struct {
	PIN string `json:"pin"`
}

// LoginResponse carries the token admin requests must present
type LoginResponse struct {
	Token            string `json:"token"`
	CommissionerMode bool   `json:"commissioner_mode"`
}

// PaidToggleResponse is returned by the paid toggle
type PaidToggleResponse struct {
	Team models.Team `json:"team"`
}
