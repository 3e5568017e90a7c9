package league

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/draftrace"
	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/models"
)

// LeagueRepository defines what the app layer needs from the league backend
type LeagueRepository interface {
	GetLeague(ctx context.Context) (*models.League, error)
	GetTeams(ctx context.Context) ([]models.Team, error)
	GetPayment(ctx context.Context) (*models.Payment, error)
	GetDraftInfo(ctx context.Context) (*models.DraftInfo, error)
	GetSwapInterest(ctx context.Context) (models.SwapInterest, error)
	SetSwapInterest(ctx context.Context, req models.SwapInterestRequest) error
	UpdateTeam(ctx context.Context, index int, update models.TeamUpdate) (*models.Team, error)
}

// App holds the shared league page state: the team list and the
// commissioner sessions. It is only mutated through its methods.
type App struct {
	repo     LeagueRepository
	pin      string
	clock    clockwork.Clock
	location *time.Location

	mu       sync.RWMutex
	teams    []models.Team
	sessions map[string]time.Time
}

// NewApp creates a new league App. An empty pin disables commissioner mode.
func NewApp(repo LeagueRepository, pin string, clock clockwork.Clock, location *time.Location) *App {
	if location == nil {
		location = time.Local
	}
	return &App{
		repo:     repo,
		pin:      pin,
		clock:    clock,
		location: location,
		sessions: make(map[string]time.Time),
	}
}

// LoadPage fetches every section of the home page concurrently. Failed
// sections are reported in Page.Errors; an error is returned only when
// nothing could be loaded.
func (a *App) LoadPage(ctx context.Context) (*Page, error) {
	page := &Page{Errors: make(map[string]string)}
	var (
		mu      sync.Mutex
		lastErr error
	)
	fail := func(section string, err error) {
		log.Warn().Err(err).Str("section", section).Msg("failed to load page section")
		mu.Lock()
		page.Errors[section] = err.Error()
		lastErr = err
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		league, err := a.repo.GetLeague(gctx)
		if err != nil {
			fail(SectionLeague, err)
			return nil
		}
		page.League = league
		return nil
	})
	g.Go(func() error {
		teams, err := a.repo.GetTeams(gctx)
		if err != nil {
			fail(SectionTeams, err)
			return nil
		}
		a.setTeams(teams)
		return nil
	})
	g.Go(func() error {
		payment, err := a.repo.GetPayment(gctx)
		if err != nil {
			fail(SectionPayment, err)
			return nil
		}
		page.Payment = payment
		return nil
	})
	g.Go(func() error {
		draft, err := a.repo.GetDraftInfo(gctx)
		if err != nil {
			fail(SectionDraft, err)
			return nil
		}
		page.Draft = draft
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(page.Errors) == 4 {
		return nil, fmt.Errorf("failed to load league page: %w", lastErr)
	}

	page.Teams = a.Teams()
	for _, team := range page.Teams {
		if team.Paid {
			page.PaidCount++
		}
	}
	if page.Draft != nil {
		page.DraftStartsIn = a.draftCountdown(*page.Draft)
	}
	if len(page.Errors) == 0 {
		page.Errors = nil
	}
	return page, nil
}

func (a *App) draftCountdown(draft models.DraftInfo) string {
	at, err := draft.ScheduledAt(a.location)
	if err != nil {
		log.Debug().Err(err).Msg("draft date not parseable, skipping countdown")
		return ""
	}
	remaining := at.Sub(a.clock.Now())
	if remaining <= 0 {
		return ""
	}
	return draftrace.FormatTimeRemaining(int(remaining / time.Second))
}

// Teams returns a copy of the last loaded team list
func (a *App) Teams() []models.Team {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]models.Team(nil), a.teams...)
}

func (a *App) setTeams(teams []models.Team) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.teams = append([]models.Team(nil), teams...)
}

// Login checks the commissioner PIN and returns a session token
func (a *App) Login(pin string) (string, error) {
	if a.pin == "" {
		return "", ErrCommissionerDisabled
	}
	if subtle.ConstantTimeCompare([]byte(pin), []byte(a.pin)) != 1 {
		log.Warn().Msg("commissioner login rejected")
		return "", ErrInvalidPIN
	}

	token := uuid.NewString()
	a.mu.Lock()
	a.sessions[token] = a.clock.Now()
	a.mu.Unlock()

	log.Info().Msg("commissioner mode enabled")
	return token, nil
}

// Logout ends a commissioner session
func (a *App) Logout(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, token)
}

// IsCommissioner reports whether token belongs to a commissioner session
func (a *App) IsCommissioner(token string) bool {
	if token == "" {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.sessions[token]
	return ok
}

// UpdateTeam applies an admin edit and stores the backend's view of the team
func (a *App) UpdateTeam(ctx context.Context, token string, index int, update models.TeamUpdate) (*models.Team, error) {
	if !a.IsCommissioner(token) {
		return nil, ErrNotCommissioner
	}
	if update.IsEmpty() {
		return nil, ErrEmptyUpdate
	}
	if err := a.checkIndex(index); err != nil {
		return nil, err
	}

	team, err := a.repo.UpdateTeam(ctx, index, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}

	a.mu.Lock()
	if index < len(a.teams) {
		a.teams[index] = *team
	}
	a.mu.Unlock()

	log.Info().Int("index", index).Str("owner", team.Owner).Msg("team updated")
	return team, nil
}

// TogglePaid flips a team's paid flag optimistically. The local list changes
// first; if the backend rejects the change only that team's flag is put
// back, and only while it still holds the optimistic value.
func (a *App) TogglePaid(ctx context.Context, token string, index int) (*models.Team, error) {
	if !a.IsCommissioner(token) {
		return nil, ErrNotCommissioner
	}

	a.mu.Lock()
	if index < 0 || index >= len(a.teams) {
		a.mu.Unlock()
		return nil, fmt.Errorf("%w: index %d", ErrTeamNotFound, index)
	}
	previous := a.teams[index].Paid
	paid := !previous
	a.teams[index].Paid = paid
	a.mu.Unlock()

	team, err := a.repo.UpdateTeam(ctx, index, models.TeamUpdate{Paid: &paid})
	if err != nil {
		a.mu.Lock()
		if index < len(a.teams) && a.teams[index].Paid == paid {
			a.teams[index].Paid = previous
		}
		a.mu.Unlock()
		log.Error().Err(err).Int("index", index).Msg("paid toggle failed, restored previous paid status")
		return nil, fmt.Errorf("failed to update paid status: %w", err)
	}

	a.mu.Lock()
	if index < len(a.teams) {
		a.teams[index] = *team
	}
	a.mu.Unlock()

	log.Info().Int("index", index).Bool("paid", team.Paid).Msg("paid status updated")
	return team, nil
}

func (a *App) checkIndex(index int) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if index < 0 || (a.teams != nil && index >= len(a.teams)) {
		return fmt.Errorf("%w: index %d", ErrTeamNotFound, index)
	}
	return nil
}

// GetSwapInterest returns who wants to swap draft positions
func (a *App) GetSwapInterest(ctx context.Context) (models.SwapInterest, error) {
	return a.repo.GetSwapInterest(ctx)
}

// SetSwapInterest records an owner's swap interest
func (a *App) SetSwapInterest(ctx context.Context, req models.SwapInterestRequest) error {
	req.Owner = strings.TrimSpace(req.Owner)
	if req.Owner == "" {
		return ErrOwnerRequired
	}
	if err := a.repo.SetSwapInterest(ctx, req); err != nil {
		return err
	}
	log.Info().Str("owner", req.Owner).Bool("interested", req.Interested).Msg("swap interest recorded")
	return nil
}

