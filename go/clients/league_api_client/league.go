package league_api_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/clients"
	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/models"
)

func (c *LeagueApiClient) GetLeague(ctx context.Context) (*models.League, error) {
	league, err := clients.FetchJSON[models.League](ctx, c.static, LeagueEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}
	return &league, nil
}

func (c *LeagueApiClient) GetPayment(ctx context.Context) (*models.Payment, error) {
	payment, err := clients.FetchJSON[models.Payment](ctx, c.static, PaymentEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment info: %w", err)
	}
	return &payment, nil
}

func (c *LeagueApiClient) GetDraftInfo(ctx context.Context) (*models.DraftInfo, error) {
	draft, err := clients.FetchJSON[models.DraftInfo](ctx, c.static, DraftEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get draft info: %w", err)
	}
	return &draft, nil
}

// GetTeams accepts both the {"teams": [...]} envelope and a bare array
func (c *LeagueApiClient) GetTeams(ctx context.Context) ([]models.Team, error) {
	body, err := c.Get(ctx, TeamsEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get teams: %w", err)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var teams []models.Team
		if err := json.Unmarshal(trimmed, &teams); err != nil {
			return nil, &clients.DecodeError{Endpoint: TeamsEndpoint, Err: err}
		}
		return teams, nil
	}

	var response models.TeamsResponse
	if err := json.Unmarshal(trimmed, &response); err != nil {
		return nil, &clients.DecodeError{Endpoint: TeamsEndpoint, Err: err}
	}
	return response.Teams, nil
}

func (c *LeagueApiClient) GetSwapInterest(ctx context.Context) (models.SwapInterest, error) {
	interest, err := clients.FetchJSON[models.SwapInterest](ctx, c.BaseClient, SwapInterestEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get swap interest: %w", err)
	}
	return interest, nil
}

func (c *LeagueApiClient) SetSwapInterest(ctx context.Context, req models.SwapInterestRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal swap interest: %w", err)
	}
	if _, err := c.Post(ctx, SwapInterestEndpoint, bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("failed to set swap interest for %s: %w", req.Owner, err)
	}
	return nil
}
