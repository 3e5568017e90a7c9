package league_api_client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/clients"
	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/models"
)

// ErrDraftOrderUnavailable is returned when /draft-order answers with an error object
var ErrDraftOrderUnavailable = errors.New("draft order not available")

type errorResponse struct {
	Error string `json:"error"`
}

func (c *LeagueApiClient) GetRaceStatus(ctx context.Context) (*models.RaceStatus, error) {
	status, err := clients.FetchJSON[models.RaceStatus](ctx, c.BaseClient, DraftRaceStatusEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get race status: %w", err)
	}
	return &status, nil
}

// GetDraftOrder returns the order sorted by position. An {"error": ...} body
// yields ErrDraftOrderUnavailable.
func (c *LeagueApiClient) GetDraftOrder(ctx context.Context) (models.DraftOrder, error) {
	body, err := c.Get(ctx, DraftOrderEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get draft order: %w", err)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var response errorResponse
		if err := json.Unmarshal(trimmed, &response); err != nil {
			return nil, &clients.DecodeError{Endpoint: DraftOrderEndpoint, Err: err}
		}
		return nil, fmt.Errorf("%w: %s", ErrDraftOrderUnavailable, response.Error)
	}

	var order models.DraftOrder
	if err := json.Unmarshal(trimmed, &order); err != nil {
		return nil, &clients.DecodeError{Endpoint: DraftOrderEndpoint, Err: err}
	}

	normalized, err := order.Normalize()
	if err != nil {
		return nil, fmt.Errorf("backend returned a bad draft order: %w", err)
	}
	return normalized, nil
}
