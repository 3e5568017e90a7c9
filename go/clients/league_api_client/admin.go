package league_api_client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/clients"
	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/models"
)

// ErrEmptyUpdate is returned when a team update carries no fields
var ErrEmptyUpdate = errors.New("team update has no fields")

// UpdateTeam sends a partial team edit and returns the backend's view of the team
func (c *LeagueApiClient) UpdateTeam(ctx context.Context, index int, update models.TeamUpdate) (*models.Team, error) {
	if update.IsEmpty() {
		return nil, ErrEmptyUpdate
	}
	endpoint := fmt.Sprintf(UpdateTeamEndpoint, index)
	response, err := clients.SendJSON[models.TeamUpdateResponse](ctx, c.BaseClient, http.MethodPut, endpoint, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update team %d: %w", index, err)
	}
	if response.Team == nil {
		return nil, &clients.DecodeError{Endpoint: endpoint, Err: errors.New("response has no team")}
	}
	return response.Team, nil
}
