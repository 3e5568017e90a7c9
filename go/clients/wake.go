package clients

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// RootEndpoint is the lightweight endpoint used to wake the backend
const RootEndpoint = "/"

// Wake proactively hits the backend root so a cold start is absorbed before
// any feature fetch. It goes through the normal wake/retry cycle.
func (c *BaseClient) Wake(ctx context.Context) bool {
	log.Info().Str("base_url", c.baseURL).Msg("waking up backend service")
	start := c.clock.Now()
	if _, err := c.Get(ctx, RootEndpoint); err != nil {
		log.Error().Err(err).Str("base_url", c.baseURL).Msg("failed to wake up backend")
		return false
	}
	log.Info().Dur("took", c.clock.Since(start)).Msg("backend is awake and ready")
	return true
}

// IsAwake is a quick probe with a short timeout and no retry
func (c *BaseClient) IsAwake(ctx context.Context) bool {
	_, err := c.attempt(ctx, http.MethodGet, RootEndpoint, nil, c.probeTimeout)
	return err == nil
}

// Ping issues a single GET with no retry and reports its latency
func (c *BaseClient) Ping(ctx context.Context, endpoint string, timeout time.Duration) (time.Duration, error) {
	start := c.clock.Now()
	_, err := c.attempt(ctx, http.MethodGet, endpoint, nil, timeout)
	return c.clock.Since(start), err
}
