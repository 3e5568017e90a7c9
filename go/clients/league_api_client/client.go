package league_api_client

import (
	"time"

	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/clients"
)

// LeagueApiClient reads the league backend. Static endpoints go through a
// response cache; live endpoints such as the race status never do.
type LeagueApiClient struct {
	*clients.BaseClient
	static *clients.BaseClient
}

// NewLeagueApiClient builds the client. A zero cacheTTL disables the static
// response cache.
func NewLeagueApiClient(baseURL string, cacheTTL time.Duration, opts ...clients.Option) *LeagueApiClient {
	client := &LeagueApiClient{
		BaseClient: clients.NewBaseClient(baseURL, opts...),
	}
	client.static = client.BaseClient

	if cacheTTL > 0 {
		staticOpts := append(append([]clients.Option{}, opts...), clients.WithHTTPClient(NewCachedHTTPClient(cacheTTL)))
		client.static = clients.NewBaseClient(baseURL, staticOpts...)
	}

	for _, c := range []*clients.BaseClient{client.BaseClient, client.static} {
		c.SetHeader(AcceptHeader, JsonContentType)
		c.SetHeader(UserAgentHeader, UserAgent)
	}

	return client
}
