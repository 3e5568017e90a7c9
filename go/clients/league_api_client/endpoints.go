package league_api_client

const (
	// API Endpoints
	LeagueEndpoint          = "/league"
	TeamsEndpoint           = "/teams"
	PaymentEndpoint         = "/payment"
	DraftEndpoint           = "/draft"
	DraftOrderEndpoint      = "/draft-order"
	DraftRaceStatusEndpoint = "/draft-race-status"
	SwapInterestEndpoint    = "/swap-interest"
	UpdateTeamEndpoint      = "/admin/update-team/%d"

	// Headers
	AcceptHeader    = "Accept"
	JsonContentType = "application/json"
	UserAgentHeader = "User-Agent"
	UserAgent       = "road2royalty-frontend/1.0"
)

// StaticEndpoints change rarely and are served through the response cache
var StaticEndpoints = []string{LeagueEndpoint, PaymentEndpoint, DraftEndpoint}

// HealthEndpoints are swept by the backend monitor
var HealthEndpoints = []string{"/", LeagueEndpoint, TeamsEndpoint, PaymentEndpoint, DraftRaceStatusEndpoint}
