package models

// Prizes holds the payout for the top three finishers
type Prizes struct {
	FirstPlace  int `json:"first_place"`
	SecondPlace int `json:"second_place"`
	ThirdPlace  int `json:"third_place"`
}

// League represents the league overview served by /league
type League struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	BuyIn             int    `json:"buy_in"`
	DraftDeadline     string `json:"draft_deadline"`
	Prizes            Prizes `json:"prizes"`
	ChampionshipPrize string `json:"championship_prize"`
}

// Payment holds the commissioner's payment instructions served by /payment
type Payment struct {
	Commissioner string `json:"commissioner"`
	Venmo        string `json:"venmo"`
	ApplePay     string `json:"apple_pay"`
	Instructions string `json:"instructions"`
}

// SwapInterest maps an owner to whether they want to swap draft positions
type SwapInterest map[string]bool

// SwapInterestRequest is the body posted to /swap-interest
type SwapInterestRequest struct {
	Owner      string `json:"owner"`
	Interested bool   `json:"interested"`
}
