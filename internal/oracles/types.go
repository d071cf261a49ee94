package oracles

import "fmt"

// Market is one entry of the list-markets response. Only the fields the
// bot selects on are decoded.
type Market struct {
	Slug               string    `json:"slug"`
	Title              string    `json:"title,omitempty"`
	Status             string    `json:"status,omitempty"`
	PolymarketOutcomes []Outcome `json:"polymarket_outcomes,omitempty"`
}

// Outcome is a sub-question of a mirrored Polymarket event.
type Outcome struct {
	Question string `json:"question"`
}

// Forecast is what the caller wants to submit. Values are normalised by
// SubmitForecast before signing.
type Forecast struct {
	MarketSlug      string
	PYes            float64
	Confidence      float64
	Rationale       string
	SelectedOutcome string
	StakeUnits      int
}

// forecastBody is the signed wire body. Field order is part of the
// signature and must not change.
type forecastBody struct {
	MarketSlug      string  `json:"market_slug"`
	PYes            float64 `json:"p_yes"`
	Confidence      float64 `json:"confidence"`
	StakeUnits      int     `json:"stake_units"`
	Rationale       string  `json:"rationale"`
	SelectedOutcome string  `json:"selected_outcome,omitempty"`
}

// Submission is the agent-forecast response plus an echo of what was sent.
type Submission struct {
	ForecastID string    `json:"forecast_id"`
	Status     string    `json:"status,omitempty"`
	BrierScore *float64  `json:"brier_score,omitempty"`
	Submitted  Submitted `json:"-"`
}

// Submitted records the request a Submission answers.
type Submitted struct {
	MarketSlug      string  `json:"market_slug"`
	PYes            float64 `json:"p_yes"`
	Confidence      float64 `json:"confidence"`
	SelectedOutcome string  `json:"selected_outcome,omitempty"`
	Rationale       string  `json:"rationale"`
}

// APIError is a non-2xx answer from the market API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}
