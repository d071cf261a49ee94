// Package oracles is a client for the oracles.run agent API: market listing
// and HMAC-signed forecast submission.
package oracles

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
)

const (
	// DefaultBaseURL is the base URL of the oracles.run edge functions.
	DefaultBaseURL = "https://sjtxbkmmicwmkqrmyqln.supabase.co/functions/v1"

	maxRationale     = 2000
	maxEchoRationale = 200
)

// Client talks to the market API on behalf of one agent.
type Client struct {
	httpClient *http.Client
	baseURL    string
	agentID    string
	apiKey     string
}

// NewClient creates a market API client. A nil httpClient means
// http.DefaultClient.
func NewClient(httpClient *http.Client, agentID, apiKey string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    DefaultBaseURL,
		agentID:    agentID,
		apiKey:     apiKey,
	}
}

// WithBaseURL sets a custom base URL for the client.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// ListMarkets fetches markets in the given status.
func (c *Client) ListMarkets(ctx context.Context, status string, limit int) ([]Market, error) {
	q := url.Values{}
	q.Set("status", status)
	q.Set("limit", strconv.Itoa(limit))
	u := c.baseURL + "/list-markets?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var markets []Market
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return markets, nil
}

// SubmitForecast signs and posts one forecast.
func (c *Client) SubmitForecast(ctx context.Context, f Forecast) (*Submission, error) {
	body := forecastBody{
		MarketSlug:      f.MarketSlug,
		PYes:            round4(f.PYes),
		Confidence:      round4(f.Confidence),
		StakeUnits:      f.StakeUnits,
		Rationale:       truncate(f.Rationale, maxRationale),
		SelectedOutcome: f.SelectedOutcome,
	}
	payload, err := compactJSON(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/agent-forecast", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Agent-Id", c.agentID)
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("X-Signature", Sign(c.apiKey, payload))

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var sub Submission
	if len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, &sub); err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
	}
	sub.Submitted = Submitted{
		MarketSlug:      f.MarketSlug,
		PYes:            f.PYes,
		Confidence:      f.Confidence,
		SelectedOutcome: f.SelectedOutcome,
		Rationale:       truncate(f.Rationale, maxEchoRationale),
	}
	return &sub, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// truncate cuts s to at most n characters, counting runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
