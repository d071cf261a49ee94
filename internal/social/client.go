// Package social posts status updates through the X API v2.
package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	DefaultAPIURL          = "https://api.x.com"
	DefaultStatusURLPrefix = "https://x.com/oraclesrun/status/"
)

// Client posts on behalf of the account owning the bearer token. The
// *http.Client is expected to attach the token, e.g. one built with
// oauth2.NewClient.
type Client struct {
	httpClient      *http.Client
	apiURL          string
	statusURLPrefix string
}

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient:      httpClient,
		apiURL:          DefaultAPIURL,
		statusURLPrefix: DefaultStatusURLPrefix,
	}
}

// WithBaseURL sets a custom API base URL for the client.
func (c *Client) WithBaseURL(apiURL string) *Client {
	c.apiURL = strings.TrimRight(apiURL, "/")
	return c
}

// WithStatusURLPrefix sets the prefix public status links are built from.
func (c *Client) WithStatusURLPrefix(prefix string) *Client {
	c.statusURLPrefix = prefix
	return c
}

// Post is a published status.
type Post struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// APIError is any answer other than 201 Created.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("post failed with status %d: %s", e.StatusCode, e.Body)
}

type createRequest struct {
	Text string `json:"text"`
}

type createResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// Post publishes text.
func (c *Client) Post(ctx context.Context, text string) (*Post, error) {
	payload, err := json.Marshal(createRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("encoding post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/2/tweets", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var created createResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &Post{ID: created.Data.ID, URL: c.StatusURL(created.Data.ID)}, nil
}

// StatusURL is the public link for a status id.
func (c *Client) StatusURL(id string) string {
	return c.statusURLPrefix + id
}
