// Package oauth runs the one-time OAuth 2.0 authorization-code + PKCE
// handshake against X and keeps the resulting bearer token on disk.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/oauth2"

	"clawbot/internal/config"
)

// Flow holds the client registration and file locations for the handshake.
type Flow struct {
	oc           *oauth2.Config
	state        string
	verifierPath string
	tokenPath    string
	httpClient   *http.Client
}

// NewFlow builds a Flow from the social config and the app credentials.
func NewFlow(cfg config.SocialConfig, clientID, clientSecret string) *Flow {
	return &Flow{
		oc: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthorizeURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
			RedirectURL: cfg.RedirectURI,
			Scopes:      cfg.Scopes,
		},
		state:        cfg.State,
		verifierPath: cfg.VerifierPath,
		tokenPath:    cfg.TokenPath,
		httpClient:   &http.Client{Timeout: cfg.Timeout.Duration},
	}
}

// AuthURL returns the authorize URL carrying the S256 challenge for verifier.
func (f *Flow) AuthURL(verifier string) string {
	return f.oc.AuthCodeURL(f.state, oauth2.S256ChallengeOption(verifier))
}

// Begin generates and persists a new verifier and returns the URL the
// operator has to open.
func (f *Flow) Begin() (string, error) {
	verifier, err := NewVerifier()
	if err != nil {
		return "", fmt.Errorf("generating verifier: %w", err)
	}
	if err := SaveVerifier(f.verifierPath, verifier); err != nil {
		return "", err
	}
	slog.Info("pkce verifier saved", "path", f.verifierPath)
	return f.AuthURL(verifier), nil
}

// Exchange trades an authorization code for a token. client_id goes in the
// form body as well as in the Basic auth header.
func (f *Flow) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
	tok, err := f.oc.Exchange(ctx, code,
		oauth2.VerifierOption(verifier),
		oauth2.SetAuthURLParam("client_id", f.oc.ClientID),
	)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return nil, &ExchangeError{StatusCode: re.Response.StatusCode, Body: string(re.Body)}
		}
		return nil, fmt.Errorf("exchanging code: %w", err)
	}
	return tok, nil
}

// Complete loads the saved verifier, exchanges code and saves the token.
func (f *Flow) Complete(ctx context.Context, code string) (*oauth2.Token, error) {
	verifier, err := LoadVerifier(f.verifierPath)
	if err != nil {
		return nil, err
	}
	tok, err := f.Exchange(ctx, code, verifier)
	if err != nil {
		return nil, err
	}
	if err := SaveToken(f.tokenPath, tok); err != nil {
		return nil, err
	}
	slog.Info("token saved", "path", f.tokenPath)
	return tok, nil
}

// ExchangeError is a non-200 answer from the token endpoint.
type ExchangeError struct {
	StatusCode int
	Body       string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("token endpoint returned %d: %s", e.StatusCode, e.Body)
}

// TokenSource returns a source that starts from the saved token and refreshes
// it through the token endpoint once it expires. Refreshed tokens are written
// back to the token file. Tokens without an expiry are never refreshed.
func (f *Flow) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok, err := LoadToken(f.tokenPath)
	if err != nil {
		return nil, err
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
	return &persistingSource{
		src:  f.oc.TokenSource(ctx, tok),
		path: f.tokenPath,
		last: tok.AccessToken,
	}, nil
}

type persistingSource struct {
	mu   sync.Mutex
	src  oauth2.TokenSource
	path string
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := SaveToken(s.path, tok); err != nil {
			slog.Warn("failed to persist refreshed token", "error", err)
		} else {
			slog.Info("token refreshed", "path", s.path, "expiry", tok.Expiry)
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}
