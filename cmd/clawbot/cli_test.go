package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"clawbot/internal/config"
	"clawbot/internal/oauth"
	"clawbot/internal/oracles"
	"clawbot/internal/report"
)

// useTestConfig points every path into a temp dir and resets CLI globals.
func useTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	c := config.DefaultConfig()
	c.General.LogDir = filepath.Join(dir, "logs")
	c.Oracles.ForecastsPath = filepath.Join(dir, "forecasts.toml")
	c.Social.VerifierPath = filepath.Join(dir, ".pkce_verifier.txt")
	c.Social.TokenPath = filepath.Join(dir, ".tokens.json")
	cfg = c
	secrets = config.Secrets{AgentID: "agent-1", APIKey: "ap_key", ClientID: "cid", ClientSecret: "csecret"}
	postHello = true

	t.Cleanup(func() {
		cfg = nil
		secrets = config.Secrets{}
	})
	return dir
}

func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetContext(context.Background())
	return cmd, &buf
}

func TestAuthURLCmd(t *testing.T) {
	useTestConfig(t)
	cmd, out := newTestCmd()

	if err := runAuthURL(cmd, nil); err != nil {
		t.Fatalf("runAuthURL failed: %v", err)
	}

	verifier, err := oauth.LoadVerifier(cfg.Social.VerifierPath)
	if err != nil {
		t.Fatal(err)
	}

	var authURL string
	for _, line := range strings.Split(out.String(), "\n") {
		if strings.HasPrefix(line, cfg.Social.AuthorizeURL) {
			authURL = line
		}
	}
	if authURL == "" {
		t.Fatalf("no authorization URL printed:\n%s", out)
	}
	u, err := url.Parse(authURL)
	if err != nil {
		t.Fatal(err)
	}
	if u.Query().Get("code_challenge") != oauth.Challenge(verifier) {
		t.Error("printed URL does not carry the saved verifier's challenge")
	}
}

func TestAuthURLCmd_MissingClientID(t *testing.T) {
	useTestConfig(t)
	secrets.ClientID = ""
	cmd, _ := newTestCmd()
	if err := runAuthURL(cmd, nil); err == nil {
		t.Error("expected error without TWITTER_CLIENT_ID")
	}
}

func TestExchangeCmd_SavesTokenAndPostsHello(t *testing.T) {
	useTestConfig(t)

	var gotHello string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2/oauth2/token":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"token_type":"bearer","expires_in":7200,"access_token":"at-123","refresh_token":"rt-123","scope":"tweet.write"}`))
		case "/2/tweets":
			if r.Header.Get("Authorization") != "Bearer at-123" {
				t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
			}
			var body struct{ Text string }
			json.NewDecoder(r.Body).Decode(&body)
			gotHello = body.Text
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"data":{"id":"555"}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	cfg.Social.TokenURL = srv.URL + "/2/oauth2/token"
	cfg.Social.APIURL = srv.URL
	if err := oauth.SaveVerifier(cfg.Social.VerifierPath, "v"); err != nil {
		t.Fatal(err)
	}

	cmd, out := newTestCmd()
	if err := runExchange(cmd, []string{"  the-code \n"}); err != nil {
		t.Fatalf("runExchange failed: %v\n%s", err, out)
	}

	tok, err := oauth.LoadToken(cfg.Social.TokenPath)
	if err != nil {
		t.Fatal(err)
	}
	if tok.AccessToken != "at-123" {
		t.Errorf("saved token = %q", tok.AccessToken)
	}
	if gotHello != helloText {
		t.Errorf("hello post = %q", gotHello)
	}
	if !strings.Contains(out.String(), "https://x.com/oraclesrun/status/555") {
		t.Errorf("expected status link in output:\n%s", out)
	}
}

func TestExchangeCmd_NoVerifier(t *testing.T) {
	useTestConfig(t)
	cmd, _ := newTestCmd()
	err := runExchange(cmd, []string{"code"})
	if err != oauth.ErrNoVerifier {
		t.Errorf("expected ErrNoVerifier, got %v", err)
	}
}

func TestExchangeCmd_Rejected(t *testing.T) {
	useTestConfig(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	cfg.Social.TokenURL = srv.URL
	if err := oauth.SaveVerifier(cfg.Social.VerifierPath, "v"); err != nil {
		t.Fatal(err)
	}

	cmd, out := newTestCmd()
	if err := runExchange(cmd, []string{"code"}); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(out.String(), "❌ Failed: 400") || !strings.Contains(out.String(), "invalid_grant") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(cfg.Social.TokenPath); !os.IsNotExist(err) {
		t.Error("no token file should be written on failure")
	}
}

const testForecasts = `
[[forecast]]
name = "ETH"
slug_contains = "pm-what-price-will-ethereum"
outcome = "Will Ethereum reach $3,200 in February?"
p_yes = 0.65
confidence = 0.70
rationale = "ETH showing strong support above $3k."
stake = 10

[[forecast]]
name = "BTC"
slug_contains = "pm-what-price-will-bitcoin"
p_yes = 0.58
confidence = 0.65
stake = 10

[[forecast]]
name = "Fed"
slug_contains = "pm-fed-decision"
outcome_contains = "no change"
p_yes = 0.78
confidence = 0.72
stake = 10

[[forecast]]
name = "SOL"
slug_contains = "pm-what-price-will-solana"
p_yes = 0.5
confidence = 0.5
`

func TestRunForecast_EndToEnd(t *testing.T) {
	useTestConfig(t)

	var submitted []string
	var posted string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/list-markets":
			w.Write([]byte(`[
				{"slug":"pm-what-price-will-ethereum-hit-in-february"},
				{"slug":"pm-what-price-will-bitcoin-hit-in-february"},
				{"slug":"pm-fed-decision-in-march","polymarket_outcomes":[{"question":"No change in Fed interest rates?"}]}
			]`))
		case "/agent-forecast":
			body, _ := io.ReadAll(r.Body)
			if r.Header.Get("X-Signature") != oracles.Sign("ap_key", body) {
				t.Errorf("bad signature for %s", body)
			}
			var req struct {
				MarketSlug string `json:"market_slug"`
			}
			json.Unmarshal(body, &req)
			submitted = append(submitted, req.MarketSlug)
			if strings.Contains(req.MarketSlug, "bitcoin") {
				w.WriteHeader(http.StatusConflict)
				w.Write([]byte(`{"error":"already forecast"}`))
				return
			}
			w.Write([]byte(`{"forecast_id":"fc-` + req.MarketSlug + `"}`))
		case "/2/tweets":
			if r.Header.Get("Authorization") != "Bearer at-live" {
				t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
			}
			var body struct{ Text string }
			json.NewDecoder(r.Body).Decode(&body)
			posted = body.Text
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"data":{"id":"777"}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	cfg.Oracles.BaseURL = srv.URL
	cfg.Social.APIURL = srv.URL
	if err := os.WriteFile(cfg.Oracles.ForecastsPath, []byte(testForecasts), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := oauth.SaveToken(cfg.Social.TokenPath, &oauth2.Token{AccessToken: "at-live", TokenType: "bearer"}); err != nil {
		t.Fatal(err)
	}

	cmd, out := newTestCmd()
	if err := runForecast(cmd, nil); err != nil {
		t.Fatalf("runForecast failed: %v\n%s", err, out)
	}

	wantOrder := []string{
		"pm-what-price-will-ethereum-hit-in-february",
		"pm-what-price-will-bitcoin-hit-in-february",
		"pm-fed-decision-in-march",
	}
	if strings.Join(submitted, ",") != strings.Join(wantOrder, ",") {
		t.Errorf("submission order = %v", submitted)
	}
	if !strings.Contains(posted, "submitted: 2 markets") || !strings.Contains(posted, "ETH • Fed") {
		t.Errorf("unexpected summary post:\n%s", posted)
	}

	logs, err := filepath.Glob(filepath.Join(cfg.General.LogDir, "forecast_log_*.json"))
	if err != nil || len(logs) != 1 {
		t.Fatalf("expected one run log, got %v (%v)", logs, err)
	}
	data, err := os.ReadFile(logs[0])
	if err != nil {
		t.Fatal(err)
	}
	var res report.BatchResult
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatal(err)
	}
	if res.Summary != (report.Summary{Total: 3, Successful: 2, PostPublished: true}) {
		t.Errorf("unexpected logged summary %+v", res.Summary)
	}
	if res.Post.URL != "https://x.com/oraclesrun/status/777" {
		t.Errorf("unexpected post url %q", res.Post.URL)
	}
	if !strings.Contains(out.String(), "✅ Forecasts: 2/3") {
		t.Errorf("report not printed:\n%s", out)
	}
}

func TestRunForecast_NoMatchesExitsCleanly(t *testing.T) {
	useTestConfig(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/list-markets" {
			t.Errorf("only the market list should be requested, got %s", r.URL.Path)
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	cfg.Oracles.BaseURL = srv.URL
	cfg.Social.APIURL = srv.URL
	os.WriteFile(cfg.Oracles.ForecastsPath, []byte(testForecasts), 0o644)
	oauth.SaveToken(cfg.Social.TokenPath, &oauth2.Token{AccessToken: "at"})

	cmd, out := newTestCmd()
	if err := runForecast(cmd, nil); err != nil {
		t.Fatalf("expected clean exit, got %v", err)
	}
	if !strings.Contains(out.String(), "No forecasts to submit") {
		t.Errorf("expected warning:\n%s", out)
	}
	if _, err := os.Stat(cfg.General.LogDir); !os.IsNotExist(err) {
		t.Error("no run log should be written when nothing is submitted")
	}
}

func TestRunForecast_RequiresCredentialsAndToken(t *testing.T) {
	useTestConfig(t)
	secrets.APIKey = ""
	cmd, _ := newTestCmd()
	if err := runForecast(cmd, nil); err == nil {
		t.Error("expected error without ORACLES_API_KEY")
	}

	useTestConfig(t)
	cmd, _ = newTestCmd()
	err := runForecast(cmd, nil)
	if err == nil || !strings.Contains(err.Error(), "run auth-url") {
		t.Errorf("expected missing token hint, got %v", err)
	}
}

func TestMarketsCmd(t *testing.T) {
	useTestConfig(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "10" || r.URL.Query().Get("status") != "open" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`[{"slug":"pm-a","title":"A?"},{"slug":"pm-b","polymarket_outcomes":[{"question":"B1?"}]}]`))
	}))
	defer srv.Close()
	cfg.Oracles.BaseURL = srv.URL

	listLimit = 10
	defer func() { listLimit = 0 }()

	cmd, out := newTestCmd()
	if err := runMarkets(cmd, nil); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Found 2 markets", "pm-a  A?", "- B1?"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
