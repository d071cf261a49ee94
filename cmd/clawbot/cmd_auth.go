package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"clawbot/internal/oauth"
	"clawbot/internal/social"
)

const helloText = "🤖 Hello World! Oracle ClawBot is LIVE! 🏆 #oraclesrun #AI"

var postHello bool

// authURLCmd starts the PKCE handshake
var authURLCmd = &cobra.Command{
	Use:   "auth-url",
	Short: "Print the X OAuth 2.0 authorization URL",
	Long: `Generate a PKCE verifier, save it next to the config and print the
authorization URL. Open it, authorize the app, then copy the "code" query
parameter from the redirect target and pass it to 'clawbot exchange'.`,
	Args: cobra.NoArgs,
	RunE: runAuthURL,
}

// exchangeCmd finishes the handshake
var exchangeCmd = &cobra.Command{
	Use:   "exchange <code>",
	Short: "Exchange an authorization code for a bearer token",
	Args:  cobra.ExactArgs(1),
	RunE:  runExchange,
}

func init() {
	exchangeCmd.Flags().BoolVar(&postHello, "hello", true, "publish a test post with the new token")
}

func runAuthURL(cmd *cobra.Command, args []string) error {
	if err := secrets.RequireClient(false); err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	flow := oauth.NewFlow(cfg.Social, secrets.ClientID, secrets.ClientSecret)
	authURL, err := flow.Begin()
	if err != nil {
		return err
	}

	rule := strings.Repeat("=", 70)
	fmt.Fprintf(out, "✅ Verifier saved to %s\n\n", cfg.Social.VerifierPath)
	fmt.Fprintf(out, "%s\n🔗 AUTHORIZATION URL:\n%s\n%s\n\n", rule, rule, authURL)
	fmt.Fprintf(out, "%s\n⚡️ NEXT STEPS (the code expires quickly):\n%s\n", rule, rule)
	fmt.Fprintln(out, "1. Open the URL above and log in to X if needed")
	fmt.Fprintln(out, `2. Click "Authorize app"`)
	fmt.Fprintf(out, "3. Go to %s\n", cfg.Social.RedirectURI)
	fmt.Fprintln(out, "4. Find the request carrying 'code=' and copy its value")
	fmt.Fprintln(out, `5. Run: clawbot exchange "YOUR_CODE"`)
	return nil
}

func runExchange(cmd *cobra.Command, args []string) error {
	if err := secrets.RequireClient(true); err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	code := strings.TrimSpace(args[0])

	flow := oauth.NewFlow(cfg.Social, secrets.ClientID, secrets.ClientSecret)
	tok, err := flow.Complete(ctx, code)
	if err != nil {
		var xe *oauth.ExchangeError
		if errors.As(err, &xe) {
			fmt.Fprintf(out, "❌ Failed: %d\n%s\n", xe.StatusCode, clip(xe.Body, 300))
		}
		return err
	}

	fmt.Fprintln(out, "✅ TOKEN RECEIVED")
	fmt.Fprintf(out, "   Access Token: %s...\n", clip(tok.AccessToken, 40))
	fmt.Fprintf(out, "   💾 Saved to %s\n", cfg.Social.TokenPath)

	if !postHello {
		return nil
	}

	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok))
	hc.Timeout = cfg.Social.Timeout.Duration
	post, err := newSocialClient(hc).Post(ctx, helloText)
	if err != nil {
		// The token is already saved; a failed test post is not fatal.
		fmt.Fprintf(out, "❌ Test post failed: %v\n", err)
		return nil
	}
	fmt.Fprintf(out, "🎉 Test post published: %s\n", post.URL)
	return nil
}

func newSocialClient(hc *http.Client) *social.Client {
	return social.NewClient(hc).
		WithBaseURL(cfg.Social.APIURL).
		WithStatusURLPrefix(cfg.Social.StatusURLPrefix)
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
