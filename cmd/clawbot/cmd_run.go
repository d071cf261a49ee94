package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"clawbot/internal/forecast"
	"clawbot/internal/oauth"
	"clawbot/internal/oracles"
	"clawbot/internal/report"
	"clawbot/internal/runlog"
)

var (
	listStatus string
	listLimit  int
)

// runCmd submits the configured forecasts
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Submit forecasts and publish one summary post",
	Long: `List open markets, match them against the forecasts file, submit every
matched forecast in order, publish one summary post if any submission
succeeded, print a report and write forecast_log_<time>.json.`,
	Args: cobra.NoArgs,
	RunE: runForecast,
}

// marketsCmd checks connectivity to the market API
var marketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "List markets from the market API",
	Args:  cobra.NoArgs,
	RunE:  runMarkets,
}

func init() {
	marketsCmd.Flags().StringVar(&listStatus, "status", "", "market status filter (default from config)")
	marketsCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum markets to list (default from config)")
}

func newOraclesClient() *oracles.Client {
	hc := &http.Client{Timeout: cfg.Oracles.Timeout.Duration}
	return oracles.NewClient(hc, secrets.AgentID, secrets.APIKey).WithBaseURL(cfg.Oracles.BaseURL)
}

func runForecast(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	started := time.Now()

	fmt.Fprintf(out, "%s\n🔮 ORACLE CLAWBOT - FORECAST RUN\nTime: %s\n%s\n",
		strings.Repeat("=", 70), started.Format(time.RFC3339), strings.Repeat("=", 70))

	if err := secrets.RequireOracles(); err != nil {
		return err
	}

	flow := oauth.NewFlow(cfg.Social, secrets.ClientID, secrets.ClientSecret)
	ts, err := flow.TokenSource(ctx)
	if err != nil {
		return fmt.Errorf("loading X token: %w", err)
	}
	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = cfg.Social.Timeout.Duration
	poster := newSocialClient(hc)
	fmt.Fprintln(out, "✅ X token loaded")

	defs, err := forecast.LoadDefinitions(cfg.Oracles.ForecastsPath)
	if err != nil {
		return err
	}

	oc := newOraclesClient()
	markets, err := oc.ListMarkets(ctx, cfg.Oracles.ListStatus, cfg.Oracles.ListLimit)
	if err != nil {
		return fmt.Errorf("listing markets: %w", err)
	}
	slog.Info("markets listed", "status", cfg.Oracles.ListStatus, "count", len(markets))
	fmt.Fprintf(out, "✅ Found %d %s markets\n", len(markets), cfg.Oracles.ListStatus)

	forecasts := forecast.Filter(forecast.Resolve(markets, defs))
	if len(forecasts) == 0 {
		slog.Warn("no forecasts matched any market", "defined", len(defs))
		fmt.Fprintf(out, "\n⚠️ No forecasts to submit. Edit %s to add forecasts.\n", cfg.Oracles.ForecastsPath)
		return nil
	}
	fmt.Fprintf(out, "\n📋 Prepared %d forecasts\n", len(forecasts))

	reporter := report.NewReporter(oc, poster, cfg.Oracles.ProfileURL, cfg.Summary)
	res := reporter.Run(ctx, forecasts)

	report.Print(out, res)
	report.LogResult(res)

	path, err := runlog.Write(cfg.General.LogDir, res, started)
	if err != nil {
		return err
	}
	slog.Info("run log written", "run_id", res.RunID, "path", path)
	fmt.Fprintf(out, "\n✅ Done! Log: %s\n", path)
	return nil
}

func runMarkets(cmd *cobra.Command, args []string) error {
	status := listStatus
	if status == "" {
		status = cfg.Oracles.ListStatus
	}
	limit := listLimit
	if limit <= 0 {
		limit = cfg.Oracles.ListLimit
	}

	markets, err := newOraclesClient().ListMarkets(cmd.Context(), status, limit)
	if err != nil {
		return fmt.Errorf("listing markets: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✅ Connected! Found %d markets\n", len(markets))
	for _, m := range markets {
		fmt.Fprintf(out, "  %s", m.Slug)
		if m.Title != "" {
			fmt.Fprintf(out, "  %s", m.Title)
		}
		fmt.Fprintln(out)
		for _, o := range m.PolymarketOutcomes {
			fmt.Fprintf(out, "      - %s\n", o.Question)
		}
	}
	return nil
}
