package report

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Print writes the human-readable batch report.
func Print(w io.Writer, res BatchResult) {
	rule := strings.Repeat("=", 70)
	thin := strings.Repeat("-", 70)

	fmt.Fprintf(w, "\n%s\n📊 FORECAST BATCH REPORT\n%s\n", rule, rule)

	for i, f := range res.Forecasts {
		if !f.Success {
			fmt.Fprintf(w, "\n%d. ❌ %s: %s\n", i+1, f.Market, f.Error)
			continue
		}
		fmt.Fprintf(w, "\n%d. ✅ %s\n", i+1, f.Market)
		if f.Outcome != "" {
			fmt.Fprintf(w, "   📋 Outcome: %s\n", clip(f.Outcome, 50))
		}
		fmt.Fprintf(w, "   📈 p_yes: %.0f%% | Conf: %.0f%% | Stake: %d\n", f.PYes*100, f.Confidence*100, f.Stake)
		fmt.Fprintf(w, "   🔮 Forecast ID: %s\n", clip(f.ForecastID, 25))
	}

	fmt.Fprintf(w, "\n%s\n🐦 SUMMARY POST\n%s\n", thin, thin)
	if res.Post.Success {
		fmt.Fprintf(w, "✅ Posted: %s\n", res.Post.URL)
	} else {
		fmt.Fprintf(w, "❌ Post failed: %s\n", res.Post.Error)
	}

	posted := "Failed"
	if res.Summary.PostPublished {
		posted = "Posted"
	}
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "✅ Forecasts: %d/%d\n", res.Summary.Successful, res.Summary.Total)
	fmt.Fprintf(w, "🐦 Summary post: %s\n", posted)
	fmt.Fprintf(w, "💰 Total stake: %d units\n", TotalStake(res.Forecasts))
	fmt.Fprintf(w, "%s\n", rule)
}

// LogResult logs the batch as structured records.
func LogResult(res BatchResult) {
	slog.Info("=== FORECAST BATCH ===",
		"run_id", res.RunID,
		"total", res.Summary.Total,
		"successful", res.Summary.Successful,
		"total_stake", TotalStake(res.Forecasts),
		"post_published", res.Summary.PostPublished,
		"post_url", res.Post.URL,
	)

	for _, f := range res.Forecasts {
		if !f.Success {
			slog.Warn("forecast result", "run_id", res.RunID, "market", f.Market, "success", false, "error", f.Error)
			continue
		}
		slog.Info("forecast result",
			"run_id", res.RunID,
			"market", f.Market,
			"success", true,
			"forecast_id", f.ForecastID,
			"p_yes", f.PYes,
			"confidence", f.Confidence,
			"stake", f.Stake,
		)
	}
}

// clip shortens s to n runes, marking the cut with "...".
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
