package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"clawbot/internal/config"
	"clawbot/internal/forecast"
	"clawbot/internal/oracles"
	"clawbot/internal/social"
)

// Submitter sends one forecast to the market API.
type Submitter interface {
	SubmitForecast(ctx context.Context, f oracles.Forecast) (*oracles.Submission, error)
}

// Poster publishes a social post.
type Poster interface {
	Post(ctx context.Context, text string) (*social.Post, error)
}

// Reporter submits a batch of forecasts and announces the result.
type Reporter struct {
	submitter  Submitter
	poster     Poster
	profileURL string
	cfg        config.SummaryConfig
	now        func() time.Time
}

func NewReporter(submitter Submitter, poster Poster, profileURL string, cfg config.SummaryConfig) *Reporter {
	return &Reporter{
		submitter:  submitter,
		poster:     poster,
		profileURL: profileURL,
		cfg:        cfg,
		now:        time.Now,
	}
}

// ForecastResult records what happened to one forecast.
type ForecastResult struct {
	Success    bool    `json:"success"`
	Market     string  `json:"market"`
	Outcome    string  `json:"outcome,omitempty"`
	PYes       float64 `json:"p_yes,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Stake      int     `json:"stake,omitempty"`
	ForecastID string  `json:"forecast_id,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// PostResult records the summary post attempt.
type PostResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	PostID  string `json:"tweet_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Summary holds the batch counters.
type Summary struct {
	Total         int  `json:"total"`
	Successful    int  `json:"successful"`
	PostPublished bool `json:"tweet_posted"`
}

// BatchResult is everything a run produced. It is also the run log format.
type BatchResult struct {
	RunID     string           `json:"run_id"`
	StartedAt time.Time        `json:"started_at"`
	Forecasts []ForecastResult `json:"forecasts"`
	Post      PostResult       `json:"tweet"`
	Summary   Summary          `json:"summary"`
}

// TotalStake sums the stake of successful submissions.
func TotalStake(results []ForecastResult) int {
	total := 0
	for _, r := range results {
		if r.Success {
			total += r.Stake
		}
	}
	return total
}

// Run submits all forecasts in order, then posts one summary.
func (r *Reporter) Run(ctx context.Context, forecasts []forecast.Forecast) BatchResult {
	res := BatchResult{
		RunID:     uuid.NewString(),
		StartedAt: r.now().UTC(),
	}
	log := slog.With("run_id", res.RunID)

	res.Forecasts = r.SubmitBatch(ctx, log, forecasts)
	res.Post = r.PostSummary(ctx, log, res.Forecasts)

	res.Summary.Total = len(res.Forecasts)
	for _, f := range res.Forecasts {
		if f.Success {
			res.Summary.Successful++
		}
	}
	res.Summary.PostPublished = res.Post.Success
	return res
}

// SubmitBatch submits sequentially. One failure never stops the batch.
func (r *Reporter) SubmitBatch(ctx context.Context, log *slog.Logger, forecasts []forecast.Forecast) []ForecastResult {
	results := make([]ForecastResult, 0, len(forecasts))
	for _, f := range forecasts {
		results = append(results, r.submitSingle(ctx, log, f))
	}
	return results
}

func (r *Reporter) submitSingle(ctx context.Context, log *slog.Logger, f forecast.Forecast) ForecastResult {
	log.Info("submitting forecast",
		"market", f.MarketName,
		"slug", f.MarketSlug,
		"outcome", f.Outcome,
		"p_yes", f.PYes,
		"confidence", f.Confidence,
		"stake", f.Stake,
	)

	sub, err := r.submitter.SubmitForecast(ctx, oracles.Forecast{
		MarketSlug:      f.MarketSlug,
		PYes:            f.PYes,
		Confidence:      f.Confidence,
		Rationale:       f.Rationale,
		SelectedOutcome: f.Outcome,
		StakeUnits:      f.Stake,
	})
	if err != nil {
		log.Error("forecast failed", "market", f.MarketName, "error", err)
		return ForecastResult{Success: false, Market: f.MarketName, Error: err.Error()}
	}

	id := sub.ForecastID
	if id == "" {
		id = "N/A"
	}
	log.Info("forecast submitted", "market", f.MarketName, "forecast_id", id)

	return ForecastResult{
		Success:    true,
		Market:     f.MarketName,
		Outcome:    f.Outcome,
		PYes:       f.PYes,
		Confidence: f.Confidence,
		Stake:      f.Stake,
		ForecastID: id,
	}
}

// SummaryText composes the announcement. ok is false when nothing succeeded.
func (r *Reporter) SummaryText(results []ForecastResult) (text string, ok bool) {
	var names []string
	for _, res := range results {
		if res.Success {
			names = append(names, res.Market)
		}
	}
	if len(names) == 0 {
		return "", false
	}

	limit := r.cfg.MaxMarkets
	if limit <= 0 {
		limit = 6
	}
	shown := names
	if len(shown) > limit {
		shown = shown[:limit]
	}
	markets := strings.Join(shown, " • ")
	if len(names) > limit {
		markets += " & more"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔮 New forecasts submitted: %d markets\n\n", len(names))
	fmt.Fprintf(&b, "%s\n", markets)
	fmt.Fprintf(&b, "💰 Total stake: %d units\n\n", TotalStake(results))
	fmt.Fprintf(&b, "Track my predictions:\n%s", r.profileURL)
	if r.cfg.Footer != "" {
		fmt.Fprintf(&b, "\n\n%s", r.cfg.Footer)
	}
	return b.String(), true
}

// PostSummary publishes the summary when at least one forecast succeeded.
func (r *Reporter) PostSummary(ctx context.Context, log *slog.Logger, results []ForecastResult) PostResult {
	if len(results) == 0 {
		return PostResult{Success: false, Error: "No forecasts to post"}
	}
	text, ok := r.SummaryText(results)
	if !ok {
		return PostResult{Success: false, Error: "No successful forecasts"}
	}

	log.Info("posting summary", "chars", len([]rune(text)))
	post, err := r.poster.Post(ctx, text)
	if err != nil {
		log.Error("summary post failed", "error", err)
		return PostResult{Success: false, Error: err.Error()}
	}

	log.Info("summary posted", "url", post.URL)
	return PostResult{Success: true, URL: post.URL, PostID: post.ID}
}
