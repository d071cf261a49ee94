package forecast

import (
	"log/slog"
	"strings"

	"clawbot/internal/oracles"
)

// Resolve matches definitions against the open markets, keeping definition
// order. Definitions without a matching market, or whose outcome_contains
// finds no outcome, are skipped.
func Resolve(markets []oracles.Market, defs []Definition) []Forecast {
	var out []Forecast

	for _, d := range defs {
		m, ok := findMarket(markets, d)
		if !ok {
			slog.Info("no open market for forecast", "name", d.Name, "slug", d.Slug, "slug_contains", d.SlugContains)
			continue
		}

		outcome := d.Outcome
		if d.OutcomeContains != "" {
			q, ok := findOutcome(m, d.OutcomeContains)
			if !ok {
				slog.Info("no matching outcome", "name", d.Name, "market", m.Slug, "outcome_contains", d.OutcomeContains)
				continue
			}
			outcome = q
		}

		name := d.Name
		if name == "" {
			name = m.Slug
		}
		out = append(out, Forecast{
			MarketSlug: m.Slug,
			MarketName: name,
			Outcome:    outcome,
			PYes:       d.PYes,
			Confidence: d.Confidence,
			Rationale:  d.Rationale,
			Stake:      d.Stake,
		})
	}

	slog.Info("forecasts resolved", "defined", len(defs), "matched", len(out))
	return out
}

func findMarket(markets []oracles.Market, d Definition) (oracles.Market, bool) {
	for _, m := range markets {
		switch {
		case d.Slug != "":
			if m.Slug == d.Slug {
				return m, true
			}
		case d.SlugContains != "":
			if strings.Contains(m.Slug, d.SlugContains) {
				return m, true
			}
		}
	}
	return oracles.Market{}, false
}

func findOutcome(m oracles.Market, needle string) (string, bool) {
	needle = strings.ToLower(needle)
	for _, o := range m.PolymarketOutcomes {
		if strings.Contains(strings.ToLower(o.Question), needle) {
			return o.Question, true
		}
	}
	return "", false
}
