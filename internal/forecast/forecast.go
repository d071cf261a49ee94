package forecast

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultStake is used when a definition leaves stake unset.
const DefaultStake = 10

// Forecast is one resolved prediction, ready for submission.
type Forecast struct {
	MarketSlug string
	MarketName string  // short label used in reports and the summary post
	Outcome    string  // selected sub-question; empty for plain binary markets
	PYes       float64 // 0.0-1.0: probability the outcome resolves YES
	Confidence float64 // 0.0-1.0
	Rationale  string
	Stake      int
}

// Definition describes a forecast before it is matched against the open
// market list.
type Definition struct {
	Name            string  `toml:"name"`
	Slug            string  `toml:"slug"`
	SlugContains    string  `toml:"slug_contains"`
	Outcome         string  `toml:"outcome"`
	OutcomeContains string  `toml:"outcome_contains"`
	PYes            float64 `toml:"p_yes"`
	Confidence      float64 `toml:"confidence"`
	Rationale       string  `toml:"rationale"`
	Stake           int     `toml:"stake"`
}

type file struct {
	Forecasts []Definition `toml:"forecast"`
}

// LoadDefinitions reads [[forecast]] entries from a TOML file.
func LoadDefinitions(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading forecasts: %w", err)
	}

	var f file
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, fmt.Errorf("parsing forecasts: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		slog.Warn("unknown keys in forecasts file", "path", path, "keys", fmt.Sprint(undecoded))
	}

	for i := range f.Forecasts {
		if f.Forecasts[i].Stake == 0 {
			f.Forecasts[i].Stake = DefaultStake
		}
	}
	return f.Forecasts, nil
}

// Validate rejects forecasts the market API would refuse.
func Validate(f Forecast) error {
	var errs []error
	if f.MarketSlug == "" {
		errs = append(errs, errors.New("market slug is empty"))
	}
	if f.PYes < 0 || f.PYes > 1 {
		errs = append(errs, fmt.Errorf("p_yes %v outside [0,1]", f.PYes))
	}
	if f.Confidence < 0 || f.Confidence > 1 {
		errs = append(errs, fmt.Errorf("confidence %v outside [0,1]", f.Confidence))
	}
	if f.Stake <= 0 {
		errs = append(errs, fmt.Errorf("stake %d must be positive", f.Stake))
	}
	return errors.Join(errs...)
}

// Filter drops invalid forecasts, logging why.
func Filter(forecasts []Forecast) []Forecast {
	valid := make([]Forecast, 0, len(forecasts))
	for _, f := range forecasts {
		if err := Validate(f); err != nil {
			slog.Warn("dropping invalid forecast", "market", f.MarketName, "error", err)
			continue
		}
		valid = append(valid, f)
	}
	return valid
}
