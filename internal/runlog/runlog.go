// Package runlog writes one JSON file per forecast run.
package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName is the log name for a run started at t (local time, minute
// resolution).
func FileName(t time.Time) string {
	return fmt.Sprintf("forecast_log_%s.json", t.Format("2006-01-02_15-04"))
}

// Write encodes v as indented JSON into dir and returns the file path. A run
// in the same minute overwrites the earlier log.
func Write(dir string, v any, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating log directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding run log: %w", err)
	}

	path := filepath.Join(dir, FileName(now))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing run log: %w", err)
	}
	return path, nil
}
