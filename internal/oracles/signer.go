package oracles

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Sign returns the hex HMAC-SHA256 of body keyed by apiKey.
func Sign(apiKey string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(apiKey))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// compactJSON encodes v without HTML escaping or a trailing newline, so the
// signed bytes are exactly the bytes sent.
func compactJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding body: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
