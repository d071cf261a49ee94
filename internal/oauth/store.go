package oauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// ErrNoVerifier is returned when the exchange step runs before auth-url.
var ErrNoVerifier = errors.New("PKCE verifier not found, run auth-url first")

// ErrNoToken is returned when no usable token file exists.
var ErrNoToken = errors.New("token not found, run auth-url and exchange first")

// SaveVerifier writes the verifier so the exchange step can pick it up.
func SaveVerifier(path, verifier string) error {
	if err := os.WriteFile(path, []byte(verifier), 0o600); err != nil {
		return fmt.Errorf("writing verifier: %w", err)
	}
	return nil
}

// LoadVerifier reads back a verifier written by SaveVerifier.
func LoadVerifier(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNoVerifier
	}
	if err != nil {
		return "", fmt.Errorf("reading verifier: %w", err)
	}
	v := strings.TrimSpace(string(data))
	if v == "" {
		return "", ErrNoVerifier
	}
	return v, nil
}

// TokenFile is the on-disk shape of the token endpoint response.
type TokenFile struct {
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in,omitempty"`
	AccessToken  string    `json:"access_token"`
	Scope        string    `json:"scope,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitzero"`
}

func tokenFileFrom(tok *oauth2.Token) TokenFile {
	tf := TokenFile{
		TokenType:    tok.TokenType,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
	if s, ok := tok.Extra("scope").(string); ok {
		tf.Scope = s
	}
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		tf.ExpiresIn = int64(v)
	case json.Number:
		tf.ExpiresIn, _ = v.Int64()
	}
	return tf
}

// Token converts the file back into an oauth2 token.
func (tf TokenFile) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  tf.AccessToken,
		TokenType:    tf.TokenType,
		RefreshToken: tf.RefreshToken,
		Expiry:       tf.Expiry,
	}
}

// SaveToken persists tok as indented JSON readable only by the owner.
func SaveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tokenFileFrom(tok), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing token: %w", err)
	}
	return nil
}

// LoadToken reads a token saved by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("reading token: %w", err)
	}

	var tf TokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("decoding token: %w", err)
	}
	if tf.AccessToken == "" {
		return nil, ErrNoToken
	}
	return tf.Token(), nil
}
