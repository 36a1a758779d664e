// Package backend is the HTTP client for the assistant backend: intent
// resolution, the chat round-trip, and tool-call confirmation.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
)

// tokenFile is the on-disk token format, shared with the taskpane's sign-in
// flow so an existing token works without re-authentication.
type tokenFile struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenURI     string `json:"token_uri,omitempty"`
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
	Expiry       string `json:"expiry,omitempty"`
}

// NewAuthClient returns an HTTP client that attaches a bearer token loaded
// from tokenPath, refreshing it when possible. An empty path yields a plain
// client (anonymous, for local backends).
func NewAuthClient(ctx context.Context, tokenPath string) (*http.Client, error) {
	if tokenPath == "" {
		return &http.Client{}, nil
	}

	tf, err := loadTokenFile(tokenPath)
	if err != nil {
		return nil, err
	}

	token := &oauth2.Token{
		AccessToken:  tf.AccessToken,
		RefreshToken: tf.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       parseExpiry(tf.Expiry),
	}

	// Without a refresh endpoint the static token is used as-is.
	if tf.TokenURI == "" || tf.RefreshToken == "" {
		return oauth2.NewClient(ctx, oauth2.StaticTokenSource(token)), nil
	}

	config := &oauth2.Config{
		ClientID:     tf.ClientID,
		ClientSecret: tf.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: tf.TokenURI},
	}

	ts := config.TokenSource(ctx, token)
	fresh, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	// If the token was refreshed, save it back for the next run.
	if fresh.AccessToken != token.AccessToken {
		if saveErr := saveTokenFile(tokenPath, fresh, tf); saveErr != nil {
			fmt.Fprintf(os.Stderr, "warning: could not save refreshed token: %v\n", saveErr)
		}
	}

	return oauth2.NewClient(ctx, ts), nil
}

func loadTokenFile(path string) (*tokenFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token from %s: %w", path, err)
	}
	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if tf.AccessToken == "" {
		return nil, fmt.Errorf("token file %s has no access_token", path)
	}
	return &tf, nil
}

func saveTokenFile(path string, token *oauth2.Token, prev *tokenFile) error {
	tf := tokenFile{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenURI:     prev.TokenURI,
		ClientID:     prev.ClientID,
		ClientSecret: prev.ClientSecret,
		Expiry:       token.Expiry.UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(tf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func parseExpiry(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05.999999Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
