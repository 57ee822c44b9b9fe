package gdocs

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scopes required across Docs, Drive and Sheets.
var Scopes = []string{
	"https://www.googleapis.com/auth/documents",
	"https://www.googleapis.com/auth/drive",
	"https://www.googleapis.com/auth/spreadsheets.readonly",
}

// OAuthConfig holds the offline-access credentials for the Google
// APIs. The refresh token is obtained once via the consent flow and
// reused by every scheduled run.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// NewHTTPClient returns an HTTP client that injects and refreshes
// OAuth2 access tokens for the configured scopes.
func NewHTTPClient(ctx context.Context, cfg OAuthConfig) *http.Client {
	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
	ts := oc.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	return oauth2.NewClient(ctx, ts)
}
