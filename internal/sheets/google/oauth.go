package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	gsheet "google.golang.org/api/sheets/v4"
)

// OAuthConfig parses an OAuth client (as downloaded from the Cloud console)
// scoped to spreadsheets.
func OAuthConfig(clientJSON []byte) (*oauth2.Config, error) {
	cfg, err := googleoauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client: %w", err)
	}
	return cfg, nil
}

// OAuthTokenSource returns a refreshing token source for a token saved by
// greefin-oauth-init.
func OAuthTokenSource(ctx context.Context, clientJSON, tokenJSON []byte) (oauth2.TokenSource, error) {
	cfg, err := OAuthConfig(clientJSON)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, errors.New("oauth token has neither access nor refresh token")
	}
	return cfg.TokenSource(ctx, &tok), nil
}
