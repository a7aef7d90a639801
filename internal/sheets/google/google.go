// Package google exports synced eco profiles to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"greefin/internal/core"
	"greefin/internal/eco"
	applog "greefin/internal/log"
	"greefin/internal/ports"
)

// Header is the first row of the export sheet; rows follow the same order.
var Header = []any{"Timestamp", "User", "Score", "Persona", "XP", "Badges", "Version"}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.ProfileExporter = (*Client)(nil)

type Config struct {
	SpreadsheetID string
	SheetName     string
	// CredentialsJSON is a service account key. When empty, the OAuth
	// client and token are used instead.
	CredentialsJSON []byte
	OAuthClientJSON []byte
	OAuthTokenJSON  []byte
}

// New creates a Sheets client authenticated with a service account or a
// saved OAuth token. Extra options are appended after the credentials, so
// tests can point the client at a local endpoint.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(cfg.SheetName) == "" {
		return nil, errors.New("missing sheet name")
	}

	var all []goption.ClientOption
	switch {
	case len(cfg.CredentialsJSON) > 0:
		all = append(all,
			goption.WithCredentialsJSON(cfg.CredentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	case len(cfg.OAuthClientJSON) > 0 && len(cfg.OAuthTokenJSON) > 0:
		ts, err := OAuthTokenSource(ctx, cfg.OAuthClientJSON, cfg.OAuthTokenJSON)
		if err != nil {
			return nil, err
		}
		all = append(all, goption.WithTokenSource(ts))
	}
	all = append(all, opts...)
	if len(all) == 0 {
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentSheets).InfoContext(ctx,
		"Google Sheets service created",
		"spreadsheet_id", cfg.SpreadsheetID,
		"sheet", cfg.SheetName)

	return &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheetName: cfg.SheetName}, nil
}

// EnsureHeader writes Header into row 1 when the sheet's first row is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A1:G1", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	vr := &gsheet.ValueRange{Values: [][]any{Header}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write header to %s: %w", rng, err)
	}
	return nil
}

// ExportProfile appends one row for the given profile version.
func (c *Client) ExportProfile(ctx context.Context, rec core.ProfileRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:G", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{profileRow(rec)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", c.sheetName, err)
	}

	updated := ""
	if resp.Updates != nil {
		updated = resp.Updates.UpdatedRange
	}
	applog.FromContext(ctx).WithComponent(applog.ComponentSheets).DebugContext(ctx, "Exported profile row",
		applog.FieldUserID, rec.UserID,
		applog.FieldVersion, rec.Version,
		"range", updated)
	return nil
}

func profileRow(rec core.ProfileRecord) []any {
	ts := rec.UpdatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return []any{
		ts.UTC().Format(time.RFC3339),
		rec.UserID,
		rec.Profile.Score,
		string(rec.Profile.Persona),
		rec.Profile.XP,
		strings.Join(eco.BadgeLabels(rec.Profile.Badges), ", "),
		rec.Version,
	}
}
