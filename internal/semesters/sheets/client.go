package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gsheet "google.golang.org/api/sheets/v4"

	"gradecalc/internal/core"
	"gradecalc/internal/semesters"
)

const (
	// DefaultSheetName is the tab the semester table is mirrored into.
	DefaultSheetName = "Semesters"
	// StoreSheetName holds the key/value records, one per row.
	StoreSheetName = "gradecalc_store"
)

// Config selects the spreadsheet and credentials.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
	// OAuth user credentials, used when no service account is given.
	OAuthClientJSON string
	OAuthClientFile string
	OAuthTokenFile  string
}

// Client stores records in a Google Sheet. Column A holds keys and column B
// the raw values of the KV tab; the mirror tab holds a readable table.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	storeSheet    string
}

var (
	_ semesters.KV     = (*Client)(nil)
	_ semesters.Mirror = (*Client)(nil)
)

// New creates a Sheets client authenticated with a service account or a
// saved OAuth user token.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = DefaultSheetName
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		storeSheet:    StoreSheetName,
	}, nil
}

func (c *Client) ready() error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	return nil
}

func (c *Client) readStore(ctx context.Context) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:B", c.storeSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	if err := c.ready(); err != nil {
		return "", false, err
	}
	values, err := c.readStore(ctx)
	if err != nil {
		return "", false, err
	}
	_, value, ok := findKey(values, key)
	return value, ok, nil
}

func (c *Client) Put(ctx context.Context, key, value string) error {
	if err := c.ready(); err != nil {
		return err
	}
	values, err := c.readStore(ctx)
	if err != nil {
		return err
	}

	row, _, ok := findKey(values, key)
	if !ok {
		row = len(values) + 1
	}
	rng := fmt.Sprintf("%s!A%d:B%d", c.storeSheet, row, row)
	vr := &gsheet.ValueRange{Values: [][]any{{key, value}}}
	// RAW keeps the JSON blob from being reinterpreted as a formula or number.
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.ready(); err != nil {
		return err
	}
	values, err := c.readStore(ctx)
	if err != nil {
		return err
	}
	row, _, ok := findKey(values, key)
	if !ok {
		return nil
	}
	rng := fmt.Sprintf("%s!A%d:B%d", c.storeSheet, row, row)
	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	return nil
}

// WriteSemesters replaces the mirror tab with a Sem/GPA/Credit table.
func (c *Client) WriteSemesters(ctx context.Context, rows []core.SemesterRow) error {
	if err := c.ready(); err != nil {
		return err
	}
	all := fmt.Sprintf("%s!A:C", c.sheetName)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, all, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", all, err)
	}

	values := mirrorValues(rows)
	rng := fmt.Sprintf("%s!A1:C%d", c.sheetName, len(values))
	vr := &gsheet.ValueRange{Values: values}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}
	return nil
}
