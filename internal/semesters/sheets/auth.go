package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"gradecalc/internal/log"
)

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	opt, err := clientOption(ctx, cfg)
	if err != nil {
		return nil, err
	}
	service, err := gsheet.NewService(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// clientOption prefers a service account and falls back to an OAuth token.
func clientOption(ctx context.Context, cfg Config) (goption.ClientOption, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(cfg.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" && strings.TrimSpace(cfg.OAuthTokenFile) == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		return serviceAccountOption(ctx, []byte(serviceAccountJSON)), nil
	case serviceAccountFile != "":
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return serviceAccountOption(ctx, data), nil
	case strings.TrimSpace(cfg.OAuthTokenFile) != "":
		return oauthOption(ctx, cfg)
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_APPLICATION_CREDENTIALS, or GOOGLE_OAUTH_TOKEN_FILE)")
	}
}

func serviceAccountOption(ctx context.Context, credentialsJSON []byte) goption.ClientOption {
	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		log.FieldComponent, log.ComponentSheets,
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)
	return goption.WithCredentialsJSON(credentialsJSON)
}

func oauthOption(ctx context.Context, cfg Config) (goption.ClientOption, error) {
	clientJSON, err := ReadOAuthClient(cfg.OAuthClientJSON, cfg.OAuthClientFile)
	if err != nil {
		return nil, err
	}
	oc, err := OAuthConfig(clientJSON, "")
	if err != nil {
		return nil, err
	}
	tok, err := LoadToken(cfg.OAuthTokenFile)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with OAuth token",
		log.FieldComponent, log.ComponentSheets,
		"token_file", cfg.OAuthTokenFile,
		"scope", gsheet.SpreadsheetsScope)
	return goption.WithTokenSource(oc.TokenSource(ctx, tok)), nil
}

// ReadOAuthClient returns the OAuth client JSON from inline text or a file.
func ReadOAuthClient(inline, file string) ([]byte, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return []byte(s), nil
	}
	if f := strings.TrimSpace(file); f != "" {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read oauth client file: %w", err)
		}
		return data, nil
	}
	return nil, errors.New("missing OAuth client (set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)")
}

// OAuthConfig builds the Sheets OAuth flow from a client JSON.
func OAuthConfig(clientJSON []byte, redirectURL string) (*oauth2.Config, error) {
	oc, err := google.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	if redirectURL != "" {
		oc.RedirectURL = redirectURL
	}
	return oc, nil
}

// LoadToken reads a token written by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read oauth token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decode oauth token: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, errors.New("oauth token file holds no token")
	}
	return &tok, nil
}

// SaveToken writes tok to path, readable only by the owner.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		_ = f.Close()
		return fmt.Errorf("write token: %w", err)
	}
	return f.Close()
}
