// Command gradecalc-oauth-init runs the one-time browser consent that lets
// the mirror worker write to Google Sheets as a user instead of a service
// account. The resulting token is read back through GOOGLE_OAUTH_TOKEN_FILE.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"gradecalc/internal/cli"
	"gradecalc/internal/log"
	"gradecalc/internal/semesters/sheets"
)

const authTimeout = 5 * time.Minute

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentSheets)

	clientJSON, err := sheets.ReadOAuthClient(os.Getenv("GOOGLE_OAUTH_CLIENT_JSON"), os.Getenv("GOOGLE_OAUTH_CLIENT_FILE"))
	if err != nil {
		logger.Error("Missing OAuth client", log.FieldError, err)
		os.Exit(1)
	}

	// The redirect URI must be registered on the OAuth client.
	port := envOr("OAUTH_REDIRECT_PORT", "8085")
	oc, err := sheets.OAuthConfig(clientJSON, "http://localhost:"+port+"/callback")
	if err != nil {
		logger.Error("Invalid OAuth client", log.FieldError, err)
		os.Exit(1)
	}
	outFile := envOr("GOOGLE_OAUTH_TOKEN_FILE", "token.json")

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, authTimeout)
	defer cancelTimeout()

	state := uuid.NewString()
	codeCh := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if e := q.Get("error"); e != "" {
			http.Error(w, "OAuth error: "+e, http.StatusBadRequest)
			return
		}
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "You may close this window and return to the terminal.")
		select {
		case codeCh <- q.Get("code"):
		default:
		}
	})
	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Callback server failed", log.FieldError, err)
			cancel()
		}
	}()
	defer func() {
		shutdownCtx, c := context.WithTimeout(context.Background(), time.Second)
		defer c()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Open this URL to authorize:\n%s\n", oc.AuthCodeURL(state, oauth2.AccessTypeOffline))

	select {
	case code := <-codeCh:
		tok, err := oc.Exchange(ctx, code)
		if err != nil {
			logger.Error("Token exchange failed", log.FieldError, err)
			os.Exit(1)
		}
		if err := sheets.SaveToken(outFile, tok); err != nil {
			logger.Error("Saving token failed", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Saved OAuth token", "token_file", outFile)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logger.Error("Authorization timed out", "timeout", authTimeout)
		} else {
			logger.Error("Authorization interrupted")
		}
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
