package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/jakechorley/activity-assignment/internal/config"
)

const (
	AuthPort       = 3000
	authTimeout    = 5 * time.Minute
	callbackPath   = "/oauth/callback"
	tokenDirName   = ".activity-assignment/tokens"
	tokenFilePerms = 0600 // Read/write for owner only
	tokenDirPerms  = 0700 // Read/write/execute for owner only
	tokenInfoURL   = "https://oauth2.googleapis.com/tokeninfo"
)

// ScopeSheets covers reading preference tabs and publishing assignment tabs
const ScopeSheets = "https://www.googleapis.com/auth/spreadsheets"

// RequiredScopes returns all scopes required by the application
func RequiredScopes() []string {
	return []string{ScopeSheets}
}

// GetOAuthConfig creates an OAuth2 config from the OAuth client configuration
func GetOAuthConfig(oauthCfg *config.OAuthClientConfig) (*oauth2.Config, error) {
	oauthConfigJSON, err := oauthCfg.JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal oauth config: %w", err)
	}

	googleConfig, err := google.ConfigFromJSON(oauthConfigJSON, RequiredScopes()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create google config: %w", err)
	}

	// Override redirect URI to use our local server
	googleConfig.RedirectURL = fmt.Sprintf("http://localhost:%d%s", AuthPort, callbackPath)

	return googleConfig, nil
}

// TokenStore persists OAuth tokens per environment under Dir
type TokenStore struct {
	Dir string
}

// DefaultTokenStore stores tokens in ~/.activity-assignment/tokens
func DefaultTokenStore() (TokenStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return TokenStore{}, fmt.Errorf("failed to get home directory: %w", err)
	}
	return TokenStore{Dir: filepath.Join(homeDir, tokenDirName)}, nil
}

// Path returns the token file for env
func (s TokenStore) Path(env string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("token-%s.json", env))
}

// Load reads the token for env.
// Returns nil if the file doesn't exist (not an error - just means no cached token)
func (s TokenStore) Load(env string) (*oauth2.Token, error) {
	data, err := os.ReadFile(s.Path(env))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	return &token, nil
}

// Save writes the token for env with owner-only permissions
func (s TokenStore) Save(env string, token *oauth2.Token) error {
	if err := os.MkdirAll(s.Dir, tokenDirPerms); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(s.Path(env), data, tokenFilePerms); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// Delete removes the token for env. A missing file is not an error.
func (s TokenStore) Delete(env string) error {
	if err := os.Remove(s.Path(env)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

// Authenticator obtains tokens for one environment, running the installed-app
// flow when no usable token is stored. It is safe for concurrent use.
type Authenticator struct {
	config *oauth2.Config
	env    string
	store  TokenStore
	logger *zap.Logger

	// checkScopes is replaced in tests
	checkScopes func(ctx context.Context, token *oauth2.Token) error

	mu     sync.Mutex
	cached *oauth2.Token
}

// NewAuthenticator creates an authenticator backed by the default token store
func NewAuthenticator(oauthCfg *config.OAuthClientConfig, env string, logger *zap.Logger) (*Authenticator, error) {
	oauthConfig, err := GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, err
	}

	store, err := DefaultTokenStore()
	if err != nil {
		return nil, err
	}

	return &Authenticator{
		config:      oauthConfig,
		env:         env,
		store:       store,
		logger:      logger,
		checkScopes: validateTokenScopes,
	}, nil
}

// Config returns the OAuth2 config
func (a *Authenticator) Config() *oauth2.Config {
	return a.config
}

// Token returns a valid token, refreshing a stored one or running the
// authorization flow as needed. Tokens are persisted for the environment.
func (a *Authenticator) Token(ctx context.Context) (*oauth2.Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cached != nil && a.cached.Valid() {
		return a.cached, nil
	}

	if token := a.storedToken(ctx); token != nil {
		a.cached = token
		return token, nil
	}

	a.logger.Info("No valid token found - starting OAuth flow")

	authURL := a.config.AuthCodeURL("state", oauth2.AccessTypeOffline)
	fmt.Printf("\nVisit this URL to authorize the application:\n%s\n\n", authURL)

	code, err := listenForAuthCallback(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization code: %w", err)
	}

	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	if err := a.checkScopes(ctx, token); err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	if err := a.store.Save(a.env, token); err != nil {
		// The token is still usable for this process
		a.logger.Warn("Failed to save token", zap.Error(err))
	}

	a.cached = token
	return token, nil
}

// storedToken returns the persisted token if it is valid, or can be
// refreshed, and carries every required scope. Stale tokens are deleted.
func (a *Authenticator) storedToken(ctx context.Context) *oauth2.Token {
	token, err := a.store.Load(a.env)
	if err != nil {
		a.logger.Warn("Failed to load token from file", zap.Error(err))
		return nil
	}
	if token == nil {
		return nil
	}

	refreshed := false
	if !token.Valid() {
		if token.RefreshToken == "" {
			return nil
		}
		fresh, err := a.config.TokenSource(ctx, token).Token()
		if err != nil {
			a.logger.Warn("Failed to refresh token", zap.Error(err))
			return nil
		}
		token, refreshed = fresh, true
	}

	if err := a.checkScopes(ctx, token); err != nil {
		a.logger.Warn("Stored token is missing required scopes, deleting it", zap.Error(err))
		if err := a.store.Delete(a.env); err != nil {
			a.logger.Warn("Failed to delete token", zap.Error(err))
		}
		return nil
	}

	if refreshed {
		a.logger.Debug("Token refreshed")
		if err := a.store.Save(a.env, token); err != nil {
			a.logger.Warn("Failed to save refreshed token", zap.Error(err))
		}
	}

	return token
}

// HTTPClient returns an HTTP client that authorizes requests with the token
func (a *Authenticator) HTTPClient(ctx context.Context) (*http.Client, error) {
	token, err := a.Token(ctx)
	if err != nil {
		return nil, err
	}
	return a.config.Client(ctx, token), nil
}

// validateTokenScopes checks that the token has all required scopes by calling Google's tokeninfo endpoint
func validateTokenScopes(ctx context.Context, token *oauth2.Token) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenInfoURL+"?access_token="+token.AccessToken, nil)
	if err != nil {
		return fmt.Errorf("failed to create tokeninfo request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call tokeninfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("tokeninfo request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenInfo struct {
		Scope string `json:"scope"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenInfo); err != nil {
		return fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}

	return missingScopes(strings.Fields(tokenInfo.Scope))
}

func missingScopes(granted []string) error {
	var missing []string
	for _, required := range RequiredScopes() {
		if !slices.Contains(granted, required) {
			missing = append(missing, required)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("token is missing required scopes: %v", missing)
	}
	return nil
}

// listenForAuthCallback starts a local HTTP server and waits for the OAuth callback
func listenForAuthCallback(ctx context.Context) (string, error) {
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- fmt.Errorf("no authorization code received")
			http.Error(w, "Authorization failed", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>Authorization successful!</h1><p>You can close this window and return to the terminal.</p></body></html>`)

		codeChan <- code
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", AuthPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	var code string
	var authErr error

	select {
	case code = <-codeChan:
	case authErr = <-errChan:
	case <-timeoutCtx.Done():
		authErr = fmt.Errorf("authorization timeout after %v", authTimeout)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)

	if authErr != nil {
		return "", authErr
	}

	return code, nil
}
