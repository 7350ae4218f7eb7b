package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/activity-assignment/internal/config"
	"github.com/jakechorley/activity-assignment/pkg/clients/sheetsclient"
	"github.com/jakechorley/activity-assignment/pkg/db"
	"github.com/jakechorley/activity-assignment/pkg/postgres"
	"github.com/jakechorley/activity-assignment/pkg/utils"
)

// AppContext holds the application dependencies shared across all commands.
// The sheets client and database are opened on first use.
type AppContext struct {
	Env    string
	Cfg    *config.Config
	Logger *zap.Logger
	Ctx    context.Context

	sheetsClient *sheetsclient.Client
	database     *postgres.DB
}

// SheetsClient returns the Google Sheets client, authenticating on first use
func (a *AppContext) SheetsClient() (*sheetsclient.Client, error) {
	if a.sheetsClient != nil {
		return a.sheetsClient, nil
	}

	a.Logger.Info("Loading OAuth client configuration")
	oauthCfg, err := config.LoadOAuthClientWithEnv(a.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
	}

	auth, err := utils.NewAuthenticator(oauthCfg, a.Env, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}

	a.Logger.Info("Initializing sheets client")
	client, err := sheetsclient.NewClient(a.Ctx, auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	a.Logger.Debug("Sheets client initialized successfully")

	a.sheetsClient = client
	return client, nil
}

// Store returns the result store, or nil when no databaseURL is configured
func (a *AppContext) Store() (db.ResultStore, error) {
	if a.Cfg.DatabaseURL == "" {
		return nil, nil
	}
	if a.database != nil {
		return a.database, nil
	}

	a.Logger.Info("Connecting to database")
	database, err := postgres.Open(a.Ctx, a.Cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.Logger.Debug("Database initialized successfully")

	a.database = database
	return database, nil
}

// Close releases anything opened on demand
func (a *AppContext) Close() {
	if a.database != nil {
		a.database.Close()
		a.database = nil
	}
}

// ListPreferenceRecords reads the preference sheet through the lazily created client
func (a *AppContext) ListPreferenceRecords(cfg *config.Config) ([][]string, error) {
	client, err := a.SheetsClient()
	if err != nil {
		return nil, err
	}
	return client.ListPreferenceRecords(cfg)
}
