// Package app wires configuration, the bot client and the service packages
// into the operations the CLI commands expose.
package app

import (
	"github.com/rs/zerolog"

	"botboard/internal/botapi"
	"botboard/internal/cfg"
	"botboard/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config cfg.Settings
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(config cfg.Settings, logger zerolog.Logger) *App {
	return &App{Config: config, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newClient() *botapi.Client {
	return botapi.New(a.Config.BotBaseURL, a.Config.BotAPIKey, a.Config.RESTTimeout)
}

// openStore opens the snapshot cache when a data path is configured. A nil
// store with nil error means persistence is simply disabled.
func (a *App) openStore() (*storage.Store, error) {
	if a.Config.DataPath == "" {
		return nil, nil
	}
	return storage.New(a.Config.DataPath)
}

// ExportOptions hold parameters for the export command.
type ExportOptions struct {
	Window    string
	CSVPath   string
	PNGPath   string
	TradesCSV string
}

// TradesOptions configure the trades command.
type TradesOptions struct {
	Closed bool
	Limit  int
}
