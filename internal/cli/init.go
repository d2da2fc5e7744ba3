// Package cli consolidates the startup plumbing shared by cmd/rasid
// and cmd/rasid-worker.
package cli

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"rasid/internal/amqp"
	"rasid/internal/backend"
	"rasid/internal/config"
	"rasid/internal/ledger"
	"rasid/internal/log"
	"rasid/internal/mirror"
	"rasid/internal/mirror/sheets"
)

// SetupLogger initializes structured logging and installs it as the
// process default. LOG_LEVEL is read directly because the logger must
// exist before configuration is validated.
func SetupLogger() *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(os.Getenv("LOG_LEVEL"))
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development; missing files are fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration, exiting the process when it
// does not validate.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitStore builds the configured persistence backend, exiting the
// process on failure.
func InitStore(logger *log.Logger, cfg *config.Config) *backend.Result {
	res, err := backend.NewFactory(logger).CreateStore(cfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return res
}

// BuildSinks assembles the configured mirror sinks: the webhook sink is
// always present (it no-ops while no sync URL is stored), the Sheets
// sink only when a spreadsheet is configured.
func BuildSinks(ctx context.Context, logger *log.Logger, cfg *config.Config, store ledger.Store) []mirror.Sink {
	sinks := []mirror.Sink{
		mirror.NewWebhook(http.DefaultClient, store.LoadSyncEndpoint),
	}

	if cfg.SheetsConfigured() {
		sheetsSink, err := sheets.New(ctx, sheets.Config{
			SpreadsheetID:     cfg.GoogleSpreadsheetID,
			AccountsSheet:     cfg.GoogleAccountsSheet,
			TransactionsSheet: cfg.GoogleTransactionsSheet,
			CredentialsJSON:   cfg.GoogleCredentialsJSON,
			CredentialsFile:   cfg.GoogleCredentialsFile,
		})
		if err != nil {
			logger.Warn("Failed to initialize Sheets mirror sink, continuing without it", "error", err)
		} else {
			sinks = append(sinks, sheetsSink)
		}
	}
	return sinks
}

// BuildMirror wires the mirror for the configured mode. In queue mode it
// returns the AMQP client so the caller can close it on shutdown.
func BuildMirror(ctx context.Context, logger *log.Logger, cfg *config.Config, store ledger.Store) (ledger.Mirror, *amqp.Client) {
	if cfg.MirrorMode == config.MirrorModeQueue {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		logger.Info("Mirror dispatch via queue", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		return mirror.NewQueue(client), client
	}

	sinks := BuildSinks(ctx, logger, cfg, store)
	logger.Info("Mirror dispatch direct", "sinks", len(sinks))
	return mirror.NewDispatcher(cfg.MirrorTimeout, sinks...), nil
}

