package common

import (
	"context"
	"log"
	"strings"

	"plex-exchange-go/internal/database"
	"plex-exchange-go/internal/exchange"
	"plex-exchange-go/internal/fees"
	"plex-exchange-go/internal/invoices"
	"plex-exchange-go/internal/models"
	"plex-exchange-go/internal/money"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	}
}

// Services bundles everything a binary needs: the store, the currency
// registry, the orchestrator and the invoice components, wired in the
// order the event flow requires.
type Services struct {
	DbService *database.Service
	Registry  *money.Registry
	Exchange  *exchange.Service
	Invoices  *invoices.Generator
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	registry, err := money.LoadRegistry(cfg.Market.CurrenciesFile)
	if err != nil {
		zap.L().Warn("Falling back to default currency registry",
			zap.String("file", cfg.Market.CurrenciesFile),
			zap.Error(err))
		registry = money.DefaultRegistry()
	}

	dispatcher := exchange.NewDispatcher()
	exchangeService := exchange.NewService(dbService, registry, fees.NewDefaultEngine(registry), dispatcher)

	// Invoice generation runs after the trade status recompute the
	// orchestrator registered first.
	generator := invoices.NewGenerator(dbService, registry, cfg.Market.InvoiceDueIn)
	dispatcher.OnTransactionsAccepted(generator.HandleTradeTransactionsAccepted)

	return &Services{
		DbService: dbService,
		Registry:  registry,
		Exchange:  exchangeService,
		Invoices:  generator,
	}, nil
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
