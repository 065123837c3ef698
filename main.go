package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"

	"riskcalc/config"
	"riskcalc/internal/adapters/binanceclient"
	"riskcalc/internal/adapters/logger"
	"riskcalc/internal/adapters/sqlite"
	"riskcalc/internal/app"
	"riskcalc/internal/ports"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Price Feed (Binance Adapter)
	feed, err := binanceclient.New(binanceclient.Config{
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger,
		QuoteAsset: cfg.QuoteAsset,
		Timeout:    cfg.PriceFeedTimeout,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize price feed")
		log.Fatalf("FATAL: Failed to initialize price feed: %v", err)
	}
	appLogger.Info(context.Background(), "Price feed initialized")

	// 4. Initialize Trade Journal (optional)
	var journal ports.TradeJournal
	if cfg.JournalDBPath != "" {
		j, err := sqlite.NewJournal(sqlite.Config{
			DBPath: cfg.JournalDBPath,
			Logger: appLogger,
		})
		if err != nil {
			appLogger.Error(context.Background(), err, "FATAL: Failed to initialize trade journal")
			log.Fatalf("FATAL: Failed to initialize trade journal: %v", err)
		}
		defer func() {
			if err := j.Close(); err != nil {
				appLogger.Error(context.Background(), err, "Error closing trade journal")
			}
		}()
		journal = j
		appLogger.Info(context.Background(), "Trade journal initialized")
	} else {
		appLogger.Info(context.Background(), "Trade journal disabled (JOURNAL_DB_PATH empty)")
	}

	// 5. Initialize Session Service
	service, err := app.NewService(cfg, appLogger, feed, journal, os.Stdin, os.Stdout)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize session service")
		log.Fatalf("FATAL: Failed to initialize session service: %v", err)
	}
	appLogger.Info(context.Background(), "Session service initialized")

	// 6. Run the interactive session
	if err := service.Run(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Session exited with error")
		log.Fatalf("FATAL: Session exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Session finished gracefully.")
}
