package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"folio/internal/application/service"
	"folio/internal/application/usecase/report"
	"folio/internal/infrastructure/config"
	"folio/internal/infrastructure/container"
	"folio/internal/infrastructure/logger"
	"folio/internal/interfaces/console"

	"github.com/rs/zerolog/log"
)

func main() {
	logger.Setup()

	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("container init failed")
	}
	defer c.Close()

	ledger := service.NewLedgerService(c.TransactionStore(), c.IdentityStore(), c.PriceProvider())

	svc := report.NewService(report.ServiceDeps{
		Ledger:        ledger,
		Store:         c.TransactionStore(),
		Sink:          console.NewSink(),
		BaseCurrency:  cfg.App.BaseCurrency,
		PrintEveryMin: cfg.App.ReportEveryMin,
	})

	log.Info().
		Str("config", *configPath).
		Str("base_currency", cfg.App.BaseCurrency).
		Int("report_every_min", cfg.App.ReportEveryMin).
		Msg("folio started")

	if err := svc.Run(ctx); err != nil {
		log.Error().Err(err).Msg("report service exited")
	}
}
