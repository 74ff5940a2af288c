// Package main runs the submission relay worker. It drains the
// submission journal and finishes e-invoice registrations the API
// server could not complete synchronously.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"retailcore/internal/core/config"
	"retailcore/internal/domain/documents/einvoice"
	"retailcore/internal/domain/documents/invoice"
	"retailcore/internal/domain/inventory"
	"retailcore/internal/domain/pricing"
	"retailcore/internal/domain/tax"
	"retailcore/internal/infrastructure/portal"
	"retailcore/internal/infrastructure/storage/postgres"
	"retailcore/internal/infrastructure/storage/postgres/document_repo"
	"retailcore/pkg/logger"
	"retailcore/pkg/numerator"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Env == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log.WithComponent("relay"))

	log.Info("starting submission relay worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.DSN()))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	auditStore, err := postgres.NewAuditStore(txManager)
	if err != nil {
		log.Fatalw("failed to create audit store", "error", err)
	}
	batchRepo := postgres.NewBatchRepo(txManager)
	journal := postgres.NewSubmissionJournal(txManager)
	invoiceRepo := document_repo.NewInvoiceRepo(txManager)
	einvoiceRepo := document_repo.NewEInvoiceRepo(txManager)

	defaultTax, err := decimal.NewFromString(cfg.Pricing.DefaultTaxPercent)
	if err != nil {
		log.Fatalw("invalid default tax percent", "value", cfg.Pricing.DefaultTaxPercent)
	}

	portalClient := portal.NewClient(cfg.Portal)
	invoiceService := invoice.NewService(
		invoiceRepo,
		pricing.NewEngine(decimal.NewFromInt(1)),
		inventory.NewAllocator(batchRepo),
		tax.NewTable(defaultTax),
		auditStore,
		numerator.New(pool.Unwrap()),
		txManager,
		cfg.Pricing.IssuerStateCode,
	)
	einvoiceService := einvoice.NewService(
		einvoiceRepo, invoiceService, portalClient, journal, auditStore, txManager,
		cfg.Portal.MaxAttempts, cfg.Portal.BackoffBase,
	)

	relay := einvoice.NewRelay(einvoiceService, journal, einvoiceRepo, portalClient)

	log.Info("relay running")
	if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalw("relay stopped", "error", err)
	}
	log.Info("relay stopped")
}
