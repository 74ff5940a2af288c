// Package main is the entry point for the retailcore API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"retailcore/internal/core/config"
	"retailcore/internal/domain/documents"
	"retailcore/internal/domain/documents/commission"
	"retailcore/internal/domain/documents/einvoice"
	"retailcore/internal/domain/documents/invoice"
	"retailcore/internal/domain/documents/salesreturn"
	"retailcore/internal/domain/inventory"
	"retailcore/internal/domain/pricing"
	"retailcore/internal/domain/tax"
	v1 "retailcore/internal/infrastructure/http/v1"
	"retailcore/internal/infrastructure/portal"
	"retailcore/internal/infrastructure/storage/postgres"
	"retailcore/internal/infrastructure/storage/postgres/document_repo"
	"retailcore/pkg/logger"
	"retailcore/pkg/numerator"
)

const version = "1.0.0"

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

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting retailcore server", "env", cfg.App.Env, "version", version)

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.DSN()))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// Storage layer
	auditStore, err := postgres.NewAuditStore(txManager)
	if err != nil {
		log.Fatalw("failed to create audit store", "error", err)
	}
	batchRepo := postgres.NewBatchRepo(txManager)
	journal := postgres.NewSubmissionJournal(txManager)
	invoiceRepo := document_repo.NewInvoiceRepo(txManager)
	returnRepo := document_repo.NewSalesReturnRepo(txManager)
	commissionRepo := document_repo.NewCommissionRepo(txManager)
	einvoiceRepo := document_repo.NewEInvoiceRepo(txManager)

	// Domain layer
	loyaltyRate, err := decimal.NewFromString(cfg.Pricing.LoyaltyRate)
	if err != nil {
		log.Fatalw("invalid loyalty rate", "value", cfg.Pricing.LoyaltyRate)
	}
	defaultTax, err := decimal.NewFromString(cfg.Pricing.DefaultTaxPercent)
	if err != nil {
		log.Fatalw("invalid default tax percent", "value", cfg.Pricing.DefaultTaxPercent)
	}

	pricer := pricing.NewEngine(loyaltyRate)
	taxes := tax.NewTable(defaultTax)
	allocator := inventory.NewAllocator(batchRepo)
	numbers := numerator.New(pool.Unwrap())
	portalClient := portal.NewClient(cfg.Portal)

	invoiceService := invoice.NewService(
		invoiceRepo, pricer, allocator, taxes, auditStore, numbers, txManager,
		cfg.Pricing.IssuerStateCode,
	)
	returnService := salesreturn.NewService(
		returnRepo, invoiceService, allocator, auditStore, numbers, txManager,
	)
	commissionService := commission.NewService(
		commissionRepo, invoiceService, auditStore, numbers, txManager,
	)
	einvoiceService := einvoice.NewService(
		einvoiceRepo, invoiceService, portalClient, journal, auditStore, txManager,
		cfg.Portal.MaxAttempts, cfg.Portal.BackoffBase,
	)
	resolver := documents.NewResolver(invoiceService, returnService, commissionService, einvoiceService)

	idempotencyStore := postgres.NewIdempotencyStore(txManager, 10*time.Minute)

	// Sweep expired idempotency keys so the table does not grow forever.
	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				if n, err := idempotencyStore.CleanupExpired(cleanupCtx); err != nil {
					log.Warnw("idempotency cleanup failed", "error", err)
				} else if n > 0 {
					log.Debugw("idempotency keys expired", "removed", n)
				}
			}
		}
	}()

	router := v1.NewRouter(v1.RouterConfig{
		Pool:             pool.Unwrap(),
		Logger:           log,
		Version:          version,
		Invoices:         invoiceService,
		Returns:          returnService,
		Commissions:      commissionService,
		EInvoices:        einvoiceService,
		Resolver:         resolver,
		Batches:          batchRepo,
		IdempotencyStore: idempotencyStore,
	})

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infow("http server listening", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("http server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("graceful shutdown failed", "error", err)
	}
	log.Info("server stopped")
}
