// Package main bulk-loads stock batches and tax rates from a JSON file.
// Intended for local development and demo environments.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"retailcore/internal/core/config"
	"retailcore/internal/infrastructure/storage/postgres"
	"retailcore/pkg/logger"
)

type seedBatch struct {
	ProductID      string          `json:"product_id"`
	BatchNo        string          `json:"batch_no"`
	Quantity       int64           `json:"quantity"`
	ExpiryDate     *time.Time      `json:"expiry_date"`
	RetailPrice    decimal.Decimal `json:"retail_price"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
}

type seedFile struct {
	Batches []seedBatch `json:"batches"`
}

func main() {
	path := flag.String("file", "seed.json", "path to the seed file")
	flag.Parse()

	cfg := config.Load()

	log, err := logger.New(logger.Config{Level: cfg.App.LogLevel, Development: true})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalw("failed to read seed file", "path", *path, "error", err)
	}

	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		log.Fatalw("failed to parse seed file", "error", err)
	}
	if len(seed.Batches) == 0 {
		log.Fatalw("seed file has no batches", "path", *path)
	}

	ctx := logger.WithLogger(context.Background(), log.WithComponent("seed"))
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.DSN()))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	inserter := postgres.NewBatchInserter(txManager)

	columns := []string{
		"product_id", "batch_no", "quantity_on_hand", "expiry_date",
		"retail_price", "wholesale_price", "tax_rate", "updated_at",
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(seed.Batches))
	for _, b := range seed.Batches {
		// Zero expiry means the batch never expires.
		var expiry time.Time
		if b.ExpiryDate != nil {
			expiry = *b.ExpiryDate
		}
		rows = append(rows, []any{
			b.ProductID, b.BatchNo, b.Quantity, expiry,
			b.RetailPrice, b.WholesalePrice, b.TaxRate, now,
		})
	}

	var inserted int64
	err = txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		n, err := inserter.CopyFromSlice(ctx, "inv_batches", columns, rows)
		inserted = n
		return err
	})
	if err != nil {
		log.Fatalw("seed failed", "error", err)
	}

	log.Infow("seed complete", "batches", inserted)
}
