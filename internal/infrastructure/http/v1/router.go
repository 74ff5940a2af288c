// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"retailcore/internal/domain/documents"
	"retailcore/internal/domain/documents/commission"
	"retailcore/internal/domain/documents/einvoice"
	"retailcore/internal/domain/documents/invoice"
	"retailcore/internal/domain/documents/salesreturn"
	"retailcore/internal/domain/inventory"
	"retailcore/internal/infrastructure/http/v1/handlers"
	"retailcore/internal/infrastructure/http/v1/middleware"
	"retailcore/internal/infrastructure/storage/postgres"
	"retailcore/pkg/logger"
)

// RouterConfig holds the wired services the API exposes.
type RouterConfig struct {
	Pool    *pgxpool.Pool
	Logger  *logger.Logger
	Version string

	Invoices    *invoice.Service
	Returns     *salesreturn.Service
	Commissions *commission.Service
	EInvoices   *einvoice.Service
	Resolver    *documents.Resolver
	Batches     inventory.Repository

	// IdempotencyStore enables replay-safe POSTs when set.
	IdempotencyStore *postgres.IdempotencyStore
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Actor())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()

	api := router.Group("/api/v1")
	if cfg.IdempotencyStore != nil {
		api.Use(middleware.Idempotency(cfg.IdempotencyStore))
	}

	{
		invoiceHandler := handlers.NewInvoiceHandler(base, cfg.Invoices)
		invoices := api.Group("/invoices")
		invoices.GET("", invoiceHandler.List)
		invoices.POST("", invoiceHandler.Create)
		invoices.GET("/:id", invoiceHandler.Get)
		invoices.POST("/:id/void", invoiceHandler.Void)
	}

	{
		returnHandler := handlers.NewSalesReturnHandler(base, cfg.Returns)
		returns := api.Group("/returns")
		returns.GET("", returnHandler.List)
		returns.POST("", returnHandler.Create)
		returns.GET("/:id", returnHandler.Get)
		returns.POST("/:id/approve", returnHandler.Approve)
		returns.POST("/:id/reject", returnHandler.Reject)
		returns.POST("/:id/complete", returnHandler.Complete)
	}

	{
		commissionHandler := handlers.NewCommissionHandler(base, cfg.Commissions)
		commissions := api.Group("/commissions")
		commissions.GET("", commissionHandler.List)
		commissions.POST("", commissionHandler.Create)
		commissions.GET("/:id", commissionHandler.Get)
		commissions.POST("/:id/approve", commissionHandler.Approve)
		commissions.POST("/:id/reject", commissionHandler.Reject)
		commissions.POST("/:id/pay", commissionHandler.Pay)
	}

	{
		einvoiceHandler := handlers.NewEInvoiceHandler(base, cfg.EInvoices)
		einvoices := api.Group("/einvoices")
		einvoices.GET("", einvoiceHandler.List)
		einvoices.POST("", einvoiceHandler.Generate)
		einvoices.GET("/:id", einvoiceHandler.Get)
		einvoices.POST("/:id/submit", einvoiceHandler.Submit)
		einvoices.POST("/:id/cancel", einvoiceHandler.Cancel)
	}

	{
		batchHandler := handlers.NewBatchHandler(base, cfg.Batches)
		batches := api.Group("/batches")
		batches.POST("", batchHandler.Create)
		batches.GET("/:productId", batchHandler.ListByProduct)
		batches.GET("/:productId/:batchNo", batchHandler.Get)
	}

	{
		documentHandler := handlers.NewDocumentHandler(base, cfg.Resolver)
		api.POST("/documents/transition", documentHandler.Transition)
	}

	return router
}
