package router

import (
	"time"

	"restopos/internal/config"
	"restopos/internal/handler"
	"restopos/internal/infra"
	"restopos/internal/middleware"
	"restopos/internal/repository"
	"restopos/internal/service"
	"restopos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// rdb, dispatcher and cache may be nil when Redis is disabled.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher, cache *infra.JSONCache) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigin))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(cfg.RateLimitPerMinute, time.Minute))

	// ── Repositories ─────────────────────────────────────────────────────────
	orderRepo := repository.NewOrderRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	tableRepo := repository.NewTableRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	orderSvc := service.NewOrderService(orderRepo, tableRepo)
	settlementSvc := service.NewSettlementService(orderRepo, invoiceRepo, tableRepo, dispatcher)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, cache)
	tableSvc := service.NewTableService(tableRepo)
	reportSvc := service.NewReportService(invoiceRepo, tableRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	ordersH := handler.NewOrdersHandler(orderSvc)
	settlementsH := handler.NewSettlementsHandler(settlementSvc)
	invoicesH := handler.NewInvoicesHandler(invoiceSvc, reportSvc)
	tablesH := handler.NewTablesHandler(tableSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	floor := middleware.RequireRole(middleware.RoleMesero, middleware.RoleCajero, middleware.RoleAdmin)
	register := middleware.RequireRole(middleware.RoleCajero, middleware.RoleAdmin)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		orders := v1.Group("/orders", floor)
		{
			orders.POST("", ordersH.AppendLines)
			orders.GET("", ordersH.List)
			orders.GET("/:id", ordersH.Get)
			orders.DELETE("/:id/lines/:line_id", ordersH.RemoveLine)
		}

		// Settling and reading invoices is a cashier task
		v1.POST("/orders/:id/settlements", register, settlementsH.Settle)

		invoices := v1.Group("/invoices", register)
		{
			invoices.GET("", invoicesH.List)
			invoices.GET("/summary", invoicesH.Summary)
			invoices.GET("/:id", invoicesH.Get)
		}

		v1.GET("/tables/occupied-with-pending", floor, tablesH.OccupiedWithPending)
	}

	// Swagger UI, only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
