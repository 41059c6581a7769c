package router

import (
	"context"
	"time"

	"inventorypro/internal/config"
	"inventorypro/internal/handler"
	"inventorypro/internal/middleware"
	"inventorypro/internal/model"
	"inventorypro/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the services and backends the HTTP layer is built on. DB and
// Redis are optional.
type Deps struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Shifts service.ShiftService
	Auth   service.AuthService
	POS    service.POSService
	Gate   service.GateService
	Ledger service.LedgerService
}

// New returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.Origins()))
	r.Use(middleware.ErrorHandler())

	// Endpoints that check a PIN or password share one limiter per client IP.
	credentials := middleware.NewRateLimiter(10, time.Minute).Middleware()

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(d.Auth)
	shiftH := handler.NewShiftHandler(d.Shifts, d.Auth)
	posH := handler.NewPOSHandler(d.POS)
	gateH := handler.NewGateHandler(d.Gate)
	ledgerH := handler.NewLedgerHandler(d.Ledger)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.Redis))
	r.POST("/v1/auth/login", credentials, authH.Login)
	r.POST("/v1/shift/open", credentials, shiftH.Open)
	r.GET("/v1/shift/notes", shiftH.Notes)

	admin := middleware.RequireRole(model.RoleAdmin)
	anyone := middleware.RequireRole(model.RoleAdmin, model.RoleCashier)
	onShift := middleware.ShiftSession(func(ctx context.Context) string {
		current, err := d.Shifts.Active(ctx)
		if err != nil {
			return ""
		}
		return current.ID.String()
	})

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		v1.GET("/auth/me", anyone, authH.Me)

		shift := v1.Group("/shift")
		{
			shift.GET("/active", anyone, shiftH.Active)
			shift.POST("/close", anyone, onShift, shiftH.Close)
			shift.GET("/sales", anyone, ledgerH.ListShiftSales)
			shift.GET("/expected", admin, shiftH.Expected)
			shift.GET("/history", admin, shiftH.History)
		}

		// Catalog: everyone reads, administrators write.
		v1.GET("/products", anyone, ledgerH.ListProducts)
		v1.GET("/products/lookup", anyone, posH.Lookup)
		v1.GET("/products/low-stock", anyone, ledgerH.ListLowStock)
		prods := v1.Group("/products", admin)
		{
			prods.POST("", ledgerH.CreateProduct)
			prods.PUT("/:id", ledgerH.UpdateProduct)
			prods.DELETE("/:id", ledgerH.DeleteProduct)
		}

		v1.POST("/sales", anyone, onShift, posH.CreateSale)
		v1.GET("/sales", anyone, ledgerH.ListSales)
		v1.DELETE("/sales/:id", admin, ledgerH.VoidSale)
		v1.POST("/sales/:id/refund", anyone, onShift, posH.Refund)
		v1.GET("/refunds", anyone, ledgerH.ListRefunds)

		v1.POST("/credits", anyone, onShift, posH.CreateCredit)
		v1.GET("/credits", anyone, ledgerH.ListCredits)
		v1.POST("/credits/:id/payments", anyone, onShift, ledgerH.AddCreditPayment)

		auths := v1.Group("/authorizations", anyone)
		{
			auths.POST("", gateH.Request)
			auths.POST("/:id/verify", credentials, gateH.Verify)
			auths.DELETE("/:id", gateH.Cancel)
		}

		cash := v1.Group("/cash", anyone, onShift)
		{
			cash.POST("/paid-in", gateH.PaidIn)
			cash.POST("/paid-out", gateH.PaidOut)
		}

		v1.GET("/expenses", anyone, ledgerH.ListExpenses)
		v1.POST("/expenses", anyone, onShift, ledgerH.CreateExpense)

		orders := v1.Group("/orders", admin)
		{
			orders.GET("", ledgerH.ListOrders)
			orders.POST("", ledgerH.CreateOrder)
			orders.POST("/:id/receive", ledgerH.ReceiveOrder)
			orders.POST("/:id/cancel", ledgerH.CancelOrder)
		}

		v1.GET("/packs", anyone, ledgerH.ListPacks)
		packs := v1.Group("/packs", admin)
		{
			packs.POST("", ledgerH.CreatePack)
			packs.DELETE("/:id", ledgerH.DeletePack)
		}
	}

	// Swagger UI outside production only.
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
