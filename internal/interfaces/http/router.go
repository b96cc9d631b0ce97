package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/catalogo-sync/internal/application/catalogsync"
	"github.com/jhoicas/catalogo-sync/internal/application/pricefeed"
	"github.com/jhoicas/catalogo-sync/internal/application/usecase"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
	"github.com/jhoicas/catalogo-sync/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CategorySync *catalogsync.CategorySyncUseCase
	PriceSync    *pricefeed.PriceSyncUseCase
	SyncRuns     *usecase.SyncRunUseCase
	Pricing      entity.PricingConfig
	SyncDefaults pricefeed.ReconcileOptions
	JWTSecret    string
	ServiceName  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	// Health (público)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})

	// Rutas protegidas (requieren Bearer Token con rol admin o sync)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret), RequireRole(jwt.RoleAdmin, jwt.RoleSync))
	sync := api.Group("/sync")

	syncHandler := NewSyncHandler(deps.CategorySync, deps.PriceSync, deps.Pricing, deps.SyncDefaults)
	sync.Post("/categories/plan", syncHandler.PlanCategories)
	sync.Post("/categories/apply", syncHandler.ApplyCategories)
	sync.Post("/categories", syncHandler.SyncCategories)
	sync.Post("/prices", syncHandler.ReconcilePrices)
	sync.Post("/prices/upload", syncHandler.UploadPrices)

	// Auditoría de ejecuciones
	runHandler := NewRunHandler(deps.SyncRuns)
	sync.Get("/runs", runHandler.List)
	sync.Get("/runs/:id", runHandler.GetByID)
	sync.Get("/runs/:id/report", runHandler.Report)
}
