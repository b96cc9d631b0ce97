package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/jhoicas/catalogo-sync/docs"
	"github.com/jhoicas/catalogo-sync/internal/application/audit"
	"github.com/jhoicas/catalogo-sync/internal/application/catalogsync"
	"github.com/jhoicas/catalogo-sync/internal/application/pricefeed"
	"github.com/jhoicas/catalogo-sync/internal/application/usecase"
	"github.com/jhoicas/catalogo-sync/internal/domain/repository"
	"github.com/jhoicas/catalogo-sync/internal/infrastructure/feed"
	infrapdf "github.com/jhoicas/catalogo-sync/internal/infrastructure/pdf"
	"github.com/jhoicas/catalogo-sync/internal/infrastructure/postgres"
	"github.com/jhoicas/catalogo-sync/internal/infrastructure/sourcecatalog"
	"github.com/jhoicas/catalogo-sync/internal/infrastructure/woocommerce"
	httpRouter "github.com/jhoicas/catalogo-sync/internal/interfaces/http"
	"github.com/jhoicas/catalogo-sync/pkg/config"
	"github.com/jhoicas/catalogo-sync/pkg/logger"
)

// @title        catalogo-sync API
// @version      1.0
// @description  Sincronización del catálogo de origen con la tienda destino: categorías y precios.
// @BasePath     /
// @securityDefinitions.apikey Bearer
// @in           header
// @name         Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	pricingCfg, err := cfg.Pricing.ToEntity()
	if err != nil {
		log.Fatal().Err(err).Msg("configuración de precios inválida")
	}

	ctx := context.Background()

	// Auditoría en PostgreSQL: opcional; sin DB las sincronizaciones funcionan igual.
	var runRepo repository.SyncRunRepository
	if cfg.Sync.AuditEnabled && cfg.DB.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migración de sync_runs")
		}
		runRepo = postgres.NewSyncRunRepository(pool)
	} else {
		log.Warn().Msg("auditoría deshabilitada: no hay base de datos configurada")
	}
	recorder := audit.NewRunRecorder(runRepo, log)

	source := sourcecatalog.NewClient(cfg.Source.BaseURL, cfg.Source.APIToken, cfg.Source.Timeout)
	store := woocommerce.NewClient(cfg.Store.BaseURL, cfg.Store.ConsumerKey, cfg.Store.ConsumerSecret, cfg.Store.Timeout)

	categoryUC := catalogsync.NewCategorySyncUseCase(source, store, recorder, cfg.Sync.CallTimeout, log)
	priceUC := pricefeed.NewPriceSyncUseCase(store, pricefeed.NewNormalizer(), recorder, log)
	runUC := usecase.NewSyncRunUseCase(runRepo, infrapdf.NewMarotoPDFGenerator(cfg.App.Name))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    feed.MaxFeedSize,
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Minute * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "catalogo-sync API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		CategorySync: categoryUC,
		PriceSync:    priceUC,
		SyncRuns:     runUC,
		Pricing:      pricingCfg,
		SyncDefaults: pricefeed.ReconcileOptions{
			Concurrency:   cfg.Sync.Concurrency,
			ChunkSize:     cfg.Sync.ChunkSize,
			Publish:       cfg.Sync.Publish,
			SkipUnchanged: cfg.Sync.SkipUnchanged,
			CallTimeout:   cfg.Sync.CallTimeout,
		},
		JWTSecret:   cfg.JWT.Secret,
		ServiceName: cfg.App.Name,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
