package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/catalogo-sync/internal/application/catalogsync"
	"github.com/jhoicas/catalogo-sync/internal/application/dto"
	"github.com/jhoicas/catalogo-sync/internal/application/pricefeed"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
	"github.com/jhoicas/catalogo-sync/internal/infrastructure/feed"
)

// SyncHandler expone la sincronización de categorías y la reconciliación de precios.
type SyncHandler struct {
	categories *catalogsync.CategorySyncUseCase
	prices     *pricefeed.PriceSyncUseCase
	pricing    entity.PricingConfig
	defaults   pricefeed.ReconcileOptions
}

// NewSyncHandler construye el handler. pricing y defaults vienen de la configuración del servicio
// y cada petición puede sobreescribirlos.
func NewSyncHandler(
	categories *catalogsync.CategorySyncUseCase,
	prices *pricefeed.PriceSyncUseCase,
	pricing entity.PricingConfig,
	defaults pricefeed.ReconcileOptions,
) *SyncHandler {
	return &SyncHandler{categories: categories, prices: prices, pricing: pricing, defaults: defaults}
}

// PlanCategories godoc
// @Summary      Planificar sincronización de categorías
// @Description  Recorre el árbol origen desde las raíces y devuelve el plan create/update/noop sin escribir.
// @Tags         sync
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CategoryPlanRequest  true  "Raíces a recorrer"
// @Success      200   {object}  dto.CategoryPlanResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/sync/categories/plan [post]
func (h *SyncHandler) PlanCategories(c *fiber.Ctx) error {
	var in dto.CategoryPlanRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	items, err := h.categories.PlanCategorySync(c.Context(), in.Roots)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewCategoryPlanResponse(items))
}

// ApplyCategories godoc
// @Summary      Aplicar un plan de categorías
// @Tags         sync
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CategoryApplyRequest  true  "Plan revisado"
// @Success      200   {object}  entity.ReconciliationResult
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/sync/categories/apply [post]
func (h *SyncHandler) ApplyCategories(c *fiber.Ctx) error {
	var in dto.CategoryApplyRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	result, err := h.categories.ApplyCategorySync(c.Context(), dto.ToPlanItems(in.Plan), in.DryRun)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// SyncCategories godoc
// @Summary      Planificar y aplicar en un paso
// @Tags         sync
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CategoryPlanRequest  true  "Raíces y modo"
// @Success      200   {object}  dto.CategorySyncResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/sync/categories [post]
func (h *SyncHandler) SyncCategories(c *fiber.Ctx) error {
	var in dto.CategoryPlanRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	plan, result, err := h.categories.SyncCategories(c.Context(), in.Roots, in.DryRun)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.CategorySyncResponse{Plan: dto.NewCategoryPlanResponse(plan), Result: result})
}

// ReconcilePrices godoc
// @Summary      Reconciliar precios desde filas JSON
// @Tags         sync
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PriceSyncRequest  true  "Filas del feed y parámetros"
// @Success      200   {object}  entity.ReconciliationResult
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/sync/prices [post]
func (h *SyncHandler) ReconcilePrices(c *fiber.Ctx) error {
	var in dto.PriceSyncRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.Rows == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "rows es requerido"})
	}
	cfg, err := in.Pricing.Merge(h.pricing)
	if err != nil {
		return respondError(c, err)
	}
	result, err := h.prices.ReconcileFeed(c.Context(), dto.ToFeedRows(in.Rows), cfg, h.options(in.DryRun, in.Publish, in.SkipUnchanged, in.Concurrency))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// UploadPrices godoc
// @Summary      Reconciliar precios desde un archivo CSV o XML
// @Tags         sync
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file           formData  file    true   "Feed CSV o XML"
// @Param        dry_run        formData  bool    false  "Simular sin escribir"
// @Param        publish        formData  bool    false  "Publicar productos actualizados"
// @Param        skip_unchanged formData  bool    false  "No reescribir productos cuyo precio ya coincide"
// @Param        concurrency    formData  int     false  "Peticiones simultáneas"
// @Param        fx_rate        formData  string  false  "Tasa de cambio"
// @Param        markup_pct     formData  string  false  "Margen %"
// @Param        rounding_step  formData  string  false  "Paso de redondeo"
// @Param        rounding_mode  formData  string  false  "nearest, up, down o none"
// @Success      200   {object}  entity.ReconciliationResult
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/sync/prices/upload [post]
func (h *SyncHandler) UploadPrices(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "archivo 'file' requerido"})
	}
	f, err := fh.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer f.Close()

	rows, err := feed.Read(fh.Filename, f)
	if err != nil {
		return respondError(c, err)
	}

	pricingIn := dto.PricingDTO{
		FXRate:       c.FormValue("fx_rate"),
		MarkupPct:    c.FormValue("markup_pct"),
		RoundingStep: c.FormValue("rounding_step"),
		RoundingMode: c.FormValue("rounding_mode"),
	}
	cfg, err := pricingIn.Merge(h.pricing)
	if err != nil {
		return respondError(c, err)
	}
	concurrency, _ := strconv.Atoi(c.FormValue("concurrency"))
	opts := h.options(formBool(c.FormValue("dry_run")), formFlag(c, "publish"), formFlag(c, "skip_unchanged"), concurrency)

	result, err := h.prices.ReconcileFeed(c.Context(), rows, cfg, opts)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

func (h *SyncHandler) options(dryRun bool, publish, skipUnchanged *bool, concurrency int) pricefeed.ReconcileOptions {
	opts := h.defaults
	opts.DryRun = dryRun
	if publish != nil {
		opts.Publish = *publish
	}
	if skipUnchanged != nil {
		opts.SkipUnchanged = *skipUnchanged
	}
	if concurrency != 0 {
		opts.Concurrency = concurrency
	}
	return opts
}

// formFlag booleano opcional de un campo multipart: nil si no se envió.
func formFlag(c *fiber.Ctx, key string) *bool {
	v := c.FormValue(key)
	if v == "" {
		return nil
	}
	b := formBool(v)
	return &b
}

func formBool(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}
