package http_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/catalogo-sync/internal/application/audit"
	"github.com/jhoicas/catalogo-sync/internal/application/catalogsync"
	"github.com/jhoicas/catalogo-sync/internal/application/dto"
	"github.com/jhoicas/catalogo-sync/internal/application/pricefeed"
	"github.com/jhoicas/catalogo-sync/internal/application/usecase"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
	"github.com/jhoicas/catalogo-sync/internal/infrastructure/memory"
	"github.com/jhoicas/catalogo-sync/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/catalogo-sync/internal/interfaces/http"
	"github.com/jhoicas/catalogo-sync/pkg/logger"
	pkgjwt "github.com/jhoicas/catalogo-sync/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: API completa sobre catálogo, tienda y auditoría en memoria
// ──────────────────────────────────────────────────────────────────────────────

type apiFixture struct {
	app     *fiber.App
	catalog *memory.Catalog
	store   *memory.Store
	runs    *memory.SyncRuns
	token   string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	catalog := memory.NewCatalog()
	catalog.Put(entity.SourceNode{ID: 1, Title: "Motor", ChildIDs: []int64{2}})
	catalog.Put(entity.SourceNode{ID: 2, Title: "Filtros"})

	store := memory.NewStore()
	store.SeedProduct("AB-12", "100.00", entity.ProductStatusPublish)

	runs := memory.NewSyncRuns()
	log := logger.Nop()
	recorder := audit.NewRunRecorder(runs, log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		CategorySync: catalogsync.NewCategorySyncUseCase(catalog, store, recorder, time.Second, log),
		PriceSync:    pricefeed.NewPriceSyncUseCase(store, pricefeed.NewNormalizer(), recorder, log),
		SyncRuns:     usecase.NewSyncRunUseCase(runs, pdf.NewMarotoPDFGenerator("tests")),
		Pricing: entity.PricingConfig{
			FXRate:       decimal.NewFromInt(13),
			MarkupPct:    decimal.NewFromInt(20),
			RoundingMode: entity.RoundNone,
		},
		SyncDefaults: pricefeed.ReconcileOptions{Concurrency: 2, Publish: true, CallTimeout: time.Second},
		JWTSecret:    testJWTSecret,
		ServiceName:  "catalogo-sync",
	})
	return &apiFixture{app: app, catalog: catalog, store: store, runs: runs, token: tokenForRole(t, pkgjwt.RoleSync)}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", f.token)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests de rutas públicas y protegidas
// ──────────────────────────────────────────────────────────────────────────────

func TestHealth_Publico(t *testing.T) {
	f := newAPIFixture(t)
	resp, err := f.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSync_SinToken_Retorna401(t *testing.T) {
	f := newAPIFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/sync/categories/plan", bytes.NewBufferString(`{"roots":[1]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests categorías
// ──────────────────────────────────────────────────────────────────────────────

func TestPlanCategories(t *testing.T) {
	f := newAPIFixture(t)
	resp := f.do(t, http.MethodPost, "/api/sync/categories/plan", dto.CategoryPlanRequest{Roots: []int64{1}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var plan dto.CategoryPlanResponse
	decode(t, resp, &plan)
	assert.Equal(t, 2, plan.Create)
	require.Len(t, plan.Items, 2)
	assert.Equal(t, "src-cat-1", plan.Items[0].Slug)
	assert.Equal(t, int64(1), plan.Items[1].ParentSourceID)
	assert.Equal(t, 0, f.store.Writes(), "planificar no escribe")
}

func TestPlanThenApply_Convergen(t *testing.T) {
	f := newAPIFixture(t)
	resp := f.do(t, http.MethodPost, "/api/sync/categories/plan", dto.CategoryPlanRequest{Roots: []int64{1}})
	var plan dto.CategoryPlanResponse
	decode(t, resp, &plan)

	resp = f.do(t, http.MethodPost, "/api/sync/categories/apply", dto.CategoryApplyRequest{Plan: plan.Items})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result entity.ReconciliationResult
	decode(t, resp, &result)
	assert.Equal(t, 2, result.Created)
	assert.NotEmpty(t, result.RunID)

	resp = f.do(t, http.MethodPost, "/api/sync/categories/plan", dto.CategoryPlanRequest{Roots: []int64{1}})
	var again dto.CategoryPlanResponse
	decode(t, resp, &again)
	assert.Equal(t, 2, again.Noop)
}

func TestApplyCategories_PlanInvalido(t *testing.T) {
	f := newAPIFixture(t)
	bad := []dto.PlanItemDTO{{SourceID: 1, Slug: "src-cat-1", Name: "Motor", Action: "delete"}}
	resp := f.do(t, http.MethodPost, "/api/sync/categories/apply", dto.CategoryApplyRequest{Plan: bad})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSyncCategories_ErroresMapeados(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/api/sync/categories", dto.CategoryPlanRequest{Roots: []int64{0}})
	var e dto.ErrorResponse
	decode(t, resp, &e)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", e.Code)

	f.catalog.FailOn(2, errors.New("timeout"))
	resp = f.do(t, http.MethodPost, "/api/sync/categories", dto.CategoryPlanRequest{Roots: []int64{1}})
	decode(t, resp, &e)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "UPSTREAM", e.Code)
	assert.Equal(t, 0, f.store.Writes())
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests precios
// ──────────────────────────────────────────────────────────────────────────────

func TestReconcilePrices_JSON(t *testing.T) {
	f := newAPIFixture(t)
	req := dto.PriceSyncRequest{Rows: []map[string]any{
		{"Part No": "AB-12", "Price": 10},
		{"Part No": "ZZ-99", "Price": "5"},
		{"Part No": "", "Price": "5"},
	}}
	resp := f.do(t, http.MethodPost, "/api/sync/prices", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result entity.ReconciliationResult
	decode(t, resp, &result)
	assert.Equal(t, 3, result.Attempted)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.NotFound)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "156.00", result.Samples.Updated[0].Price)

	p, ok := f.store.Product("AB-12")
	require.True(t, ok)
	assert.Equal(t, "156.00", p.RegularPrice)
}

func TestReconcilePrices_SkipUnchangedPorPeticion(t *testing.T) {
	f := newAPIFixture(t)
	rows := []map[string]any{{"Part No": "AB-12", "Price": 10}}

	// Primera corrida deja el precio en 156.00; repetirla sin la opción vuelve a escribir.
	for i := 0; i < 2; i++ {
		resp := f.do(t, http.MethodPost, "/api/sync/prices", dto.PriceSyncRequest{Rows: rows})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var result entity.ReconciliationResult
		decode(t, resp, &result)
		assert.Equal(t, 1, result.Updated)
		assert.Equal(t, 0, result.Skipped)
	}
	assert.Equal(t, 2, f.store.Writes())

	skip := true
	resp := f.do(t, http.MethodPost, "/api/sync/prices", dto.PriceSyncRequest{Rows: rows, SkipUnchanged: &skip})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result entity.ReconciliationResult
	decode(t, resp, &result)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, pricefeed.ReasonUnchanged, result.Samples.Skipped[0].Reason)
	assert.Equal(t, 2, f.store.Writes(), "sin escritura para el precio igual")
}

func TestReconcilePrices_PricingInvalido(t *testing.T) {
	f := newAPIFixture(t)
	req := dto.PriceSyncRequest{
		Rows:    []map[string]any{{"Part No": "AB-12", "Price": 10}},
		Pricing: dto.PricingDTO{FXRate: "abc"},
	}
	resp := f.do(t, http.MethodPost, "/api/sync/prices", req)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, f.store.Writes())
}

func TestUploadPrices_CSVDryRun(t *testing.T) {
	f := newAPIFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "feed.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Part No;Price\nAB-12;10\n"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("dry_run", "true"))
	require.NoError(t, mw.WriteField("markup_pct", "0"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sync/prices/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", f.token)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result entity.ReconciliationResult
	decode(t, resp, &result)
	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, "130.00", result.Samples.Updated[0].Price)
	assert.Equal(t, 0, f.store.Writes(), "dry run no escribe")
}

func TestUploadPrices_SinArchivo(t *testing.T) {
	f := newAPIFixture(t)
	resp := f.do(t, http.MethodPost, "/api/sync/prices/upload", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests auditoría
// ──────────────────────────────────────────────────────────────────────────────

func TestRuns_ListGetReport(t *testing.T) {
	f := newAPIFixture(t)
	resp := f.do(t, http.MethodPost, "/api/sync/categories", dto.CategoryPlanRequest{Roots: []int64{1}})
	var synced dto.CategorySyncResponse
	decode(t, resp, &synced)
	runID := synced.Result.RunID
	require.NotEmpty(t, runID)

	resp = f.do(t, http.MethodGet, "/api/sync/runs?kind=categories", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.SyncRunListResponse
	decode(t, resp, &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, runID, list.Items[0].ID)

	resp = f.do(t, http.MethodGet, "/api/sync/runs/"+runID, nil)
	var run dto.SyncRunResponse
	decode(t, resp, &run)
	assert.Equal(t, 2, run.Result.Created)

	resp = f.do(t, http.MethodGet, "/api/sync/runs/"+runID+"/report", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	resp = f.do(t, http.MethodGet, "/api/sync/runs/no-existe", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/sync/runs?kind=otro", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
