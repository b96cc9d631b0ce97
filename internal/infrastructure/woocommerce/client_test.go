package woocommerce_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/catalogo-sync/internal/domain"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
	"github.com/jhoicas/catalogo-sync/internal/infrastructure/woocommerce"
)

// ──────────────────────────────────────────────────────────────────────────────
// Servidor WooCommerce de prueba
// ──────────────────────────────────────────────────────────────────────────────

type fakeWC struct {
	lastBody map[string]any
}

func (f *fakeWC) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/wc/v3/products/categories", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "ck_test", user)
		assert.Equal(t, "cs_test", pass)

		switch r.Method {
		case http.MethodGet:
			if r.URL.Query().Get("slug") == "src-cat-1" {
				_, _ = io.WriteString(w, `[{"id":11,"name":"Motor","slug":"src-cat-1","parent":0}]`)
				return
			}
			_, _ = io.WriteString(w, `[]`)
		case http.MethodPost:
			f.decode(t, r)
			if f.lastBody["slug"] == "src-cat-dup" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"code":"term_exists","message":"A term with the name provided already exists."}`)
				return
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":42,"name":"Filtros","slug":"src-cat-2","parent":11}`)
		}
	})
	mux.HandleFunc("/wp-json/wc/v3/products/categories/11", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			f.decode(t, r)
		}
		_, _ = io.WriteString(w, `{"id":11,"name":"Frenos &amp; Embragues","slug":"src-cat-1","parent":3}`)
	})
	mux.HandleFunc("/wp-json/wc/v3/products", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sku") == "AB-12" {
			_, _ = io.WriteString(w, `[{"id":501,"sku":"AB-12","regular_price":"120.00","status":"draft","stock_quantity":null}]`)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	})
	mux.HandleFunc("/wp-json/wc/v3/products/501", func(w http.ResponseWriter, r *http.Request) {
		f.decode(t, r)
		_, _ = io.WriteString(w, `{"id":501}`)
	})
	mux.HandleFunc("/wp-json/wc/v3/products/502", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":"rest_invalid_param"}`)
	})
	return mux
}

func (f *fakeWC) decode(t *testing.T, r *http.Request) {
	f.lastBody = map[string]any{}
	require.NoError(t, json.NewDecoder(r.Body).Decode(&f.lastBody))
}

func newClient(t *testing.T) (*woocommerce.Client, *fakeWC) {
	t.Helper()
	fake := &fakeWC{}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	return woocommerce.NewClient(srv.URL, "ck_test", "cs_test", time.Second), fake
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests categorías
// ──────────────────────────────────────────────────────────────────────────────

func TestCategories_BuscarObtenerCrearActualizar(t *testing.T) {
	client, fake := newClient(t)
	ctx := context.Background()

	id, found, err := client.FindCategoryBySlug(ctx, "src-cat-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(11), id)

	_, found, err = client.FindCategoryBySlug(ctx, "src-cat-99")
	require.NoError(t, err)
	assert.False(t, found)

	cat, err := client.GetCategory(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, "Frenos & Embragues", cat.Name, "las entidades HTML se decodifican")
	assert.Equal(t, int64(3), cat.ParentID)

	missing, err := client.GetCategory(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	newID, err := client.CreateCategory(ctx, entity.CategoryInput{Name: "Filtros", Slug: "src-cat-2", Parent: 11})
	require.NoError(t, err)
	assert.Equal(t, int64(42), newID)
	assert.Equal(t, "src-cat-2", fake.lastBody["slug"])
	assert.Equal(t, float64(11), fake.lastBody["parent"])

	require.NoError(t, client.UpdateCategory(ctx, 11, entity.CategoryInput{Name: "Frenos", Parent: 0}))
	_, hasSlug := fake.lastBody["slug"]
	assert.False(t, hasSlug, "el update no envía slug")
	assert.Equal(t, float64(0), fake.lastBody["parent"])
}

func TestCreateCategory_ErrorDeEscritura(t *testing.T) {
	client, _ := newClient(t)

	_, err := client.CreateCategory(context.Background(), entity.CategoryInput{Name: "X", Slug: "src-cat-dup"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTargetWrite)

	var wErr *domain.TargetWriteError
	require.ErrorAs(t, err, &wErr)
	assert.Equal(t, http.StatusBadRequest, wErr.Status)
	assert.Contains(t, wErr.Body, "term_exists")
}

func TestCreateCategory_CuerpoRecortadoPorRunas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, strings.Repeat("€", 250))
	}))
	t.Cleanup(srv.Close)
	client := woocommerce.NewClient(srv.URL, "ck_test", "cs_test", time.Second)

	_, err := client.CreateCategory(context.Background(), entity.CategoryInput{Name: "X", Slug: "src-cat-3"})
	var wErr *domain.TargetWriteError
	require.ErrorAs(t, err, &wErr)
	assert.True(t, utf8.ValidString(wErr.Body), "el recorte no parte caracteres multibyte")
	assert.Equal(t, 200, utf8.RuneCountInString(wErr.Body))
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests productos
// ──────────────────────────────────────────────────────────────────────────────

func TestProducts_BuscarYActualizar(t *testing.T) {
	client, fake := newClient(t)
	ctx := context.Background()

	p, err := client.FindProductBySKU(ctx, "AB-12")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, int64(501), p.ID)
	assert.Equal(t, "120.00", p.RegularPrice)
	assert.Nil(t, p.StockQuantity)

	none, err := client.FindProductBySKU(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, none)

	qty := 0
	res, err := client.UpdateProduct(ctx, 501, entity.ProductPatch{RegularPrice: decimal.RequireFromString("156"), Publish: true, StockQuantity: &qty})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "156.00", fake.lastBody["regular_price"])
	assert.Equal(t, "publish", fake.lastBody["status"])
	assert.Equal(t, true, fake.lastBody["manage_stock"])
	assert.Equal(t, float64(0), fake.lastBody["stock_quantity"])

	res, err = client.UpdateProduct(ctx, 502, entity.ProductPatch{RegularPrice: decimal.RequireFromString("1")})
	require.NoError(t, err, "un status no 2xx se devuelve en el resultado")
	assert.False(t, res.OK)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Contains(t, res.Body, "rest_invalid_param")
}
