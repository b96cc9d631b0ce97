// Package woocommerce adaptador REST (wc/v3) de la tienda destino: categorías por slug y
// productos por SKU.
package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/catalogo-sync/internal/application/ports"
	"github.com/jhoicas/catalogo-sync/internal/domain"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
	"github.com/jhoicas/catalogo-sync/internal/domain/pricing"
)

var (
	_ ports.CategoryStore = (*Client)(nil)
	_ ports.ProductStore  = (*Client)(nil)
)

const (
	apiPrefix  = "/wp-json/wc/v3"
	maxBody    = 1 << 20
	maxSnippet = 200
)

// Client cliente de la API REST de WooCommerce con autenticación básica (consumer key/secret).
type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	httpClient     *http.Client
}

// NewClient construye el cliente. baseURL es la raíz del sitio (sin /wp-json).
func NewClient(baseURL, consumerKey, consumerSecret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/") + apiPrefix,
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		httpClient:     &http.Client{Timeout: timeout},
	}
}

// ── Estructuras del protocolo ─────────────────────────────────────────────────

type wcCategory struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Parent int64  `json:"parent"`
}

type wcCategoryInput struct {
	Name   string `json:"name"`
	Slug   string `json:"slug,omitempty"`
	Parent int64  `json:"parent"`
}

type wcProduct struct {
	ID            int64  `json:"id"`
	SKU           string `json:"sku"`
	RegularPrice  string `json:"regular_price"`
	Status        string `json:"status"`
	StockQuantity *int   `json:"stock_quantity"`
}

type wcProductPatch struct {
	RegularPrice  string `json:"regular_price"`
	Status        string `json:"status,omitempty"`
	ManageStock   *bool  `json:"manage_stock,omitempty"`
	StockQuantity *int   `json:"stock_quantity,omitempty"`
}

// response respuesta cruda: el status y el cuerpo ya leído.
type response struct {
	status int
	body   []byte
}

func (r response) ok() bool { return r.status >= 200 && r.status <= 299 }

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) (response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return response{}, fmt.Errorf("serializar request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return response{}, fmt.Errorf("crear HTTP request: %w", err)
	}
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return response{}, fmt.Errorf("timeout o cancelación: %w", ctx.Err())
		}
		return response{}, fmt.Errorf("llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return response{}, fmt.Errorf("leer respuesta: %w", err)
	}
	return response{status: resp.StatusCode, body: raw}, nil
}

// ── Categorías ────────────────────────────────────────────────────────────────

// FindCategoryBySlug implementa ports.CategoryStore.
func (c *Client) FindCategoryBySlug(ctx context.Context, slug string) (int64, bool, error) {
	resp, err := c.do(ctx, http.MethodGet, "/products/categories", url.Values{"slug": {slug}}, nil)
	if err != nil {
		return 0, false, fmt.Errorf("woocommerce: buscar categoría %s: %w", slug, err)
	}
	if !resp.ok() {
		return 0, false, fmt.Errorf("woocommerce: buscar categoría %s: HTTP %d: %s", slug, resp.status, snippet(resp.body))
	}
	var cats []wcCategory
	if err := json.Unmarshal(resp.body, &cats); err != nil {
		return 0, false, fmt.Errorf("woocommerce: deserializar categorías: %w", err)
	}
	for _, cat := range cats {
		if cat.Slug == slug {
			return cat.ID, true, nil
		}
	}
	return 0, false, nil
}

// GetCategory implementa ports.CategoryStore. Devuelve nil, nil si no existe.
func (c *Client) GetCategory(ctx context.Context, id int64) (*entity.TargetCategory, error) {
	resp, err := c.do(ctx, http.MethodGet, "/products/categories/"+strconv.FormatInt(id, 10), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("woocommerce: obtener categoría %d: %w", id, err)
	}
	if resp.status == http.StatusNotFound {
		return nil, nil
	}
	if !resp.ok() {
		return nil, fmt.Errorf("woocommerce: obtener categoría %d: HTTP %d: %s", id, resp.status, snippet(resp.body))
	}
	var cat wcCategory
	if err := json.Unmarshal(resp.body, &cat); err != nil {
		return nil, fmt.Errorf("woocommerce: deserializar categoría: %w", err)
	}
	return &entity.TargetCategory{
		ID:       cat.ID,
		Name:     html.UnescapeString(cat.Name), // WooCommerce devuelve "&amp;" en los nombres
		Slug:     cat.Slug,
		ParentID: cat.Parent,
	}, nil
}

// CreateCategory implementa ports.CategoryStore.
func (c *Client) CreateCategory(ctx context.Context, in entity.CategoryInput) (int64, error) {
	resp, err := c.do(ctx, http.MethodPost, "/products/categories", nil, wcCategoryInput{Name: in.Name, Slug: in.Slug, Parent: in.Parent})
	if err != nil {
		return 0, &domain.TargetWriteError{Op: "create category", Key: in.Slug, Err: err}
	}
	if !resp.ok() {
		return 0, &domain.TargetWriteError{Op: "create category", Key: in.Slug, Status: resp.status, Body: snippet(resp.body)}
	}
	var cat wcCategory
	if err := json.Unmarshal(resp.body, &cat); err != nil || cat.ID == 0 {
		return 0, &domain.TargetWriteError{Op: "create category", Key: in.Slug, Status: resp.status, Body: snippet(resp.body), Err: err}
	}
	return cat.ID, nil
}

// UpdateCategory implementa ports.CategoryStore. El slug no se modifica.
func (c *Client) UpdateCategory(ctx context.Context, id int64, in entity.CategoryInput) error {
	key := strconv.FormatInt(id, 10)
	resp, err := c.do(ctx, http.MethodPut, "/products/categories/"+key, nil, wcCategoryInput{Name: in.Name, Parent: in.Parent})
	if err != nil {
		return &domain.TargetWriteError{Op: "update category", Key: key, Err: err}
	}
	if !resp.ok() {
		return &domain.TargetWriteError{Op: "update category", Key: key, Status: resp.status, Body: snippet(resp.body)}
	}
	return nil
}

// ── Productos ─────────────────────────────────────────────────────────────────

// FindProductBySKU implementa ports.ProductStore. Devuelve nil, nil si no hay producto con ese SKU.
func (c *Client) FindProductBySKU(ctx context.Context, sku string) (*entity.TargetProduct, error) {
	resp, err := c.do(ctx, http.MethodGet, "/products", url.Values{"sku": {sku}, "status": {"any"}}, nil)
	if err != nil {
		return nil, fmt.Errorf("woocommerce: buscar producto %s: %w", sku, err)
	}
	if !resp.ok() {
		return nil, fmt.Errorf("woocommerce: buscar producto %s: HTTP %d: %s", sku, resp.status, snippet(resp.body))
	}
	var products []wcProduct
	if err := json.Unmarshal(resp.body, &products); err != nil {
		return nil, fmt.Errorf("woocommerce: deserializar productos: %w", err)
	}
	for _, p := range products {
		if strings.EqualFold(strings.TrimSpace(p.SKU), sku) {
			return &entity.TargetProduct{
				ID:            p.ID,
				SKU:           p.SKU,
				RegularPrice:  p.RegularPrice,
				Status:        p.Status,
				StockQuantity: p.StockQuantity,
			}, nil
		}
	}
	return nil, nil
}

// UpdateProduct implementa ports.ProductStore. Un status no 2xx no es error: se devuelve en el
// resultado para que el llamador lo registre como fallo de la fila.
func (c *Client) UpdateProduct(ctx context.Context, id int64, patch entity.ProductPatch) (*entity.ProductUpdateResult, error) {
	body := wcProductPatch{RegularPrice: pricing.FormatPrice(patch.RegularPrice)}
	if patch.Publish {
		body.Status = entity.ProductStatusPublish
	}
	if patch.StockQuantity != nil {
		manage := true
		body.ManageStock = &manage
		body.StockQuantity = patch.StockQuantity
	}
	resp, err := c.do(ctx, http.MethodPut, "/products/"+strconv.FormatInt(id, 10), nil, body)
	if err != nil {
		return nil, fmt.Errorf("woocommerce: actualizar producto %d: %w", id, err)
	}
	return &entity.ProductUpdateResult{OK: resp.ok(), Status: resp.status, Body: string(resp.body)}, nil
}

// snippet cuerpo recortado a maxSnippet caracteres (no bytes: nunca corta una runa UTF-8).
func snippet(b []byte) string {
	r := []rune(strings.TrimSpace(string(b)))
	if len(r) > maxSnippet {
		r = r[:maxSnippet]
	}
	return string(r)
}
