package sourcecatalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/catalogo-sync/internal/application/ports"
	"github.com/jhoicas/catalogo-sync/internal/domain"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
)

// Verificar en tiempo de compilación que Client implementa SourceCatalog.
var _ ports.SourceCatalog = (*Client)(nil)

// maxBody tope de lectura de una respuesta del catálogo; maxSnippet del cuerpo citado en errores.
const (
	maxBody    = 1 << 20
	maxSnippet = 200
)

// Client adaptador HTTP del catálogo origen (GET {base}/categories/{id}).
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient construye el adaptador. token vacío = sin cabecera Authorization.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ── Estructuras del protocolo ─────────────────────────────────────────────────

// categoryPayload acepta childIds / child_ids, y children como ids o como objetos anidados.
type categoryPayload struct {
	ID        json.RawMessage   `json:"id"`
	Title     string            `json:"title"`
	Name      string            `json:"name"`
	ChildIDs  []json.RawMessage `json:"childIds"`
	ChildIDs2 []json.RawMessage `json:"child_ids"`
	Children  []json.RawMessage `json:"children"`
}

// FetchCategory implementa ports.SourceCatalog.
func (c *Client) FetchCategory(ctx context.Context, id int64) (*entity.SourceNode, error) {
	url := fmt.Sprintf("%s/categories/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.UpstreamError{Op: "fetch category", SourceID: id, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("timeout o cancelación: %w", ctx.Err())
		}
		return nil, &domain.UpstreamError{Op: "fetch category", SourceID: id, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &domain.UpstreamError{Op: "fetch category", SourceID: id, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.UpstreamError{Op: "fetch category", SourceID: id, Status: resp.StatusCode, Err: fmt.Errorf("%s", snippet(raw))}
	}

	var payload categoryPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &domain.UpstreamError{Op: "fetch category", SourceID: id, Status: resp.StatusCode, Err: fmt.Errorf("cuerpo mal formado: %w", err)}
	}
	node, err := payload.toNode(id)
	if err != nil {
		return nil, &domain.UpstreamError{Op: "fetch category", SourceID: id, Status: resp.StatusCode, Err: err}
	}
	return node, nil
}

func (p categoryPayload) toNode(requested int64) (*entity.SourceNode, error) {
	node := &entity.SourceNode{ID: requested, Title: strings.TrimSpace(p.Title)}
	if node.Title == "" {
		node.Title = strings.TrimSpace(p.Name)
	}
	if len(p.ID) > 0 {
		if id, ok := coerceID(p.ID); ok {
			node.ID = id
		}
	}
	if node.ID != requested {
		return nil, fmt.Errorf("id %d en la respuesta no coincide", node.ID)
	}

	for _, raw := range append(p.ChildIDs, p.ChildIDs2...) {
		if id, ok := coerceID(raw); ok {
			node.ChildIDs = append(node.ChildIDs, id)
		}
	}
	for _, raw := range p.Children {
		if id, ok := coerceID(raw); ok {
			node.ChildIDs = append(node.ChildIDs, id)
			continue
		}
		var child categoryPayload
		if err := json.Unmarshal(raw, &child); err != nil {
			continue
		}
		id, ok := coerceID(child.ID)
		if !ok {
			continue
		}
		title := strings.TrimSpace(child.Title)
		if title == "" {
			title = strings.TrimSpace(child.Name)
		}
		node.Children = append(node.Children, entity.SourceNode{ID: id, Title: title})
	}
	return node, nil
}

// coerceID acepta números o strings numéricos; descarta no finitos, fraccionarios y no positivos.
func coerceID(raw json.RawMessage) (int64, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, false
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, false
		}
		s = strings.TrimSpace(str)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f <= 0 || f > math.MaxInt64/2 {
		return 0, false
	}
	return int64(f), true
}

// snippet cuerpo recortado a maxSnippet caracteres (no bytes: nunca corta una runa UTF-8).
func snippet(b []byte) string {
	r := []rune(strings.TrimSpace(string(b)))
	if len(r) > maxSnippet {
		r = r[:maxSnippet]
	}
	return string(r)
}
