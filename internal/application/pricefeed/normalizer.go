package pricefeed

import (
	"errors"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/catalogo-sync/internal/domain"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
)

// Columnas candidatas, en orden de preferencia. Se comparan ya plegadas (FoldHeader).
var (
	SKUColumns          = []string{"Part No", "PartNo", "Part Number", "SKU", "Code", "Item Code", "Article"}
	TargetAmountColumns = []string{"SEK", "Price SEK", "SEK Price", "Pris"}
	SourceAmountColumns = []string{"Price", "GBP", "RRP", "List Price", "Retail", "Net Price"}
	StockColumns        = []string{"Stock", "Qty", "Quantity", "Free Stock", "Available"}
)

// FoldHeader normaliza un nombre de columna: sin acentos, minúsculas, espacios colapsados.
func FoldHeader(h string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, h)
	if err != nil {
		s = h
	}
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Row vista plegada de una fila del feed que reciben las reglas de monto.
type Row struct {
	values  map[string]any
	headers []string // plegados, orden lexicográfico
}

func newRow(raw entity.FeedRow) *Row {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	r := &Row{values: make(map[string]any, len(raw))}
	for _, k := range keys {
		f := FoldHeader(k)
		if f == "" {
			continue
		}
		// Ante encabezados que colisionan al plegar gana el primero en orden lexicográfico.
		if _, dup := r.values[f]; dup {
			continue
		}
		r.values[f] = raw[k]
		r.headers = append(r.headers, f)
	}
	sort.Strings(r.headers)
	return r
}

// Value devuelve el valor crudo de una columna (nombre sin plegar o plegado).
func (r *Row) Value(header string) (any, bool) {
	v, ok := r.values[FoldHeader(header)]
	return v, ok
}

// Headers columnas plegadas en orden lexicográfico.
func (r *Row) Headers() []string { return r.headers }

// first primera columna candidata con valor no vacío.
func (r *Row) first(candidates []string) (string, any, bool) {
	for _, c := range candidates {
		f := FoldHeader(c)
		v, ok := r.values[f]
		if !ok || isBlank(v) {
			continue
		}
		return f, v, true
	}
	return "", nil, false
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// Normalizer convierte filas crudas en PriceRow aplicando las reglas de monto en orden.
type Normalizer struct {
	rules []AmountRule
}

// NewNormalizer construye el normalizador. Sin reglas usa DefaultRules.
func NewNormalizer(rules ...AmountRule) *Normalizer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Normalizer{rules: rules}
}

// Rules nombres de las reglas activas, en orden.
func (n *Normalizer) Rules() []string {
	names := make([]string, len(n.rules))
	for i, r := range n.rules {
		names[i] = r.Name()
	}
	return names
}

// Normalize valida una fila. Rechaza con ValidationError (Reason "missing sku" o "invalid price").
func (n *Normalizer) Normalize(raw entity.FeedRow) (entity.PriceRow, error) {
	row := newRow(raw)

	_, skuVal, ok := row.first(SKUColumns)
	sku := textValue(skuVal)
	if !ok || sku == "" {
		return entity.PriceRow{}, &domain.ValidationError{Field: "sku", Reason: domain.ReasonMissingSKU}
	}
	out := entity.PriceRow{SKU: sku}

	if _, v, ok := row.first(StockColumns); ok {
		out.StockQuantity, _ = parseStock(v)
	}

	for _, rule := range n.rules {
		amount, matched, err := rule.Detect(row)
		if err != nil {
			return entity.PriceRow{}, &domain.ValidationError{Field: rule.Name(), Reason: domain.ReasonInvalidPrice}
		}
		if !matched {
			continue
		}
		v := amount.Value
		if amount.Kind == AmountTarget {
			out.TargetAmount = &v
		} else {
			out.SourceAmount = &v
		}
		return out, nil
	}
	return entity.PriceRow{}, &domain.ValidationError{Field: "price", Reason: domain.ReasonInvalidPrice}
}

// Rejection fila descartada por el normalizador.
type Rejection struct {
	Line   int
	SKU    string // vacío si la fila no traía SKU
	Reason string
}

// NormalizeAll normaliza un feed completo. Line es la posición 1-based de la fila.
func (n *Normalizer) NormalizeAll(raw []entity.FeedRow) ([]entity.PriceRow, []Rejection) {
	rows := make([]entity.PriceRow, 0, len(raw))
	var rejected []Rejection
	for i, r := range raw {
		pr, err := n.Normalize(r)
		if err != nil {
			rej := Rejection{Line: i + 1, Reason: err.Error()}
			var vErr *domain.ValidationError
			if errors.As(err, &vErr) {
				rej.Reason = vErr.Reason
			}
			if _, v, ok := newRow(r).first(SKUColumns); ok {
				rej.SKU = textValue(v)
			}
			rejected = append(rejected, rej)
			continue
		}
		pr.Line = i + 1
		rows = append(rows, pr)
	}
	return rows, rejected
}
