package pricefeed

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AmountKind moneda en la que viene el monto detectado.
type AmountKind int

const (
	AmountSource AmountKind = iota // requiere conversión (fx + margen + redondeo)
	AmountTarget                   // ya en moneda destino
)

// Amount monto detectado en una fila.
type Amount struct {
	Value decimal.Decimal
	Kind  AmountKind
}

// AmountRule estrategia de detección de monto. Detect devuelve matched=false si la regla no aplica
// a la fila (se prueba la siguiente). Un error rechaza la fila sin probar las reglas restantes.
type AmountRule interface {
	Name() string
	Detect(row *Row) (Amount, bool, error)
}

// DefaultRules orden por defecto: columnas destino, columnas origen, búsqueda numérica.
func DefaultRules() []AmountRule {
	return []AmountRule{
		ColumnRule{RuleName: "target-columns", Columns: TargetAmountColumns, Kind: AmountTarget},
		ColumnRule{RuleName: "source-columns", Columns: SourceAmountColumns, Kind: AmountSource},
		NumericFallbackRule{Min: decimal.RequireFromString("0.01"), Max: decimal.NewFromInt(100000)},
	}
}

// ColumnRule toma la primera columna candidata cuyo valor es un monto válido.
// Valores como "n/a" o "POA" no detienen la búsqueda: se prueba la siguiente candidata y,
// si ninguna sirve, la regla no aplica y decide la siguiente regla.
type ColumnRule struct {
	RuleName string
	Columns  []string
	Kind     AmountKind
}

func (r ColumnRule) Name() string { return r.RuleName }

func (r ColumnRule) Detect(row *Row) (Amount, bool, error) {
	for _, c := range r.Columns {
		v, ok := row.Value(c)
		if !ok || isBlank(v) {
			continue
		}
		d, present, err := ParseAmount(v)
		if err != nil || !present {
			continue
		}
		return Amount{Value: d, Kind: r.Kind}, true, nil
	}
	return Amount{}, false, nil
}

// quantityHints fragmentos de encabezado que indican cantidad o unidad de venta, no precio.
var quantityHints = []string{"qty", "quantity", "unit", "pack", "moq", "min", "uoi", "box", "pcs"}

// NumericFallbackRule último recurso cuando ninguna columna de precio declarada trae un monto:
// primera columna con un número en [Min, Max]. Ignora las columnas de SKU y stock, y valores <= 1
// en columnas que parecen de cantidad. Heurística: el monto se asume en moneda origen.
// Las columnas se recorren en orden lexicográfico del encabezado plegado, no en el orden del
// archivo (FeedRow es un mapa y ese orden se pierde), así que la elección es aproximada.
type NumericFallbackRule struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

func (NumericFallbackRule) Name() string { return "numeric-fallback" }

func (r NumericFallbackRule) Detect(row *Row) (Amount, bool, error) {
	one := decimal.NewFromInt(1)
	for _, h := range row.Headers() {
		if _, skip := identityColumns[h]; skip {
			continue
		}
		d, present, err := ParseAmount(row.values[h])
		if !present || err != nil {
			continue
		}
		if d.LessThan(r.Min) || d.GreaterThan(r.Max) {
			continue
		}
		if d.LessThanOrEqual(one) && looksLikeQuantity(h) {
			continue
		}
		return Amount{Value: d, Kind: AmountSource}, true, nil
	}
	return Amount{}, false, nil
}

// identityColumns columnas de SKU y stock (plegadas), nunca candidatas a precio.
var identityColumns = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, c := range append(append([]string{}, SKUColumns...), StockColumns...) {
		m[FoldHeader(c)] = struct{}{}
	}
	return m
}()

func looksLikeQuantity(header string) bool {
	for _, hint := range quantityHints {
		if strings.Contains(header, hint) {
			return true
		}
	}
	return false
}
