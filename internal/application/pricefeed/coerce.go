package pricefeed

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	errNotANumber = errors.New("no es un número")
	errNegative   = errors.New("negativo")
)

// currencyCodes códigos que algunos proveedores pegan al monto ("129,50 kr", "GBP 12.40").
var currencyCodes = []string{"sek", "gbp", "eur", "usd", "kr"}

// ParseAmount interpreta un valor crudo del feed como decimal no negativo.
// present es false si el valor está vacío; err si hay valor pero no es un monto válido.
func ParseAmount(v any) (d decimal.Decimal, present bool, err error) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, false, nil
	case decimal.Decimal:
		d = x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, true, errNotANumber
		}
		d = decimal.NewFromFloat(x)
	case float32:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, true, errNotANumber
		}
		d = decimal.NewFromFloat32(x)
	case int:
		d = decimal.NewFromInt(int64(x))
	case int64:
		d = decimal.NewFromInt(x)
	case json.Number:
		return ParseAmount(x.String())
	case string:
		s := cleanNumber(x)
		if s == "" {
			return decimal.Zero, false, nil
		}
		d, err = decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, true, errNotANumber
		}
	default:
		return decimal.Zero, true, errNotANumber
	}
	if d.IsNegative() {
		return decimal.Zero, true, errNegative
	}
	return d, true, nil
}

// cleanNumber quita espacios (NBSP incluido), símbolos y códigos de moneda, y normaliza el
// separador decimal: con coma y punto, el último es el decimal; con solo coma, coma → punto.
func cleanNumber(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, s)
	lower := strings.ToLower(s)
	for _, code := range currencyCodes {
		if strings.HasPrefix(lower, code) {
			s, lower = s[len(code):], lower[len(code):]
		}
		if strings.HasSuffix(lower, code) {
			s, lower = s[:len(s)-len(code)], lower[:len(lower)-len(code)]
		}
	}

	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.ReplaceAll(s, ",", ".")
	}
	return s
}

// parseStock interpreta la columna de stock como entero no negativo.
func parseStock(v any) (*int, bool) {
	d, present, err := ParseAmount(v)
	if !present || err != nil {
		return nil, false
	}
	q := int(d.IntPart())
	return &q, true
}

// textValue representa un valor del feed como texto (SKUs numéricos incluidos).
func textValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return ""
}
