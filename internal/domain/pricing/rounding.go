package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// Round redondea value a múltiplos de step según el modo (servicio de dominio).
//   - nearest: múltiplo más cercano; empates hacia mayor magnitud (half away from zero).
//   - up: siguiente múltiplo no menor que value.
//   - down: múltiplo anterior no mayor que value.
//   - none o step <= 0: value a 2 decimales.
func Round(value, step decimal.Decimal, mode entity.RoundingMode) decimal.Decimal {
	if mode == entity.RoundNone || mode == "" || !step.GreaterThan(decimal.Zero) {
		return value.Round(2)
	}
	q := value.Div(step)
	switch mode {
	case entity.RoundNearest:
		// decimal.Round redondea los empates alejándose de cero.
		q = q.Round(0)
	case entity.RoundUp:
		q = q.Ceil()
	case entity.RoundDown:
		q = q.Floor()
	default:
		return value.Round(2)
	}
	return q.Mul(step).Round(2)
}

// TargetPrice calcula el precio destino de una fila:
// Round(source * fx * (1 + markup/100)) si hay monto origen; si no, el monto destino tal cual,
// sin redondear: los 2 decimales los aplica FormatPrice al enviarlo.
// Devuelve false si la fila no trae ningún monto.
func TargetPrice(row entity.PriceRow, cfg entity.PricingConfig) (decimal.Decimal, bool) {
	if row.SourceAmount != nil {
		factor := decimal.NewFromInt(1).Add(cfg.MarkupPct.Div(hundred))
		raw := row.SourceAmount.Mul(cfg.FXRate).Mul(factor)
		return Round(raw, cfg.RoundingStep, cfg.RoundingMode), true
	}
	if row.TargetAmount != nil {
		return *row.TargetAmount, true
	}
	return decimal.Zero, false
}

// FormatPrice formatea un precio como lo espera la tienda destino ("156.00").
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(2)
}
