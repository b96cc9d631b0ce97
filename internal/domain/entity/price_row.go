package entity

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/catalogo-sync/internal/domain"
)

// PriceRow registro normalizado del feed. Exactamente uno de SourceAmount/TargetAmount está presente.
type PriceRow struct {
	SKU           string
	SourceAmount  *decimal.Decimal // moneda origen (ej. GBP)
	TargetAmount  *decimal.Decimal // ya en moneda destino (ej. SEK)
	StockQuantity *int
	Line          int // posición en el feed (1-based), 0 si se desconoce
}

// RoundingMode política de redondeo del precio destino.
type RoundingMode string

const (
	RoundNearest RoundingMode = "nearest"
	RoundUp      RoundingMode = "up"
	RoundDown    RoundingMode = "down"
	RoundNone    RoundingMode = "none"
)

// ParseRoundingMode interpreta el modo sin distinguir mayúsculas. Vacío = none.
func ParseRoundingMode(s string) (RoundingMode, error) {
	switch m := RoundingMode(strings.ToLower(strings.TrimSpace(s))); m {
	case RoundNearest, RoundUp, RoundDown, RoundNone:
		return m, nil
	case "":
		return RoundNone, nil
	}
	return "", &domain.ValidationError{Field: "rounding_mode", Reason: "debe ser nearest, up, down o none"}
}

// PricingConfig conversión de moneda, margen y redondeo.
type PricingConfig struct {
	FXRate       decimal.Decimal // > 0
	MarkupPct    decimal.Decimal // >= 0
	RoundingStep decimal.Decimal // >= 0; 0 = sin redondeo por paso
	RoundingMode RoundingMode
}

// Validate comprueba los rangos de la configuración.
func (c PricingConfig) Validate() error {
	if !c.FXRate.GreaterThan(decimal.Zero) {
		return &domain.ValidationError{Field: "fx_rate", Reason: "debe ser mayor que 0"}
	}
	if c.MarkupPct.IsNegative() {
		return &domain.ValidationError{Field: "markup_pct", Reason: "no puede ser negativo"}
	}
	if c.RoundingStep.IsNegative() {
		return &domain.ValidationError{Field: "rounding_step", Reason: "no puede ser negativo"}
	}
	if _, err := ParseRoundingMode(string(c.RoundingMode)); err != nil {
		return err
	}
	return nil
}
