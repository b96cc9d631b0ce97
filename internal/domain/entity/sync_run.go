package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de ejecución registrados en la auditoría.
const (
	SyncKindCategories = "categories"
	SyncKindPrices     = "prices"
)

// SyncRun registro de auditoría de una ejecución (apply o reconcile).
// Pricing solo aplica a ejecuciones de precios.
type SyncRun struct {
	ID         string
	Kind       string
	DryRun     bool
	FXRate     *decimal.Decimal
	MarkupPct  *decimal.Decimal
	Result     ReconciliationResult
	StartedAt  time.Time
	FinishedAt time.Time
}
