package entity

import "github.com/shopspring/decimal"

// TargetCategory categoría plana de la tienda destino.
type TargetCategory struct {
	ID       int64
	Name     string
	Slug     string
	ParentID int64 // 0 = primer nivel
}

// CategoryInput datos para crear o actualizar una categoría destino.
// Slug solo se envía al crear.
type CategoryInput struct {
	Name   string
	Slug   string
	Parent int64
}

// Estados de producto en la tienda destino.
const (
	ProductStatusPublish = "publish"
	ProductStatusDraft   = "draft"
)

// TargetProduct producto de la tienda destino identificado por SKU.
type TargetProduct struct {
	ID            int64
	SKU           string
	RegularPrice  string // la tienda expone el precio como texto ("156.00")
	Status        string
	StockQuantity *int
}

// ProductPatch cambios de precio/stock a aplicar sobre un producto.
type ProductPatch struct {
	RegularPrice  decimal.Decimal
	Publish       bool
	StockQuantity *int
}

// ProductUpdateResult respuesta cruda de la tienda a un patch.
type ProductUpdateResult struct {
	OK     bool
	Status int
	Body   string
}
