package ports

import (
	"context"

	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
)

// SourceCatalog puerto de lectura del catálogo jerárquico de origen.
type SourceCatalog interface {
	// FetchCategory obtiene un nodo con sus hijos. Devuelve *domain.UpstreamError ante
	// respuestas no 2xx o cuerpos mal formados.
	FetchCategory(ctx context.Context, id int64) (*entity.SourceNode, error)
}

// CategoryStore puerto de categorías de la tienda destino (planas, identificadas por slug).
type CategoryStore interface {
	// FindCategoryBySlug devuelve el id destino y found=false si no existe.
	FindCategoryBySlug(ctx context.Context, slug string) (id int64, found bool, err error)
	GetCategory(ctx context.Context, id int64) (*entity.TargetCategory, error)
	CreateCategory(ctx context.Context, in entity.CategoryInput) (int64, error)
	UpdateCategory(ctx context.Context, id int64, in entity.CategoryInput) error
}

// ProductStore puerto de productos de la tienda destino (identificados por SKU).
type ProductStore interface {
	// FindProductBySKU devuelve nil, nil si no existe.
	FindProductBySKU(ctx context.Context, sku string) (*entity.TargetProduct, error)
	// UpdateProduct aplica el patch. err solo para fallos de transporte; una respuesta
	// no 2xx vuelve con OK=false, el código y el cuerpo.
	UpdateProduct(ctx context.Context, id int64, patch entity.ProductPatch) (*entity.ProductUpdateResult, error)
}
