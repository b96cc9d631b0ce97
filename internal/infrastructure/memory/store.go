package memory

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/jhoicas/catalogo-sync/internal/application/ports"
	"github.com/jhoicas/catalogo-sync/internal/domain"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
	"github.com/jhoicas/catalogo-sync/internal/domain/pricing"
)

var (
	_ ports.CategoryStore = (*Store)(nil)
	_ ports.ProductStore  = (*Store)(nil)
)

// Store tienda destino en memoria, segura para uso concurrente.
type Store struct {
	mu         sync.Mutex
	nextID     int64
	categories map[int64]entity.TargetCategory
	products   map[string]entity.TargetProduct // por SKU
	failSlugs  map[string]error
	failSKUs   map[string]int // SKU → código HTTP a devolver
	writes     int
	reads      int
}

// NewStore construye una tienda vacía.
func NewStore() *Store {
	return &Store{
		nextID:     100,
		categories: make(map[int64]entity.TargetCategory),
		products:   make(map[string]entity.TargetProduct),
		failSlugs:  make(map[string]error),
		failSKUs:   make(map[string]int),
	}
}

// SeedCategory agrega una categoría existente y devuelve su id.
func (s *Store) SeedCategory(name, slug string, parent int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.categories[s.nextID] = entity.TargetCategory{ID: s.nextID, Name: name, Slug: slug, ParentID: parent}
	return s.nextID
}

// SeedProduct agrega un producto existente y devuelve su id.
func (s *Store) SeedProduct(sku, regularPrice, status string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.products[sku] = entity.TargetProduct{ID: s.nextID, SKU: sku, RegularPrice: regularPrice, Status: status}
	return s.nextID
}

// FailWritesForSlug hace fallar create/update de la categoría con ese slug.
func (s *Store) FailWritesForSlug(slug string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSlugs[slug] = err
}

// FailUpdatesForSKU hace que UpdateProduct responda status (no 2xx) para ese SKU.
func (s *Store) FailUpdatesForSKU(sku string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSKUs[sku] = status
}

// Writes cantidad de escrituras exitosas.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Reads cantidad de lecturas.
func (s *Store) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// CategoryBySlug devuelve la categoría con ese slug (para aserciones).
func (s *Store) CategoryBySlug(slug string) (entity.TargetCategory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bySlugLocked(slug)
}

// Product devuelve el producto con ese SKU (para aserciones).
func (s *Store) Product(sku string) (entity.TargetProduct, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[sku]
	return p, ok
}

func (s *Store) bySlugLocked(slug string) (entity.TargetCategory, bool) {
	for _, c := range s.categories {
		if c.Slug == slug {
			return c, true
		}
	}
	return entity.TargetCategory{}, false
}

// FindCategoryBySlug implementa ports.CategoryStore.
func (s *Store) FindCategoryBySlug(ctx context.Context, slug string) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	c, ok := s.bySlugLocked(slug)
	return c.ID, ok, nil
}

// GetCategory implementa ports.CategoryStore.
func (s *Store) GetCategory(ctx context.Context, id int64) (*entity.TargetCategory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	c, ok := s.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// CreateCategory implementa ports.CategoryStore.
func (s *Store) CreateCategory(ctx context.Context, in entity.CategoryInput) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failSlugs[in.Slug]; ok {
		return 0, &domain.TargetWriteError{Op: "create category", Key: in.Slug, Status: http.StatusInternalServerError, Err: err}
	}
	if _, exists := s.bySlugLocked(in.Slug); exists {
		return 0, &domain.TargetWriteError{Op: "create category", Key: in.Slug, Status: http.StatusBadRequest, Body: "term_exists"}
	}
	s.nextID++
	s.categories[s.nextID] = entity.TargetCategory{ID: s.nextID, Name: in.Name, Slug: in.Slug, ParentID: in.Parent}
	s.writes++
	return s.nextID, nil
}

// UpdateCategory implementa ports.CategoryStore.
func (s *Store) UpdateCategory(ctx context.Context, id int64, in entity.CategoryInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return &domain.TargetWriteError{Op: "update category", Key: fmt.Sprint(id), Status: http.StatusNotFound}
	}
	if err, fail := s.failSlugs[c.Slug]; fail {
		return &domain.TargetWriteError{Op: "update category", Key: c.Slug, Status: http.StatusInternalServerError, Err: err}
	}
	c.Name = in.Name
	c.ParentID = in.Parent
	s.categories[id] = c
	s.writes++
	return nil
}

// FindProductBySKU implementa ports.ProductStore.
func (s *Store) FindProductBySKU(ctx context.Context, sku string) (*entity.TargetProduct, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	p, ok := s.products[sku]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// UpdateProduct implementa ports.ProductStore.
func (s *Store) UpdateProduct(ctx context.Context, id int64, patch entity.ProductPatch) (*entity.ProductUpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for sku, p := range s.products {
		if p.ID != id {
			continue
		}
		if status, fail := s.failSKUs[sku]; fail {
			return &entity.ProductUpdateResult{
				OK:     false,
				Status: status,
				Body:   fmt.Sprintf(`{"code":"rest_error","message":"fallo simulado para %s"}`, sku),
			}, nil
		}
		p.RegularPrice = pricing.FormatPrice(patch.RegularPrice)
		if patch.Publish {
			p.Status = entity.ProductStatusPublish
		}
		if patch.StockQuantity != nil {
			q := *patch.StockQuantity
			p.StockQuantity = &q
		}
		s.products[sku] = p
		s.writes++
		return &entity.ProductUpdateResult{OK: true, Status: http.StatusOK, Body: "{}"}, nil
	}
	return &entity.ProductUpdateResult{OK: false, Status: http.StatusNotFound, Body: `{"code":"woocommerce_rest_product_invalid_id"}`}, nil
}
