package repository

import (
	"context"

	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
)

// SyncRunRepository define el puerto de persistencia para la auditoría de ejecuciones (DIP).
type SyncRunRepository interface {
	Create(ctx context.Context, run *entity.SyncRun) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.SyncRun, error)
	// List lista las ejecuciones más recientes; kind vacío = todas.
	List(ctx context.Context, kind string, limit, offset int) ([]*entity.SyncRun, error)
}
