package ports

import (
	"context"

	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
)

// RunReportGenerator genera la representación imprimible de una ejecución registrada.
type RunReportGenerator interface {
	GenerateRunReport(ctx context.Context, run *entity.SyncRun) ([]byte, error)
}
