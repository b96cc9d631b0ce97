package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
	"github.com/jhoicas/catalogo-sync/internal/domain/repository"
	"github.com/jhoicas/catalogo-sync/pkg/logger"
)

// persistTimeout la auditoría no debe colgar la respuesta de una sincronización ya ejecutada.
const persistTimeout = 5 * time.Second

// RunRecorder asigna id a cada ejecución y la persiste si hay repositorio.
// Un fallo al persistir se registra en el log y no afecta el resultado.
type RunRecorder struct {
	repo repository.SyncRunRepository
	log  *logger.Logger
}

// NewRunRecorder construye el recorder. repo puede ser nil (auditoría deshabilitada).
func NewRunRecorder(repo repository.SyncRunRepository, log *logger.Logger) *RunRecorder {
	if log == nil {
		log = logger.Nop()
	}
	return &RunRecorder{repo: repo, log: log}
}

// NewRunID genera el id de una ejecución.
func (r *RunRecorder) NewRunID() string {
	return uuid.New().String()
}

// Record persiste la ejecución con el resultado final. Usa un contexto propio para que una
// cancelación del llamador no impida dejar constancia de lo que sí se escribió.
func (r *RunRecorder) Record(run *entity.SyncRun) {
	if r == nil || r.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := r.repo.Create(ctx, run); err != nil {
		r.log.Error().Err(err).Str("run_id", run.ID).Str("kind", run.Kind).Msg("auditoría: no se pudo guardar la ejecución")
	}
}
