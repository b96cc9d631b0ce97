package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUpstream     = errors.New("catálogo origen no disponible o respuesta inválida")
	ErrTargetWrite  = errors.New("escritura rechazada por la tienda destino")
	ErrConsistency  = errors.New("inconsistencia en el plan")
)

// Motivos de rechazo legibles por máquina para filas del feed de precios.
const (
	ReasonMissingSKU   = "missing sku"
	ReasonInvalidPrice = "invalid price"
)

// UpstreamError falla al leer el catálogo origen (o la tienda durante la planificación).
// Aborta la sincronización completa: no se produce plan sobre datos parciales.
type UpstreamError struct {
	Op       string
	SourceID int64
	Status   int // 0 si no hubo respuesta HTTP
	Err      error
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("upstream %s", e.Op)
	if e.SourceID > 0 {
		msg += fmt.Sprintf(" (id %d)", e.SourceID)
	}
	if e.Status > 0 {
		msg += fmt.Sprintf(": HTTP %d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }
func (e *UpstreamError) Unwrap() error        { return e.Err }

// TargetWriteError una escritura (create/update/patch) fallida. Se aísla al ítem o fila.
type TargetWriteError struct {
	Op     string
	Key    string // slug o SKU
	Status int
	Body   string
	Err    error
}

func (e *TargetWriteError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Op, e.Key)
	if e.Status > 0 {
		msg += fmt.Sprintf(": HTTP %d", e.Status)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TargetWriteError) Is(target error) bool { return target == ErrTargetWrite }
func (e *TargetWriteError) Unwrap() error        { return e.Err }

// ValidationError entrada mal formada, rechazada antes de cualquier llamada de red.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// ConsistencyWarning anomalía detectada al planificar (padre sin resolver). No es fatal.
type ConsistencyWarning struct {
	SourceID       int64
	ParentSourceID int64
}

func (w *ConsistencyWarning) Error() string {
	return fmt.Sprintf("categoría %d: padre %d sin resolver, se compara como raíz", w.SourceID, w.ParentSourceID)
}

func (w *ConsistencyWarning) Is(target error) bool { return target == ErrConsistency }
