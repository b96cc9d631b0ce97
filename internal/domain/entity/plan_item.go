package entity

// PlanAction acción del plan para una categoría.
type PlanAction string

const (
	ActionCreate PlanAction = "create"
	ActionUpdate PlanAction = "update"
	ActionNoop   PlanAction = "noop"
)

// Valid indica si la acción es conocida.
func (a PlanAction) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionNoop:
		return true
	}
	return false
}

// PlanItem una fila del plan create/update/noop.
// Todos los ids usan 0 como "sin valor": los ids de origen son positivos y
// el parent 0 en la tienda destino significa categoría de primer nivel.
type PlanItem struct {
	SourceID        int64
	Slug            string
	Name            string
	ParentSourceID  int64
	ParentTargetID  int64
	Action          PlanAction
	TargetID        int64
	CurrentName     string // nombre actual en destino (solo si existe)
	CurrentParentID int64  // padre actual en destino (solo si existe)
	Warning         string // ConsistencyWarning detectado al planificar
	ParentFallback  bool   // se aplicó con parent = 0 porque el padre no se resolvió
}
