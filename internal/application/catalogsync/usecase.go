package catalogsync

import (
	"context"
	"time"

	"github.com/jhoicas/catalogo-sync/internal/application/audit"
	"github.com/jhoicas/catalogo-sync/internal/application/ports"
	"github.com/jhoicas/catalogo-sync/internal/domain"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
	"github.com/jhoicas/catalogo-sync/pkg/logger"
)

// CategorySyncUseCase orquesta recolección, planificación y aplicación del árbol de categorías.
type CategorySyncUseCase struct {
	collector *TreeCollector
	planner   *DiffPlanner
	applier   *PlanApplier
	recorder  *audit.RunRecorder
	log       *logger.Logger
}

// NewCategorySyncUseCase construye el caso de uso. recorder puede ser nil.
func NewCategorySyncUseCase(
	source ports.SourceCatalog,
	store ports.CategoryStore,
	recorder *audit.RunRecorder,
	callTimeout time.Duration,
	log *logger.Logger,
) *CategorySyncUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &CategorySyncUseCase{
		collector: NewTreeCollector(source, callTimeout),
		planner:   NewDiffPlanner(store, callTimeout, log),
		applier:   NewPlanApplier(store, callTimeout, log),
		recorder:  recorder,
		log:       log,
	}
}

// PlanCategorySync recolecta el árbol desde roots y calcula el plan. No escribe en la tienda.
// Un UpstreamError aborta sin plan.
func (uc *CategorySyncUseCase) PlanCategorySync(ctx context.Context, roots []int64) ([]entity.PlanItem, error) {
	nodes, err := uc.collector.Collect(ctx, roots)
	if err != nil {
		uc.log.Error().Err(err).Ints64("roots", roots).Msg("categorías: recolección fallida")
		return nil, err
	}
	items, err := uc.planner.Plan(ctx, nodes)
	if err != nil {
		uc.log.Error().Err(err).Msg("categorías: planificación fallida")
		return nil, err
	}
	uc.log.Info().
		Int("nodes", len(nodes)).
		Int("create", countAction(items, entity.ActionCreate)).
		Int("update", countAction(items, entity.ActionUpdate)).
		Int("noop", countAction(items, entity.ActionNoop)).
		Msg("categorías: plan calculado")
	return items, nil
}

// ApplyCategorySync valida el plan (sin red) y lo aplica. Los fallos por ítem quedan en el resultado.
func (uc *CategorySyncUseCase) ApplyCategorySync(ctx context.Context, plan []entity.PlanItem, dryRun bool) (*entity.ReconciliationResult, error) {
	if err := ValidatePlan(plan); err != nil {
		return nil, err
	}
	started := time.Now()
	runID := uc.recorder.NewRunID()
	log := uc.log.Child("run_id", runID)
	log.Info().Int("items", len(plan)).Bool("dry_run", dryRun).Msg("categorías: aplicando plan")

	result := uc.applier.Apply(ctx, plan, dryRun)
	result.RunID = runID

	log.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Int("not_found", result.NotFound).
		Int("failed", result.Failed).
		Bool("cancelled", result.Cancelled).
		Msg("categorías: plan aplicado")

	uc.recorder.Record(&entity.SyncRun{
		ID:         runID,
		Kind:       entity.SyncKindCategories,
		DryRun:     dryRun,
		Result:     *result,
		StartedAt:  started,
		FinishedAt: time.Now(),
	})
	return result, nil
}

// SyncCategories planifica y aplica en una sola llamada.
func (uc *CategorySyncUseCase) SyncCategories(ctx context.Context, roots []int64, dryRun bool) ([]entity.PlanItem, *entity.ReconciliationResult, error) {
	plan, err := uc.PlanCategorySync(ctx, roots)
	if err != nil {
		return nil, nil, err
	}
	result, err := uc.ApplyCategorySync(ctx, plan, dryRun)
	if err != nil {
		return nil, nil, err
	}
	return plan, result, nil
}

// ValidatePlan rechaza planes mal formados antes de cualquier llamada externa.
func ValidatePlan(plan []entity.PlanItem) error {
	seen := make(map[int64]struct{}, len(plan))
	for _, item := range plan {
		if item.SourceID <= 0 {
			return &domain.ValidationError{Field: "plan.source_id", Reason: "debe ser un entero positivo"}
		}
		if item.Slug == "" {
			return &domain.ValidationError{Field: "plan.slug", Reason: "requerido"}
		}
		if !item.Action.Valid() {
			return &domain.ValidationError{Field: "plan.action", Reason: "debe ser create, update o noop"}
		}
		if item.Action != entity.ActionNoop && item.Name == "" {
			return &domain.ValidationError{Field: "plan.name", Reason: "requerido para create/update"}
		}
		if _, dup := seen[item.SourceID]; dup {
			return &domain.ValidationError{Field: "plan.source_id", Reason: "id de origen duplicado"}
		}
		seen[item.SourceID] = struct{}{}
	}
	return nil
}

func countAction(items []entity.PlanItem, action entity.PlanAction) int {
	n := 0
	for _, it := range items {
		if it.Action == action {
			n++
		}
	}
	return n
}
