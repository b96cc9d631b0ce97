package catalogsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/catalogo-sync/internal/application/ports"
	"github.com/jhoicas/catalogo-sync/internal/domain"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
	"github.com/jhoicas/catalogo-sync/pkg/logger"
)

// PlanApplier ejecuta un plan en orden estricto (padre antes que hijo), resolviendo el id destino
// de cada padre recién creado antes de procesar a sus hijos.
type PlanApplier struct {
	store   ports.CategoryStore
	timeout time.Duration
	log     *logger.Logger
}

// NewPlanApplier construye el aplicador.
func NewPlanApplier(store ports.CategoryStore, timeout time.Duration, log *logger.Logger) *PlanApplier {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PlanApplier{store: store, timeout: timeout, log: log}
}

// applyRun estado de una sola llamada a Apply. El mapa solo lo escribe este bucle (sin locks).
type applyRun struct {
	dryRun   bool
	resolved map[int64]int64    // sourceID → targetID
	pending  map[int64]struct{} // creaciones simuladas en dry-run
	result   *entity.ReconciliationResult
}

// Apply aplica el plan. Los ítems se actualizan en sitio (TargetID, ParentTargetID, ParentFallback).
// El fallo de un ítem se registra y no detiene el resto. En dry-run create/update solo hacen la
// lectura por slug pero se cuentan igual en Created/Updated.
func (a *PlanApplier) Apply(ctx context.Context, plan []entity.PlanItem, dryRun bool) *entity.ReconciliationResult {
	run := &applyRun{
		dryRun:   dryRun,
		resolved: make(map[int64]int64, len(plan)),
		pending:  make(map[int64]struct{}),
		result:   entity.NewReconciliationResult(dryRun),
	}

	for i := range plan {
		if ctx.Err() != nil {
			run.result.Cancelled = true
			a.log.Warn().Int("remaining", len(plan)-i).Msg("apply: cancelado, ítems restantes sin procesar")
			break
		}
		item := &plan[i]
		run.result.Attempted++

		var err error
		switch item.Action {
		case entity.ActionNoop:
			err = a.applyNoop(ctx, run, item)
		case entity.ActionCreate:
			err = a.applyCreate(ctx, run, item)
		case entity.ActionUpdate:
			err = a.applyUpdate(ctx, run, item)
		default:
			err = &domain.ValidationError{Field: "action", Reason: fmt.Sprintf("acción desconocida %q", item.Action)}
		}
		if err != nil {
			run.result.AddFailed(entity.Sample{
				Key:      item.Slug,
				SourceID: item.SourceID,
				Name:     item.Name,
				Reason:   err.Error(),
				Fallback: item.ParentFallback,
			})
			a.log.Debug().Err(err).Str("slug", item.Slug).Msg("apply: ítem fallido")
		}
	}
	return run.result
}

func (a *PlanApplier) applyNoop(ctx context.Context, run *applyRun, item *entity.PlanItem) error {
	if item.TargetID == 0 {
		id, found, err := a.findBySlug(ctx, item.Slug)
		if err != nil {
			return err
		}
		if !found {
			run.result.AddNotFound(entity.Sample{Key: item.Slug, SourceID: item.SourceID, Name: item.Name, Reason: "slug no encontrado al aplicar"})
			return nil
		}
		item.TargetID = id
	}
	run.resolved[item.SourceID] = item.TargetID
	run.result.AddSkipped(entity.Sample{Key: item.Slug, SourceID: item.SourceID, TargetID: item.TargetID, Name: item.Name})
	return nil
}

func (a *PlanApplier) applyCreate(ctx context.Context, run *applyRun, item *entity.PlanItem) error {
	parent := a.parentFor(run, item)

	if run.dryRun {
		// Solo la lectura por slug: si ya existe (plan viejo) se reporta su id.
		id, found, err := a.findBySlug(ctx, item.Slug)
		if err != nil {
			return err
		}
		if found {
			item.TargetID = id
			run.resolved[item.SourceID] = id
		} else {
			run.pending[item.SourceID] = struct{}{}
		}
		run.result.AddCreated(a.sample(item))
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	id, err := a.store.CreateCategory(callCtx, entity.CategoryInput{Name: item.Name, Slug: item.Slug, Parent: parent})
	if err != nil {
		return writeError("create category", item.Slug, err)
	}
	item.TargetID = id
	run.resolved[item.SourceID] = id
	run.result.AddCreated(a.sample(item))
	return nil
}

func (a *PlanApplier) applyUpdate(ctx context.Context, run *applyRun, item *entity.PlanItem) error {
	parent := a.parentFor(run, item)

	if item.TargetID == 0 || run.dryRun {
		id, found, err := a.findBySlug(ctx, item.Slug)
		if err != nil {
			return err
		}
		if !found {
			run.result.AddNotFound(entity.Sample{Key: item.Slug, SourceID: item.SourceID, Name: item.Name, Reason: "slug no encontrado al aplicar"})
			return nil
		}
		item.TargetID = id
	}
	run.resolved[item.SourceID] = item.TargetID

	if !run.dryRun {
		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		if err := a.store.UpdateCategory(callCtx, item.TargetID, entity.CategoryInput{Name: item.Name, Parent: parent}); err != nil {
			return writeError("update category", item.Slug, err)
		}
	}
	run.result.AddUpdated(a.sample(item))
	return nil
}

// parentFor resuelve el parent destino en el momento de aplicar. Si el padre no se resolvió
// (falló o falta), el ítem se degrada a primer nivel (parent 0) y queda marcado.
func (a *PlanApplier) parentFor(run *applyRun, item *entity.PlanItem) int64 {
	if item.ParentSourceID == 0 {
		item.ParentTargetID = 0
		return 0
	}
	if id, ok := run.resolved[item.ParentSourceID]; ok {
		item.ParentTargetID = id
		return id
	}
	if _, ok := run.pending[item.ParentSourceID]; ok {
		// dry-run: el padre se crearía en esta misma ejecución.
		return 0
	}
	if item.ParentTargetID > 0 {
		return item.ParentTargetID
	}
	item.ParentFallback = true
	msg := fmt.Sprintf("%s: padre %d sin id destino, se ubica en primer nivel", item.Slug, item.ParentSourceID)
	run.result.AddWarning(msg)
	a.log.Warn().Str("slug", item.Slug).Int64("parent_source_id", item.ParentSourceID).Msg("apply: fallback a primer nivel")
	return 0
}

func (a *PlanApplier) findBySlug(ctx context.Context, slug string) (int64, bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	id, found, err := a.store.FindCategoryBySlug(callCtx, slug)
	if err != nil {
		return 0, false, fmt.Errorf("find category %s: %w", slug, err)
	}
	return id, found, nil
}

func (a *PlanApplier) sample(item *entity.PlanItem) entity.Sample {
	return entity.Sample{
		Key:      item.Slug,
		SourceID: item.SourceID,
		TargetID: item.TargetID,
		Name:     item.Name,
		Fallback: item.ParentFallback,
	}
}

func writeError(op, key string, err error) error {
	var wErr *domain.TargetWriteError
	if errors.As(err, &wErr) {
		return err
	}
	return &domain.TargetWriteError{Op: op, Key: key, Err: err}
}
