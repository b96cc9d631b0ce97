package catalogsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/catalogo-sync/internal/application/ports"
	"github.com/jhoicas/catalogo-sync/internal/domain"
	"github.com/jhoicas/catalogo-sync/internal/domain/catalog"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
	"github.com/jhoicas/catalogo-sync/pkg/logger"
)

// DiffPlanner clasifica cada nodo recolectado como create / update / noop contra la tienda destino.
// Solo lee: es seguro en dry-run por construcción.
type DiffPlanner struct {
	store   ports.CategoryStore
	slug    func(int64) string
	timeout time.Duration
	log     *logger.Logger
}

// NewDiffPlanner construye el planificador con el slug por defecto (catalog.CategorySlug).
func NewDiffPlanner(store ports.CategoryStore, timeout time.Duration, log *logger.Logger) *DiffPlanner {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DiffPlanner{store: store, slug: catalog.CategorySlug, timeout: timeout, log: log}
}

// Plan procesa los nodos en el orden recibido (padre antes que hijo).
// El mapa sourceID → targetID se construye en esta misma pasada y no sobrevive a la llamada.
func (p *DiffPlanner) Plan(ctx context.Context, nodes []entity.CollectedNode) ([]entity.PlanItem, error) {
	resolved := make(map[int64]int64, len(nodes))
	known := make(map[int64]struct{}, len(nodes))
	pending := make(map[int64]struct{})
	items := make([]entity.PlanItem, 0, len(nodes))

	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := entity.PlanItem{
			SourceID:       n.SourceID,
			Slug:           p.slug(n.SourceID),
			Name:           n.Title,
			ParentSourceID: n.ParentSourceID,
		}
		if n.ParentSourceID > 0 {
			item.ParentTargetID = resolved[n.ParentSourceID]
		}
		if n.ParentSourceID > 0 && item.ParentTargetID == 0 {
			if _, ok := known[n.ParentSourceID]; !ok {
				warn := &domain.ConsistencyWarning{SourceID: n.SourceID, ParentSourceID: n.ParentSourceID}
				item.Warning = warn.Error()
				p.log.Warn().Err(warn).Int64("source_id", n.SourceID).Msg("plan: padre sin resolver")
			}
		}
		known[n.SourceID] = struct{}{}

		id, found, err := p.findBySlug(ctx, item.Slug)
		if err != nil {
			return nil, err
		}
		if !found {
			item.Action = entity.ActionCreate
			pending[n.SourceID] = struct{}{}
			items = append(items, item)
			continue
		}

		current, err := p.getCategory(ctx, id)
		if err != nil {
			return nil, err
		}
		item.TargetID = id
		item.CurrentName = current.Name
		item.CurrentParentID = current.ParentID
		resolved[n.SourceID] = id

		// Un padre que se creará en este mismo plan cambiará el parent al aplicar.
		_, parentPending := pending[n.ParentSourceID]
		if parentPending || current.Name != item.Name || current.ParentID != item.ParentTargetID {
			item.Action = entity.ActionUpdate
		} else {
			item.Action = entity.ActionNoop
		}
		items = append(items, item)
	}
	return items, nil
}

func (p *DiffPlanner) findBySlug(ctx context.Context, slug string) (int64, bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	id, found, err := p.store.FindCategoryBySlug(callCtx, slug)
	if err != nil {
		return 0, false, planReadError("find category "+slug, err)
	}
	return id, found, nil
}

func (p *DiffPlanner) getCategory(ctx context.Context, id int64) (*entity.TargetCategory, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	cat, err := p.store.GetCategory(callCtx, id)
	if err != nil {
		return nil, planReadError(fmt.Sprintf("get category %d", id), err)
	}
	if cat == nil {
		return nil, planReadError(fmt.Sprintf("get category %d", id), domain.ErrNotFound)
	}
	return cat, nil
}

func planReadError(op string, err error) error {
	var upErr *domain.UpstreamError
	if errors.As(err, &upErr) {
		return err
	}
	return &domain.UpstreamError{Op: op, Err: err}
}
