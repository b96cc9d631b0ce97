package catalogsync

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/catalogo-sync/internal/application/ports"
	"github.com/jhoicas/catalogo-sync/internal/domain"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
)

// DefaultCallTimeout timeout por llamada externa cuando no se configura otro.
const DefaultCallTimeout = 15 * time.Second

// TreeCollector recorre el árbol del catálogo origen en anchura desde un conjunto de raíces.
// El grafo de origen no es confiable: un conjunto seen evita ciclos y diamantes.
type TreeCollector struct {
	source  ports.SourceCatalog
	timeout time.Duration
}

// NewTreeCollector construye el recolector. timeout <= 0 usa DefaultCallTimeout.
func NewTreeCollector(source ports.SourceCatalog, timeout time.Duration) *TreeCollector {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &TreeCollector{source: source, timeout: timeout}
}

type visit struct {
	id     int64
	parent int64
}

// Collect devuelve un nodo por cada id distinto alcanzable desde roots, cada uno después de su padre.
// Si cualquier lectura falla se devuelve el error y ningún nodo: un árbol parcial produciría un plan erróneo.
func (c *TreeCollector) Collect(ctx context.Context, roots []int64) ([]entity.CollectedNode, error) {
	queue, err := rootVisits(roots)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{})
	var out []entity.CollectedNode
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		if _, ok := seen[v.id]; ok {
			continue
		}
		seen[v.id] = struct{}{}

		node, err := c.fetch(ctx, v.id)
		if err != nil {
			return nil, err
		}
		out = append(out, entity.CollectedNode{
			SourceID:       v.id,
			Title:          titleFor(node, v.id),
			ParentSourceID: v.parent,
		})
		for _, child := range node.ChildSet() {
			if _, ok := seen[child]; !ok {
				queue = append(queue, visit{id: child, parent: v.id})
			}
		}
	}
	return out, nil
}

func (c *TreeCollector) fetch(ctx context.Context, id int64) (*entity.SourceNode, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	node, err := c.source.FetchCategory(callCtx, id)
	if err != nil {
		var upErr *domain.UpstreamError
		if errors.As(err, &upErr) {
			return nil, err
		}
		return nil, &domain.UpstreamError{Op: "fetch category", SourceID: id, Err: err}
	}
	if node == nil {
		return nil, &domain.UpstreamError{Op: "fetch category", SourceID: id, Err: domain.ErrNotFound}
	}
	return node, nil
}

// rootVisits valida y deduplica las raíces conservando su orden.
func rootVisits(roots []int64) ([]visit, error) {
	if len(roots) == 0 {
		return nil, &domain.ValidationError{Field: "roots", Reason: "se requiere al menos una raíz"}
	}
	seen := make(map[int64]struct{}, len(roots))
	out := make([]visit, 0, len(roots))
	for _, id := range roots {
		if id <= 0 {
			return nil, &domain.ValidationError{Field: "roots", Reason: "los ids deben ser enteros positivos"}
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, visit{id: id})
	}
	return out, nil
}

func titleFor(node *entity.SourceNode, id int64) string {
	n := *node
	if n.ID == 0 {
		n.ID = id
	}
	return n.DisplayTitle()
}
