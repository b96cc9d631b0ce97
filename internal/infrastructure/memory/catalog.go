// Package memory implementa los puertos de catálogo en memoria: un catálogo origen cargable
// desde un snapshot JSON (ejecuciones offline) y una tienda destino para pruebas.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/jhoicas/catalogo-sync/internal/application/ports"
	"github.com/jhoicas/catalogo-sync/internal/domain"
	"github.com/jhoicas/catalogo-sync/internal/domain/entity"
)

var _ ports.SourceCatalog = (*Catalog)(nil)

// Catalog catálogo origen en memoria.
type Catalog struct {
	mu      sync.RWMutex
	nodes   map[int64]entity.SourceNode
	failing map[int64]error
	fetches map[int64]int
}

// NewCatalog construye un catálogo vacío.
func NewCatalog() *Catalog {
	return &Catalog{
		nodes:   make(map[int64]entity.SourceNode),
		failing: make(map[int64]error),
		fetches: make(map[int64]int),
	}
}

// snapshotNode formato del snapshot JSON: {"id":1,"title":"X","child_ids":[2],"children":[...]}.
type snapshotNode struct {
	ID       int64          `json:"id"`
	Title    string         `json:"title"`
	ChildIDs []int64        `json:"child_ids"`
	Children []snapshotNode `json:"children"`
}

// LoadSnapshot lee un arreglo JSON de nodos (los hijos embebidos también se registran).
func LoadSnapshot(r io.Reader) (*Catalog, error) {
	var raw []snapshotNode
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("snapshot: decodificar JSON: %w", err)
	}
	c := NewCatalog()
	var walk func(n snapshotNode) entity.SourceNode
	walk = func(n snapshotNode) entity.SourceNode {
		node := entity.SourceNode{ID: n.ID, Title: n.Title, ChildIDs: n.ChildIDs}
		for _, ch := range n.Children {
			node.Children = append(node.Children, walk(ch))
		}
		c.Put(node)
		return node
	}
	for _, n := range raw {
		walk(n)
	}
	return c, nil
}

// Put registra o reemplaza un nodo. Si ya había un nodo con hijos embebidos y el nuevo no trae
// título, se conserva el existente.
func (c *Catalog) Put(node entity.SourceNode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.nodes[node.ID]; ok && node.Title == "" {
		node.Title = prev.Title
	}
	c.nodes[node.ID] = node
}

// Link agrega child como hijo de parent (crea los nodos si faltan).
func (c *Catalog) Link(parent, child int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.nodes[parent]
	p.ID = parent
	p.ChildIDs = append(p.ChildIDs, child)
	c.nodes[parent] = p
	if _, ok := c.nodes[child]; !ok {
		c.nodes[child] = entity.SourceNode{ID: child}
	}
}

// FailOn hace que FetchCategory(id) devuelva err.
func (c *Catalog) FailOn(id int64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failing[id] = err
}

// Fetches cuántas veces se pidió id.
func (c *Catalog) Fetches(id int64) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetches[id]
}

// FetchCategory implementa ports.SourceCatalog.
func (c *Catalog) FetchCategory(ctx context.Context, id int64) (*entity.SourceNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetches[id]++
	if err, ok := c.failing[id]; ok {
		return nil, &domain.UpstreamError{Op: "fetch category", SourceID: id, Err: err}
	}
	node, ok := c.nodes[id]
	if !ok {
		return nil, &domain.UpstreamError{Op: "fetch category", SourceID: id, Status: 404, Err: domain.ErrNotFound}
	}
	return &node, nil
}
