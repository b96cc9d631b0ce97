package entity

import "fmt"

// SourceNode nodo del árbol de categorías del catálogo origen.
// ChildIDs y Children pueden solaparse; el recolector usa la unión.
type SourceNode struct {
	ID       int64
	Title    string
	ChildIDs []int64
	Children []SourceNode
}

// DisplayTitle devuelve el título o una etiqueta sintetizada si viene vacío.
func (n SourceNode) DisplayTitle() string {
	if n.Title != "" {
		return n.Title
	}
	return fmt.Sprintf("Category %d", n.ID)
}

// ChildSet une los ids embebidos y los listados aparte, sin duplicados y descartando ids no positivos.
// Conserva el orden de aparición (primero Children, luego ChildIDs).
func (n SourceNode) ChildSet() []int64 {
	seen := make(map[int64]struct{}, len(n.Children)+len(n.ChildIDs))
	out := make([]int64, 0, len(n.Children)+len(n.ChildIDs))
	add := func(id int64) {
		if id <= 0 {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, c := range n.Children {
		add(c.ID)
	}
	for _, id := range n.ChildIDs {
		add(id)
	}
	return out
}

// CollectedNode nodo recolectado con su padre. ParentSourceID = 0 para raíces.
type CollectedNode struct {
	SourceID       int64
	Title          string
	ParentSourceID int64
}
