package entity

// FeedRow una fila del feed de precios: nombre de columna → valor crudo (string o número).
type FeedRow map[string]any
