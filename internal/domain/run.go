package domain

import "time"

// RunMeta describe una comparación persistida: qué se corrió y con qué datos.
type RunMeta struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	Days           int       `json:"days"`
	InitialCapital float64   `json:"initial_capital"`
	Source         string    `json:"source"`
	CreatedAt      time.Time `json:"created_at"`
}

// RunSummary es una fila del historial de runs.
type RunSummary struct {
	RunMeta
	Strategies   int     `json:"strategies"`
	Profitable   int     `json:"profitable"`
	BestStrategy string  `json:"best_strategy"`
	BestReturn   float64 `json:"best_return"`
}
