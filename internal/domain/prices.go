package domain

import (
	"fmt"
	"math"
	"time"
)

// Bar es un cierre diario con su fecha.
type Bar struct {
	Date  time.Time
	Close float64
}

// PriceSeries es la serie de cierres diarios sobre la que corre un backtest.
// Índice 0 = el día más antiguo. El engine nunca la modifica.
type PriceSeries struct {
	Symbol string
	Closes []float64
	Dates  []time.Time // opcional; si len(Dates) == len(Closes) se usan como etiquetas
}

// NewPriceSeries construye una serie a partir de barras ya ordenadas por fecha.
func NewPriceSeries(symbol string, bars []Bar) PriceSeries {
	ps := PriceSeries{
		Symbol: symbol,
		Closes: make([]float64, len(bars)),
		Dates:  make([]time.Time, len(bars)),
	}
	for i, b := range bars {
		ps.Closes[i] = b.Close
		ps.Dates[i] = b.Date
	}
	return ps
}

// Len devuelve el número de días de la serie.
func (p PriceSeries) Len() int {
	return len(p.Closes)
}

// Label devuelve la etiqueta de fecha del día i: la fecha real si se conoce,
// o "Day i" en caso contrario.
func (p PriceSeries) Label(i int) string {
	if len(p.Dates) == len(p.Closes) && i >= 0 && i < len(p.Dates) && !p.Dates[i].IsZero() {
		return p.Dates[i].Format("2006-01-02")
	}
	return fmt.Sprintf("Day %d", i)
}

// Validate comprueba que todos los precios sean positivos y finitos.
// Una serie vacía es válida: el engine la trata como caso degenerado.
func (p PriceSeries) Validate() error {
	for i, c := range p.Closes {
		if c <= 0 || math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("domain.PriceSeries: day %d (%s): %v: %w", i, p.Label(i), c, ErrInvalidPrice)
		}
	}
	if len(p.Dates) > 0 && len(p.Dates) != len(p.Closes) {
		return fmt.Errorf("domain.PriceSeries: %d dates for %d closes", len(p.Dates), len(p.Closes))
	}
	return nil
}

// Tail devuelve los últimos n días de la serie (o la serie completa si n <= 0 o n >= Len).
func (p PriceSeries) Tail(n int) PriceSeries {
	if n <= 0 || n >= len(p.Closes) {
		return p
	}
	start := len(p.Closes) - n
	out := PriceSeries{Symbol: p.Symbol, Closes: p.Closes[start:]}
	if len(p.Dates) == len(p.Closes) {
		out.Dates = p.Dates[start:]
	}
	return out
}

// MinMax devuelve el mínimo y máximo de la serie (0, 0 si está vacía).
func (p PriceSeries) MinMax() (lo, hi float64) {
	if len(p.Closes) == 0 {
		return 0, 0
	}
	lo, hi = p.Closes[0], p.Closes[0]
	for _, c := range p.Closes[1:] {
		lo = math.Min(lo, c)
		hi = math.Max(hi, c)
	}
	return lo, hi
}
