package strategy

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/alejandrodnm/stratbench/internal/domain"
)

// Strategy define el contrato de una regla de trading.
// Es una función pura del historial visible; el único estado permitido es el
// de la propia corrida (p. ej. "ya compré" en BuyAndHold), que Reset limpia.
//
// Una instancia NO es segura para uso concurrente: cada corrida paralela
// necesita su propia instancia.
type Strategy interface {
	// Name devuelve el nombre visible de la estrategia.
	Name() string

	// Description explica la regla en una frase.
	Description() string

	// CalculateSignal devuelve la señal para el último día de history.
	// history contiene solo precios hasta hoy (incluido), índice 0 = el más antiguo.
	// Devuelve SignalHold si la historia es más corta que el lookback del indicador.
	CalculateSignal(history []float64) (domain.Signal, error)

	// Reset limpia el estado de la corrida. El engine lo llama antes de cada backtest.
	Reset()
}

// Registry mantiene las estrategias disponibles en orden de registro.
type Registry struct {
	order []string
	byKey map[string]Strategy
}

// NewRegistry crea un registry vacío.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]Strategy)}
}

// Register añade una estrategia; si ya existía una con la misma key la reemplaza
// manteniendo su posición original.
func (r *Registry) Register(s Strategy) {
	key := Key(s.Name())
	if _, ok := r.byKey[key]; !ok {
		r.order = append(r.order, key)
	}
	r.byKey[key] = s
}

// Get devuelve la estrategia por nombre visible o por key ("mean_reversion").
func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.byKey[Key(name)]
	return s, ok
}

// All devuelve todas las estrategias en orden de registro.
func (r *Registry) All() []Strategy {
	out := make([]Strategy, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.byKey[k])
	}
	return out
}

// Keys devuelve las keys en orden de registro.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.order...)
}

// Len devuelve el número de estrategias registradas.
func (r *Registry) Len() int {
	return len(r.order)
}

// Select devuelve las estrategias pedidas, en el orden pedido.
// Una lista vacía devuelve todas.
func (r *Registry) Select(names []string) ([]Strategy, error) {
	if len(names) == 0 {
		return r.All(), nil
	}
	out := make([]Strategy, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		s, ok := r.Get(n)
		if !ok {
			return nil, fmt.Errorf("strategy.Select: %q (known: %s): %w",
				n, strings.Join(r.order, ", "), domain.ErrUnknownStrategy)
		}
		out = append(out, s)
	}
	return out, nil
}

// Key normaliza un nombre a su forma de lookup: minúsculas, y cualquier
// secuencia de caracteres no alfanuméricos colapsada en "_".
// "Mean Reversion" → "mean_reversion", "Buy & Hold" → "buy_hold".
func Key(name string) string {
	var sb strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			pendingSep = false
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingSep = true
	}
	return sb.String()
}

// checkFinite falla con ErrNonFinite si algún valor es NaN o ±Inf.
func checkFinite(strategy string, values ...float64) error {
	for _, v := range values {
		if !domain.IsFinite(v) {
			return fmt.Errorf("%s: %v: %w", strategy, v, domain.ErrNonFinite)
		}
	}
	return nil
}

// threshold traduce la comparación clásica "compra si x < low, vende si x > high".
func threshold(x, low, high float64) domain.Signal {
	switch {
	case x < low:
		return domain.SignalBuy
	case x > high:
		return domain.SignalSell
	default:
		return domain.SignalHold
	}
}
