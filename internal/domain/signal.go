package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Signal es la decisión diaria de una estrategia.
type Signal int

const (
	SignalHold Signal = iota // sin acción
	SignalBuy                // convertir todo el cash en acciones
	SignalSell               // liquidar todas las acciones
)

func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "buy"
	case SignalSell:
		return "sell"
	default:
		return "hold"
	}
}

// Icon devuelve la marca corta usada en las tablas de consola.
func (s Signal) Icon() string {
	switch s {
	case SignalBuy:
		return "[B]"
	case SignalSell:
		return "[S]"
	default:
		return "[ ]"
	}
}

// ParseSignal convierte "buy" | "sell" | "hold" (sin distinguir mayúsculas) en Signal.
func ParseSignal(v string) (Signal, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "buy":
		return SignalBuy, nil
	case "sell":
		return SignalSell, nil
	case "hold":
		return SignalHold, nil
	}
	return SignalHold, fmt.Errorf("domain.ParseSignal: unknown signal %q", v)
}

// MarshalJSON serializa la señal como string.
func (s Signal) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON acepta la forma string producida por MarshalJSON.
func (s *Signal) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("domain.Signal: %w", err)
	}
	parsed, err := ParseSignal(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
