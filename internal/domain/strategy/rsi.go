package strategy

import "github.com/alejandrodnm/stratbench/internal/domain"

// RSIConfig configura la estrategia RSI. Un período <= 0 y los niveles sin
// valor (nil) toman el default; un nivel 0 es válido (oversold 0 nunca compra).
type RSIConfig struct {
	Period     int      `yaml:"period"`
	Oversold   *float64 `yaml:"oversold"`
	Overbought *float64 `yaml:"overbought"`
}

// RSI compra en sobreventa y vende en sobrecompra.
type RSI struct {
	period     int
	oversold   float64
	overbought float64
}

// NewRSI crea la estrategia; defaults 14 / 30 / 70.
func NewRSI(cfg RSIConfig) *RSI {
	s := &RSI{period: cfg.Period, oversold: 30, overbought: 70}
	if s.period <= 0 {
		s.period = 14
	}
	if cfg.Oversold != nil {
		s.oversold = *cfg.Oversold
	}
	if cfg.Overbought != nil {
		s.overbought = *cfg.Overbought
	}
	return s
}

func (s *RSI) Name() string { return "RSI" }

func (s *RSI) Description() string {
	return "Relative Strength Index: buys when the RSI drops below the oversold level and sells above the overbought level."
}

// CalculateSignal necesita period+1 precios (period cambios).
func (s *RSI) CalculateSignal(history []float64) (domain.Signal, error) {
	if len(history) < s.period+1 {
		return domain.SignalHold, nil
	}
	rsi := domain.RSI(history, s.period)
	if err := checkFinite("rsi", rsi); err != nil {
		return domain.SignalHold, err
	}
	return threshold(rsi, s.oversold, s.overbought), nil
}

func (s *RSI) Reset() {}
