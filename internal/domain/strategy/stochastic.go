package strategy

import "github.com/alejandrodnm/stratbench/internal/domain"

// StochasticConfig configura el oscilador estocástico. Igual que en RSIConfig,
// nil en un nivel significa default.
type StochasticConfig struct {
	Period     int      `yaml:"period"`
	Oversold   *float64 `yaml:"oversold"`
	Overbought *float64 `yaml:"overbought"`
}

// Stochastic compra con %K bajo y vende con %K alto.
type Stochastic struct {
	period     int
	oversold   float64
	overbought float64
}

// NewStochastic crea la estrategia; defaults 14 / 20 / 80.
func NewStochastic(cfg StochasticConfig) *Stochastic {
	s := &Stochastic{period: cfg.Period, oversold: 20, overbought: 80}
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

func (s *Stochastic) Name() string { return "Stochastic" }

func (s *Stochastic) Description() string {
	return "Stochastic oscillator: compares the close with the recent range; below 20 is oversold (buy), above 80 is overbought (sell)."
}

func (s *Stochastic) CalculateSignal(history []float64) (domain.Signal, error) {
	if len(history) < s.period {
		return domain.SignalHold, nil
	}
	k := domain.Stochastic(history, s.period)
	if err := checkFinite("stochastic", k); err != nil {
		return domain.SignalHold, err
	}
	return threshold(k, s.oversold, s.overbought), nil
}

func (s *Stochastic) Reset() {}
