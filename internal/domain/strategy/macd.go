package strategy

import "github.com/alejandrodnm/stratbench/internal/domain"

// MACDConfig configura la estrategia MACD.
type MACDConfig struct {
	Fast int `yaml:"fast"`
	Slow int `yaml:"slow"`
}

// MACD compra con MACD positivo y vende con MACD negativo.
type MACD struct {
	cfg MACDConfig
}

// NewMACD crea la estrategia; defaults 12 / 26.
func NewMACD(cfg MACDConfig) *MACD {
	if cfg.Fast <= 0 {
		cfg.Fast = 12
	}
	if cfg.Slow <= 0 {
		cfg.Slow = 26
	}
	return &MACD{cfg: cfg}
}

func (s *MACD) Name() string { return "MACD" }

func (s *MACD) Description() string {
	return "Moving Average Convergence Divergence: buys while the fast EMA is above the slow EMA (MACD > 0) and sells when it turns negative."
}

func (s *MACD) CalculateSignal(history []float64) (domain.Signal, error) {
	if len(history) < s.cfg.Slow {
		return domain.SignalHold, nil
	}
	macd := domain.MACD(history, s.cfg.Fast, s.cfg.Slow)
	return crossSignal("macd", macd, 0)
}

func (s *MACD) Reset() {}
