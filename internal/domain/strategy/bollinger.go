package strategy

import "github.com/alejandrodnm/stratbench/internal/domain"

// BollingerConfig configura las bandas. StdDev es el multiplicador k.
type BollingerConfig struct {
	Period int     `yaml:"period"`
	StdDev float64 `yaml:"std_dev"`
}

// Bollinger compra al tocar la banda inferior y vende al tocar la superior.
type Bollinger struct {
	cfg BollingerConfig
}

// NewBollinger crea la estrategia; defaults 20 / 2.0.
func NewBollinger(cfg BollingerConfig) *Bollinger {
	if cfg.Period <= 0 {
		cfg.Period = 20
	}
	if cfg.StdDev <= 0 {
		cfg.StdDev = 2.0
	}
	return &Bollinger{cfg: cfg}
}

func (s *Bollinger) Name() string { return "Bollinger" }

func (s *Bollinger) Description() string {
	return "Bollinger Bands: buys when the price touches the lower band (cheap) and sells at the upper band (expensive)."
}

func (s *Bollinger) CalculateSignal(history []float64) (domain.Signal, error) {
	if len(history) < s.cfg.Period {
		return domain.SignalHold, nil
	}
	upper, _, lower := domain.BollingerBands(history, s.cfg.Period, s.cfg.StdDev)
	if err := checkFinite("bollinger", upper, lower); err != nil {
		return domain.SignalHold, err
	}
	price := history[len(history)-1]
	switch {
	case price <= lower:
		return domain.SignalBuy, nil
	case price >= upper:
		return domain.SignalSell, nil
	default:
		return domain.SignalHold, nil
	}
}

func (s *Bollinger) Reset() {}
