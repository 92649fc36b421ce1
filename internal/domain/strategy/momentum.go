package strategy

import "github.com/alejandrodnm/stratbench/internal/domain"

// MomentumConfig configura la estrategia de momentum. Threshold en %.
type MomentumConfig struct {
	Period    int     `yaml:"period"`
	Threshold float64 `yaml:"threshold"`
}

// Momentum sigue la tendencia: compra si el precio subió más de Threshold% en
// Period días y vende si cayó más de Threshold%.
type Momentum struct {
	cfg MomentumConfig
}

// NewMomentum crea la estrategia; defaults 10 / 5.0.
func NewMomentum(cfg MomentumConfig) *Momentum {
	if cfg.Period <= 0 {
		cfg.Period = 10
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5.0
	}
	return &Momentum{cfg: cfg}
}

func (s *Momentum) Name() string { return "Momentum" }

func (s *Momentum) Description() string {
	return "Momentum: buys after a strong rise and sells after a strong fall, betting that the trend continues."
}

func (s *Momentum) CalculateSignal(history []float64) (domain.Signal, error) {
	if len(history) < s.cfg.Period {
		return domain.SignalHold, nil
	}
	m := domain.Momentum(history, s.cfg.Period)
	if err := checkFinite("momentum", m); err != nil {
		return domain.SignalHold, err
	}
	switch {
	case m > s.cfg.Threshold:
		return domain.SignalBuy, nil
	case m < -s.cfg.Threshold:
		return domain.SignalSell, nil
	default:
		return domain.SignalHold, nil
	}
}

func (s *Momentum) Reset() {}
