package strategy

import "github.com/alejandrodnm/stratbench/internal/domain"

// CrossoverConfig configura los cruces de medias (SMA y EMA).
type CrossoverConfig struct {
	ShortPeriod int `yaml:"short_period"`
	LongPeriod  int `yaml:"long_period"`
}

// SMACrossover compra mientras la media corta está por encima de la larga.
type SMACrossover struct {
	cfg CrossoverConfig
}

// NewSMACrossover crea el cruce SMA; defaults 10 / 30.
func NewSMACrossover(cfg CrossoverConfig) *SMACrossover {
	return &SMACrossover{cfg: crossoverDefaults(cfg, 10, 30)}
}

func (s *SMACrossover) Name() string { return "SMA" }

func (s *SMACrossover) Description() string {
	return "Simple moving average crossover: long while the short SMA is above the long SMA, out when it falls below."
}

func (s *SMACrossover) CalculateSignal(history []float64) (domain.Signal, error) {
	if len(history) < s.cfg.LongPeriod {
		return domain.SignalHold, nil
	}
	return crossSignal("sma",
		domain.SMA(history, s.cfg.ShortPeriod),
		domain.SMA(history, s.cfg.LongPeriod),
	)
}

func (s *SMACrossover) Reset() {}

// EMACrossover es el mismo cruce con medias exponenciales (reacciona antes).
type EMACrossover struct {
	cfg CrossoverConfig
}

// NewEMACrossover crea el cruce EMA; defaults 12 / 26.
func NewEMACrossover(cfg CrossoverConfig) *EMACrossover {
	return &EMACrossover{cfg: crossoverDefaults(cfg, 12, 26)}
}

func (s *EMACrossover) Name() string { return "EMA" }

func (s *EMACrossover) Description() string {
	return "Exponential moving average crossover: like SMA but weights recent prices more, so it reacts faster in volatile markets."
}

func (s *EMACrossover) CalculateSignal(history []float64) (domain.Signal, error) {
	if len(history) < s.cfg.LongPeriod {
		return domain.SignalHold, nil
	}
	return crossSignal("ema",
		domain.EMA(history, s.cfg.ShortPeriod),
		domain.EMA(history, s.cfg.LongPeriod),
	)
}

func (s *EMACrossover) Reset() {}

func crossoverDefaults(cfg CrossoverConfig, short, long int) CrossoverConfig {
	if cfg.ShortPeriod <= 0 {
		cfg.ShortPeriod = short
	}
	if cfg.LongPeriod <= 0 {
		cfg.LongPeriod = long
	}
	return cfg
}

// crossSignal: short > long → buy, short < long → sell, iguales → hold.
func crossSignal(name string, short, long float64) (domain.Signal, error) {
	if err := checkFinite(name, short, long); err != nil {
		return domain.SignalHold, err
	}
	switch {
	case short > long:
		return domain.SignalBuy, nil
	case short < long:
		return domain.SignalSell, nil
	default:
		return domain.SignalHold, nil
	}
}
