package strategy

import (
	"fmt"

	"github.com/alejandrodnm/stratbench/internal/domain"
)

// MeanReversionConfig configura la estrategia de reversión a la media. Threshold en %.
type MeanReversionConfig struct {
	Period    int     `yaml:"period"`
	Threshold float64 `yaml:"threshold"`
}

// MeanReversion apuesta contra el momentum: compra lejos por debajo de la
// media y vende lejos por encima.
type MeanReversion struct {
	cfg MeanReversionConfig
}

// NewMeanReversion crea la estrategia; defaults 20 / 10.0.
func NewMeanReversion(cfg MeanReversionConfig) *MeanReversion {
	if cfg.Period <= 0 {
		cfg.Period = 20
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 10.0
	}
	return &MeanReversion{cfg: cfg}
}

func (s *MeanReversion) Name() string { return "Mean Reversion" }

func (s *MeanReversion) Description() string {
	return "Mean reversion: assumes prices return to their average; buys far below the SMA and sells far above it."
}

// CalculateSignal calcula deviation = (precio - SMA) / SMA × 100.
func (s *MeanReversion) CalculateSignal(history []float64) (domain.Signal, error) {
	if len(history) < s.cfg.Period {
		return domain.SignalHold, nil
	}
	avg := domain.SMA(history, s.cfg.Period)
	if avg == 0 {
		return domain.SignalHold, fmt.Errorf("mean_reversion: zero average over %d days: %w", s.cfg.Period, domain.ErrNonFinite)
	}
	deviation := (history[len(history)-1] - avg) / avg * 100
	if err := checkFinite("mean_reversion", deviation); err != nil {
		return domain.SignalHold, err
	}
	return threshold(deviation, -s.cfg.Threshold, s.cfg.Threshold), nil
}

func (s *MeanReversion) Reset() {}
