package strategy

import (
	"fmt"

	"github.com/alejandrodnm/stratbench/internal/domain"
)

// Params agrupa los parámetros de todas las estrategias incluidas.
// Los valores en cero toman el default de cada constructor.
type Params struct {
	RSI           RSIConfig           `yaml:"rsi"`
	SMA           CrossoverConfig     `yaml:"sma"`
	EMA           CrossoverConfig     `yaml:"ema"`
	MACD          MACDConfig          `yaml:"macd"`
	Bollinger     BollingerConfig     `yaml:"bollinger"`
	Stochastic    StochasticConfig    `yaml:"stochastic"`
	Momentum      MomentumConfig      `yaml:"momentum"`
	MeanReversion MeanReversionConfig `yaml:"mean_reversion"`
}

// DefaultParams devuelve los parámetros estándar.
func DefaultParams() Params {
	return Params{
		RSI:           RSIConfig{Period: 14, Oversold: Float64(30), Overbought: Float64(70)},
		SMA:           CrossoverConfig{ShortPeriod: 10, LongPeriod: 30},
		EMA:           CrossoverConfig{ShortPeriod: 12, LongPeriod: 26},
		MACD:          MACDConfig{Fast: 12, Slow: 26},
		Bollinger:     BollingerConfig{Period: 20, StdDev: 2.0},
		Stochastic:    StochasticConfig{Period: 14, Oversold: Float64(20), Overbought: Float64(80)},
		Momentum:      MomentumConfig{Period: 10, Threshold: 5.0},
		MeanReversion: MeanReversionConfig{Period: 20, Threshold: 10.0},
	}
}

// Float64 devuelve un puntero a v, para fijar niveles opcionales.
func Float64(v float64) *float64 {
	return &v
}

// Validate rechaza combinaciones que producirían resultados engañosos.
// Se evalúa sobre los valores efectivos (con defaults aplicados).
func (p Params) Validate() error {
	rsi := NewRSI(p.RSI)
	if err := checkLevels("rsi", rsi.oversold, rsi.overbought); err != nil {
		return err
	}
	sma := NewSMACrossover(p.SMA).cfg
	if sma.ShortPeriod >= sma.LongPeriod {
		return fmt.Errorf("sma: short %d >= long %d: %w", sma.ShortPeriod, sma.LongPeriod, domain.ErrInvalidParameter)
	}
	ema := NewEMACrossover(p.EMA).cfg
	if ema.ShortPeriod >= ema.LongPeriod {
		return fmt.Errorf("ema: short %d >= long %d: %w", ema.ShortPeriod, ema.LongPeriod, domain.ErrInvalidParameter)
	}
	macd := NewMACD(p.MACD).cfg
	if macd.Fast >= macd.Slow {
		return fmt.Errorf("macd: fast %d >= slow %d: %w", macd.Fast, macd.Slow, domain.ErrInvalidParameter)
	}
	st := NewStochastic(p.Stochastic)
	if err := checkLevels("stochastic", st.oversold, st.overbought); err != nil {
		return err
	}
	return nil
}

// checkLevels exige 0 <= oversold < overbought <= 100.
func checkLevels(name string, oversold, overbought float64) error {
	if oversold < 0 {
		return fmt.Errorf("%s: oversold %.2f < 0: %w", name, oversold, domain.ErrInvalidParameter)
	}
	if oversold >= overbought {
		return fmt.Errorf("%s: oversold %.2f >= overbought %.2f: %w", name, oversold, overbought, domain.ErrInvalidParameter)
	}
	if overbought > 100 {
		return fmt.Errorf("%s: overbought %.2f > 100: %w", name, overbought, domain.ErrInvalidParameter)
	}
	return nil
}

// NewSet valida los parámetros y registra las nueve estrategias en orden
// canónico: RSI, SMA, EMA, MACD, Bollinger, Stochastic, Momentum,
// Mean Reversion, Buy & Hold. Cada llamada crea instancias nuevas.
func NewSet(p Params) (*Registry, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("strategy.NewSet: %w", err)
	}
	r := NewRegistry()
	r.Register(NewRSI(p.RSI))
	r.Register(NewSMACrossover(p.SMA))
	r.Register(NewEMACrossover(p.EMA))
	r.Register(NewMACD(p.MACD))
	r.Register(NewBollinger(p.Bollinger))
	r.Register(NewStochastic(p.Stochastic))
	r.Register(NewMomentum(p.Momentum))
	r.Register(NewMeanReversion(p.MeanReversion))
	r.Register(NewBuyAndHold())
	return r, nil
}
