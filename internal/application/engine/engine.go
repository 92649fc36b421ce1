package engine

// engine.go: simulación día a día de una estrategia sobre una serie de cierres.
//
// Reglas:
//   - La estrategia solo ve prices[0..i] en el día i (sin look-ahead).
//   - Buy con cash > precio: TODO el cash pasa a acciones.
//   - Sell con acciones > 0: TODAS las acciones pasan a cash.
//   - Cualquier otro caso es no-op: sin cambio de estado y sin TradeRecord.
//   - La curva de equity recibe un punto por día, haya trade o no.

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/alejandrodnm/stratbench/internal/domain"
	"github.com/alejandrodnm/stratbench/internal/domain/strategy"
)

// DefaultInitialCapital es el capital usado cuando la configuración no indica otro.
const DefaultInitialCapital = 100_000.0

// Engine ejecuta backtests con full-allocation sobre un único activo.
// Es inmutable y puede compartirse entre goroutines; el estado del portfolio
// vive solo dentro de cada Run.
type Engine struct {
	initialCapital float64
}

// New crea un Engine. Rechaza capitales no positivos o no finitos.
func New(initialCapital float64) (*Engine, error) {
	if initialCapital <= 0 || math.IsNaN(initialCapital) || math.IsInf(initialCapital, 0) {
		return nil, fmt.Errorf("engine.New: %v: %w", initialCapital, domain.ErrInvalidCapital)
	}
	return &Engine{initialCapital: initialCapital}, nil
}

// InitialCapital devuelve el capital con el que arranca cada corrida.
func (e *Engine) InitialCapital() float64 {
	return e.initialCapital
}

// Run ejecuta el backtest de s sobre prices. Las fechas del TradeRecord se
// etiquetan "Day i".
func (e *Engine) Run(s strategy.Strategy, prices []float64) (domain.BacktestResult, error) {
	return e.RunSeries(s, domain.PriceSeries{Closes: prices})
}

// RunSeries ejecuta el backtest de s sobre la serie. Un error de la estrategia
// aborta la corrida y no produce resultado. Una serie vacía no es error:
// devuelve el capital inicial, cero trades y curva vacía.
func (e *Engine) RunSeries(s strategy.Strategy, series domain.PriceSeries) (domain.BacktestResult, error) {
	prices := series.Closes
	s.Reset()

	pf := portfolio{cash: e.initialCapital}
	curve := make([]float64, 0, len(prices))
	var trades []domain.TradeRecord

	for i, price := range prices {
		// capacity = len: la estrategia no puede leer ni escribir más allá de hoy
		sig, err := s.CalculateSignal(prices[: i+1 : i+1])
		if err != nil {
			return domain.BacktestResult{}, fmt.Errorf("engine.Run: %s: day %d: %w", s.Name(), i, err)
		}

		if rec, ok := pf.apply(sig, price); ok {
			rec.DayIndex = i
			rec.Date = series.Label(i)
			trades = append(trades, rec)
			slog.Debug("trade executed",
				"strategy", s.Name(),
				"day", i,
				"signal", sig.String(),
				"price", price,
				"value", rec.PortfolioValue,
			)
		}

		curve = append(curve, pf.value(price))
	}

	finalValue := e.initialCapital
	if len(curve) > 0 {
		finalValue = curve[len(curve)-1]
	}

	result := domain.BacktestResult{
		StrategyName:     s.Name(),
		Description:      s.Description(),
		InitialCapital:   e.initialCapital,
		FinalValue:       finalValue,
		ReturnPercentage: (finalValue - e.initialCapital) / e.initialCapital * 100,
		TotalTrades:      len(trades),
		PortfolioValues:  curve,
		TradeHistory:     trades,
		MaxDrawdown:      MaxDrawdown(curve),
		SharpeRatio:      SharpeRatio(curve),
		WinRate:          WinRate(trades),
	}

	slog.Debug("backtest finished",
		"strategy", result.StrategyName,
		"days", len(prices),
		"trades", result.TotalTrades,
		"return_pct", result.ReturnPercentage,
	)
	return result, nil
}

// portfolio es el estado privado de una corrida. cash >= 0 y shares >= 0 siempre.
type portfolio struct {
	cash   float64
	shares float64
}

func (p *portfolio) value(price float64) float64 {
	return p.cash + p.shares*price
}

// apply ejecuta la señal si es posible y devuelve el registro del trade.
// ok == false significa no-op (hold, buy sin cash suficiente, sell sin acciones).
func (p *portfolio) apply(sig domain.Signal, price float64) (domain.TradeRecord, bool) {
	rec := domain.TradeRecord{
		Signal:        sig,
		Price:         price,
		SharesBefore:  p.shares,
		CapitalBefore: p.cash,
	}

	switch {
	case sig == domain.SignalBuy && p.cash > price:
		p.shares += p.cash / price
		p.cash = 0
	case sig == domain.SignalSell && p.shares > 0:
		p.cash += p.shares * price
		p.shares = 0
	default:
		return domain.TradeRecord{}, false
	}

	rec.SharesAfter = p.shares
	rec.CapitalAfter = p.cash
	rec.PortfolioValue = p.value(price)
	return rec, true
}
