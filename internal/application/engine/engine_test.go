package engine

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/alejandrodnm/stratbench/internal/domain"
	"github.com/alejandrodnm/stratbench/internal/domain/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted devuelve signals[len(history)-1] y registra lo que vio cada día.
type scripted struct {
	signals  []domain.Signal
	seen     [][]float64
	caps     []int
	resets   int
	failDay  int // -1 = nunca
	failWith error
}

func newScripted(signals ...domain.Signal) *scripted {
	return &scripted{signals: signals, failDay: -1}
}

func (s *scripted) Name() string        { return "scripted" }
func (s *scripted) Description() string { return "test double" }
func (s *scripted) Reset() {
	s.resets++
	s.seen = nil
	s.caps = nil
}

func (s *scripted) CalculateSignal(history []float64) (domain.Signal, error) {
	day := len(history) - 1
	s.seen = append(s.seen, append([]float64(nil), history...))
	s.caps = append(s.caps, cap(history))
	if day == s.failDay {
		return domain.SignalHold, s.failWith
	}
	if day < len(s.signals) {
		return s.signals[day], nil
	}
	return domain.SignalHold, nil
}

func newEngine(t *testing.T, capital float64) *Engine {
	t.Helper()
	e, err := New(capital)
	require.NoError(t, err)
	return e
}

func wavePrices(n int) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = 100 + 15*math.Sin(float64(i)/4) + float64(i)*0.3
	}
	return prices
}

func defaultStrategies(t *testing.T) []strategy.Strategy {
	t.Helper()
	reg, err := strategy.NewSet(strategy.DefaultParams())
	require.NoError(t, err)
	return reg.All()
}

func TestNew_RejectsInvalidCapital(t *testing.T) {
	for _, c := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := New(c)
		assert.ErrorIs(t, err, domain.ErrInvalidCapital, "capital %v", c)
	}
}

func TestRun_BuyAndHoldBaseline(t *testing.T) {
	e := newEngine(t, 10000)

	res, err := e.Run(strategy.NewBuyAndHold(), []float64{100, 110, 121})
	require.NoError(t, err)

	assert.Equal(t, "Buy & Hold", res.StrategyName)
	assert.Equal(t, 12100.0, res.FinalValue)
	assert.Equal(t, 21.0, res.ReturnPercentage)
	assert.Equal(t, 1, res.TotalTrades)
	assert.InDelta(t, 2100.0, res.ProfitLoss(), 1e-9)
	assert.Equal(t, []float64{10000, 11000, 12100}, res.PortfolioValues)

	require.Len(t, res.TradeHistory, 1)
	tr := res.TradeHistory[0]
	assert.Equal(t, 0, tr.DayIndex)
	assert.Equal(t, "Day 0", tr.Date)
	assert.Equal(t, domain.SignalBuy, tr.Signal)
	assert.Equal(t, 100.0, tr.Price)
	assert.Equal(t, 0.0, tr.SharesBefore)
	assert.Equal(t, 100.0, tr.SharesAfter)
	assert.Equal(t, 10000.0, tr.CapitalBefore)
	assert.Equal(t, 0.0, tr.CapitalAfter)
	assert.Equal(t, 10000.0, tr.PortfolioValue)
}

func TestRun_EmptyPrices(t *testing.T) {
	e := newEngine(t, 10000)
	s := newScripted()

	res, err := e.Run(s, nil)
	require.NoError(t, err)

	assert.Equal(t, 10000.0, res.FinalValue)
	assert.Equal(t, 0.0, res.ReturnPercentage)
	assert.Equal(t, 0, res.TotalTrades)
	assert.Empty(t, res.PortfolioValues)
	assert.Empty(t, res.TradeHistory)
	assert.Equal(t, 0.0, res.MaxDrawdown)
	assert.Equal(t, 0.0, res.SharpeRatio)
	assert.Equal(t, 0.0, res.WinRate)
	assert.Equal(t, 1, s.resets)
}

func TestRun_BuyThenSell(t *testing.T) {
	e := newEngine(t, 10000)
	s := newScripted(domain.SignalBuy, domain.SignalSell)

	res, err := e.Run(s, []float64{100, 120, 90})
	require.NoError(t, err)

	require.Len(t, res.TradeHistory, 2)
	sell := res.TradeHistory[1]
	assert.Equal(t, domain.SignalSell, sell.Signal)
	assert.Equal(t, 1, sell.DayIndex)
	assert.Equal(t, 100.0, sell.SharesBefore)
	assert.Equal(t, 0.0, sell.SharesAfter)
	assert.Equal(t, 0.0, sell.CapitalBefore)
	assert.Equal(t, 12000.0, sell.CapitalAfter)
	assert.Equal(t, 12000.0, sell.PortfolioValue)

	// ya en cash: la caída del día 2 no afecta
	assert.Equal(t, []float64{10000, 12000, 12000}, res.PortfolioValues)
	assert.Equal(t, 20.0, res.ReturnPercentage)
	assert.Equal(t, 100.0, res.WinRate)
}

func TestRun_NoOpSignalsProduceNoRecord(t *testing.T) {
	e := newEngine(t, 10000)

	// sell sin acciones, luego buy, buy repetido sin cash, hold
	s := newScripted(domain.SignalSell, domain.SignalBuy, domain.SignalBuy, domain.SignalHold)
	res, err := e.Run(s, []float64{100, 100, 50, 60})
	require.NoError(t, err)

	assert.Equal(t, 1, res.TotalTrades)
	require.Len(t, res.TradeHistory, 1)
	assert.Equal(t, 1, res.TradeHistory[0].DayIndex)
	assert.Len(t, res.PortfolioValues, 4)
}

func TestRun_BuyRequiresCashAbovePrice(t *testing.T) {
	// cash == price no alcanza (comparación estricta)
	e := newEngine(t, 100)
	res, err := e.Run(newScripted(domain.SignalBuy, domain.SignalBuy), []float64{100, 150})
	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalTrades)
	assert.Equal(t, []float64{100, 100}, res.PortfolioValues)

	res, err = e.Run(newScripted(domain.SignalBuy), []float64{99.5})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalTrades)
}

func TestRun_StrategySeesOnlyPrefix(t *testing.T) {
	e := newEngine(t, 10000)
	s := newScripted()
	prices := []float64{5, 6, 7, 8, 9}

	_, err := e.Run(s, prices)
	require.NoError(t, err)

	require.Len(t, s.seen, len(prices))
	for i := range prices {
		assert.Equal(t, prices[:i+1], s.seen[i], "day %d", i)
		assert.Equal(t, i+1, s.caps[i], "day %d: history must not expose future capacity", i)
	}
}

func TestRun_SignalsMatchStandaloneCalls(t *testing.T) {
	prices := wavePrices(120)
	e := newEngine(t, 10000)

	for _, s := range defaultStrategies(t) {
		if _, ok := s.(*strategy.BuyAndHold); ok {
			continue
		}
		res, err := e.Run(s, prices)
		require.NoError(t, err)

		// reconstruir las señales ejecutadas con llamadas independientes
		for _, tr := range res.TradeHistory {
			sig, err := s.CalculateSignal(prices[:tr.DayIndex+1])
			require.NoError(t, err)
			assert.Equal(t, tr.Signal, sig, "%s day %d", s.Name(), tr.DayIndex)
		}
	}
}

func TestRun_PropertiesHoldForAllStrategies(t *testing.T) {
	prices := wavePrices(250)
	e := newEngine(t, 10000)

	for _, s := range defaultStrategies(t) {
		res, err := e.Run(s, prices)
		require.NoError(t, err, s.Name())

		assert.Len(t, res.PortfolioValues, len(prices), s.Name())
		assert.Equal(t, len(res.TradeHistory), res.TotalTrades, s.Name())
		assert.Equal(t, (res.FinalValue-res.InitialCapital)/res.InitialCapital*100, res.ReturnPercentage, s.Name())
		assert.Equal(t, res.PortfolioValues[len(res.PortfolioValues)-1], res.FinalValue, s.Name())

		for _, tr := range res.TradeHistory {
			assert.InEpsilon(t, tr.ValueBefore(), tr.ValueAfter(), 1e-9, "%s day %d", s.Name(), tr.DayIndex)
			assert.GreaterOrEqual(t, tr.CapitalAfter, 0.0)
			assert.GreaterOrEqual(t, tr.SharesAfter, 0.0)
		}
	}
}

func TestRun_ResetsStrategyEachRun(t *testing.T) {
	e := newEngine(t, 10000)
	bh := strategy.NewBuyAndHold()

	first, err := e.Run(bh, []float64{100, 110, 121})
	require.NoError(t, err)
	second, err := e.Run(bh, []float64{100, 110, 121})
	require.NoError(t, err)

	assert.Equal(t, first.TotalTrades, second.TotalTrades)
	assert.Equal(t, first.FinalValue, second.FinalValue)
}

func TestRun_StrategyErrorAbortsRun(t *testing.T) {
	boom := errors.New("division by zero")
	s := newScripted(domain.SignalBuy)
	s.failDay = 2
	s.failWith = boom

	res, err := newEngine(t, 10000).Run(s, []float64{1, 2, 3, 4})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "day 2")
	assert.Empty(t, res.StrategyName)
	assert.Len(t, s.seen, 3) // no se evalúan días posteriores
}

func TestRunSeries_UsesDateLabels(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series := domain.NewPriceSeries("AAPL", []domain.Bar{
		{Date: day, Close: 100},
		{Date: day.AddDate(0, 0, 1), Close: 101},
	})

	res, err := newEngine(t, 10000).RunSeries(newScripted(domain.SignalHold, domain.SignalBuy), series)
	require.NoError(t, err)
	require.Len(t, res.TradeHistory, 1)
	assert.Equal(t, "2024-01-03", res.TradeHistory[0].Date)
}
