package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/alejandrodnm/stratbench/internal/domain"
	"github.com/alejandrodnm/stratbench/internal/domain/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank_StableDescending(t *testing.T) {
	in := []domain.BacktestResult{
		{StrategyName: "A", ReturnPercentage: 5},
		{StrategyName: "B", ReturnPercentage: 10},
		{StrategyName: "C", ReturnPercentage: 5},
		{StrategyName: "D", ReturnPercentage: -1},
		{StrategyName: "E", ReturnPercentage: 10},
	}
	ranked := Rank(in)

	var names []string
	for i, r := range ranked {
		names = append(names, r.StrategyName)
		assert.Equal(t, i+1, r.Rank)
	}
	assert.Equal(t, []string{"B", "E", "A", "C", "D"}, names)
	assert.Equal(t, "A", in[0].StrategyName, "input must not be reordered")
}

func TestCompare_FailingStrategyDoesNotAbort(t *testing.T) {
	e := newEngine(t, 10000)
	bad := newScripted()
	bad.failDay = 0
	bad.failWith = errors.New("broken indicator")

	cmp, err := e.Compare(context.Background(),
		[]strategy.Strategy{strategy.NewBuyAndHold(), bad},
		domain.PriceSeries{Symbol: "TEST", Closes: []float64{100, 110, 121}},
		1,
	)
	require.NoError(t, err)

	require.Len(t, cmp.Results, 1)
	assert.Equal(t, "Buy & Hold", cmp.Results[0].StrategyName)
	require.Len(t, cmp.Failures, 1)
	assert.Equal(t, "scripted", cmp.Failures[0].StrategyName)
	assert.Contains(t, cmp.Failures[0].Message, "broken indicator")
	assert.Equal(t, "TEST", cmp.Symbol)
	assert.Equal(t, 3, cmp.Days)
}

func TestCompare_ConcurrentMatchesSequential(t *testing.T) {
	e := newEngine(t, 10000)
	series := domain.PriceSeries{Symbol: "WAVE", Closes: wavePrices(200)}

	seq, err := e.Compare(context.Background(), defaultStrategies(t), series, 1)
	require.NoError(t, err)
	par, err := e.Compare(context.Background(), defaultStrategies(t), series, 4)
	require.NoError(t, err)

	require.Len(t, par.Results, len(seq.Results))
	for i := range seq.Results {
		assert.Equal(t, seq.Results[i].StrategyName, par.Results[i].StrategyName)
		assert.Equal(t, seq.Results[i].FinalValue, par.Results[i].FinalValue)
		assert.Equal(t, seq.Results[i].Rank, par.Results[i].Rank)
	}
}

func TestCompare_RejectsSharedInstanceInParallel(t *testing.T) {
	e := newEngine(t, 10000)
	bh := strategy.NewBuyAndHold()
	series := domain.PriceSeries{Closes: []float64{100, 110}}

	_, err := e.Compare(context.Background(), []strategy.Strategy{bh, bh}, series, 2)
	assert.ErrorIs(t, err, domain.ErrDuplicateStrategy)

	// en secuencial la instancia se resetea entre corridas
	cmp, err := e.Compare(context.Background(), []strategy.Strategy{bh, bh}, series, 1)
	require.NoError(t, err)
	require.Len(t, cmp.Results, 2)
	assert.Equal(t, cmp.Results[0].FinalValue, cmp.Results[1].FinalValue)
}

// weighted es una estrategia por valor con un campo no comparable.
type weighted struct {
	name    string
	weights []float64
}

func (w weighted) Name() string        { return w.name }
func (w weighted) Description() string { return "value strategy" }
func (w weighted) Reset()              {}

func (w weighted) CalculateSignal(history []float64) (domain.Signal, error) {
	if len(history) <= len(w.weights) {
		return domain.SignalBuy, nil
	}
	return domain.SignalHold, nil
}

func TestCompare_ValueStrategiesInParallel(t *testing.T) {
	e := newEngine(t, 10000)
	series := domain.PriceSeries{Closes: []float64{100, 110, 121}}
	strategies := []strategy.Strategy{
		weighted{name: "W1", weights: []float64{1}},
		weighted{name: "W2", weights: []float64{1, 2}},
	}

	var cmp domain.Comparison
	var err error
	require.NotPanics(t, func() {
		cmp, err = e.Compare(context.Background(), strategies, series, 2)
	})
	require.NoError(t, err)
	require.Len(t, cmp.Results, 2)
	assert.Empty(t, cmp.Failures)
	assert.InDelta(t, 12100.0, cmp.Results[0].FinalValue, 1e-9)
}

func TestCompare_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newEngine(t, 10000).Compare(ctx, defaultStrategies(t), domain.PriceSeries{Closes: wavePrices(30)}, 1)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = newEngine(t, 10000).Compare(ctx, defaultStrategies(t), domain.PriceSeries{Closes: wavePrices(30)}, 3)
	assert.ErrorIs(t, err, context.Canceled)
}
