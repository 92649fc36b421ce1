package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBacktestResult_ProfitLoss(t *testing.T) {
	r := BacktestResult{InitialCapital: 10000, FinalValue: 12100}
	assert.InDelta(t, 2100.0, r.ProfitLoss(), 1e-9)
}

func TestBacktestResult_JSONShape(t *testing.T) {
	r := BacktestResult{
		StrategyName:     "Buy & Hold",
		InitialCapital:   10000,
		FinalValue:       12100,
		ReturnPercentage: 21,
		TotalTrades:      1,
		PortfolioValues:  []float64{10000, 11000, 12100},
		TradeHistory: []TradeRecord{{
			Date:           "Day 0",
			Signal:         SignalBuy,
			Price:          100,
			SharesAfter:    100,
			CapitalBefore:  10000,
			PortfolioValue: 10000,
		}},
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.InDelta(t, 2100.0, got["profit_loss"], 1e-9)
	assert.Equal(t, "Buy & Hold", got["strategy_name"])

	trades := got["trade_history"].([]any)
	require.Len(t, trades, 1)
	assert.Equal(t, "buy", trades[0].(map[string]any)["signal"])
}

func TestBacktestResult_JSONEmptyArrays(t *testing.T) {
	data, err := json.Marshal(BacktestResult{InitialCapital: 1})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"portfolio_values":[]`)
	assert.Contains(t, string(data), `"trade_history":[]`)
}

func TestRankedResult_JSONKeepsRank(t *testing.T) {
	data, err := json.Marshal(RankedResult{Rank: 2, BacktestResult: BacktestResult{StrategyName: "RSI"}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rank":2`)
	assert.Contains(t, string(data), `"strategy_name":"RSI"`)
	assert.Contains(t, string(data), `"profit_loss"`)
}

func TestComparison_BestAndProfitable(t *testing.T) {
	c := Comparison{Results: []RankedResult{
		{Rank: 1, BacktestResult: BacktestResult{StrategyName: "A", ReturnPercentage: 12}},
		{Rank: 2, BacktestResult: BacktestResult{StrategyName: "B", ReturnPercentage: 0}},
		{Rank: 3, BacktestResult: BacktestResult{StrategyName: "C", ReturnPercentage: -4}},
	}}
	best, ok := c.Best()
	require.True(t, ok)
	assert.Equal(t, "A", best.StrategyName)
	assert.Equal(t, 1, c.ProfitableCount())

	_, ok = Comparison{}.Best()
	assert.False(t, ok)
}

func TestSignal_RoundTrip(t *testing.T) {
	for _, s := range []Signal{SignalBuy, SignalSell, SignalHold} {
		data, err := json.Marshal(s)
		require.NoError(t, err)
		var back Signal
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, s, back)
	}
	_, err := ParseSignal("short")
	assert.Error(t, err)
}
