package domain

import (
	"encoding/json"
	"time"
)

// BacktestResult es el resultado terminal de correr una estrategia sobre una serie.
type BacktestResult struct {
	StrategyName     string        `json:"strategy_name"`
	Description      string        `json:"description"`
	InitialCapital   float64       `json:"initial_capital"`
	FinalValue       float64       `json:"final_value"`
	ReturnPercentage float64       `json:"return_percentage"`
	TotalTrades      int           `json:"total_trades"`
	PortfolioValues  []float64     `json:"portfolio_values"`
	TradeHistory     []TradeRecord `json:"trade_history"`
	MaxDrawdown      float64       `json:"max_drawdown"`
	SharpeRatio      float64       `json:"sharpe_ratio"`
	WinRate          float64       `json:"win_rate"`
}

// ProfitLoss devuelve la ganancia/pérdida absoluta (derivada, no almacenada).
func (r BacktestResult) ProfitLoss() float64 {
	return r.FinalValue - r.InitialCapital
}

// Profitable devuelve true si la estrategia terminó por encima del capital inicial.
func (r BacktestResult) Profitable() bool {
	return r.ReturnPercentage > 0
}

// plainResult evita la recursión de MarshalJSON.
type plainResult BacktestResult

type resultView struct {
	plainResult
	ProfitLoss float64 `json:"profit_loss"`
}

func (r BacktestResult) view() resultView {
	v := resultView{plainResult: plainResult(r), ProfitLoss: r.ProfitLoss()}
	if v.PortfolioValues == nil {
		v.PortfolioValues = []float64{}
	}
	if v.TradeHistory == nil {
		v.TradeHistory = []TradeRecord{}
	}
	return v
}

// MarshalJSON añade el campo derivado profit_loss y garantiza arrays (nunca null).
func (r BacktestResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.view())
}

// RankedResult es un resultado con su posición en la comparación (1 = mejor).
type RankedResult struct {
	Rank int `json:"rank"`
	BacktestResult
}

// MarshalJSON incluye rank; sin esto el MarshalJSON promovido de BacktestResult lo perdería.
func (r RankedResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Rank int `json:"rank"`
		resultView
	}{Rank: r.Rank, resultView: r.BacktestResult.view()})
}

// StrategyFailure registra una estrategia que abortó su run.
type StrategyFailure struct {
	StrategyName string `json:"strategy_name"`
	Err          error  `json:"-"`
	Message      string `json:"error"`
}

// Comparison agrupa los resultados ordenados de varias estrategias sobre la misma serie.
type Comparison struct {
	Symbol   string            `json:"symbol"`
	Days     int               `json:"days"`
	From     string            `json:"from,omitempty"` // etiqueta del primer día
	To       string            `json:"to,omitempty"`
	RunAt    time.Time         `json:"run_at"`
	Results  []RankedResult    `json:"results"`
	Failures []StrategyFailure `json:"failures,omitempty"`
}

// Best devuelve el resultado con mayor rendimiento.
func (c Comparison) Best() (RankedResult, bool) {
	if len(c.Results) == 0 {
		return RankedResult{}, false
	}
	return c.Results[0], true
}

// ProfitableCount cuenta cuántas estrategias terminaron con rendimiento positivo.
func (c Comparison) ProfitableCount() int {
	n := 0
	for _, r := range c.Results {
		if r.Profitable() {
			n++
		}
	}
	return n
}
