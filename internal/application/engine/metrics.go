package engine

import (
	"math"

	"github.com/alejandrodnm/stratbench/internal/domain"
)

// TradingDaysPerYear anualiza el Sharpe.
const TradingDaysPerYear = 252

// MaxDrawdown devuelve la mayor caída desde un máximo previo, en %.
//
//	drawdown[t] = (peak - value[t]) / peak
//
// 0 con menos de 2 puntos.
func MaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	peak := values[0]
	maxDD := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - v) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD * 100
}

// DailyReturns devuelve los retornos simples día a día de la curva.
// Los días cuyo valor previo es 0 se omiten (retorno indefinido).
func DailyReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			continue
		}
		out = append(out, (values[i]-prev)/prev)
	}
	return out
}

// SharpeRatio simplificado (tasa libre de riesgo 0):
//
//	sharpe = mean(r) / stdev(r) × √252
//
// con desviación estándar muestral (n-1). 0 con menos de 2 retornos o stdev 0.
func SharpeRatio(values []float64) float64 {
	returns := DailyReturns(values)
	if len(returns) < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(returns)-1))
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(TradingDaysPerYear)
}

// WinRate compara pares consecutivos de TradeRecord (no días): un par es
// "ganado" si el portfolio_value del trade posterior supera al del anterior.
// 0 con menos de 2 trades.
func WinRate(trades []domain.TradeRecord) float64 {
	if len(trades) < 2 {
		return 0
	}
	wins, total := 0, 0
	for i := 1; i < len(trades); i++ {
		if trades[i].Signal != domain.SignalBuy && trades[i].Signal != domain.SignalSell {
			continue
		}
		total++
		if trades[i].PortfolioValue > trades[i-1].PortfolioValue {
			wins++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total) * 100
}
