package domain

import "math"

// Indicadores técnicos puros sobre una secuencia de cierres.
// Las estrategias comparan sus umbrales contra estas definiciones exactas,
// así que cualquier cambio de fórmula cambia las señales.

// SMA devuelve la media aritmética de los últimos `period` precios.
// Con menos historia devuelve el último precio (0 si no hay precios).
func SMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if period <= 0 || len(prices) < period {
		return prices[len(prices)-1]
	}
	sum := 0.0
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period)
}

// EMA calcula la media exponencial sembrada con el PRIMER precio del slice recibido:
//
//	k   = 2 / (period + 1)
//	ema = price×k + ema×(1-k)
//
// Se recalcula desde el inicio del slice en cada llamada, por lo que el valor
// depende de cuánta historia se pase (no es un EMA incremental).
func EMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if period <= 0 || len(prices) < period {
		return prices[len(prices)-1]
	}
	k := 2.0 / float64(period+1)
	ema := prices[0]
	for _, p := range prices[1:] {
		ema = p*k + ema*(1-k)
	}
	return ema
}

// RSI calcula el Relative Strength Index con medias simples de ganancias y
// pérdidas sobre los últimos `period` cambios.
//
//	RSI = 100 - 100 / (1 + avgGain/avgLoss)
//
// Devuelve 100 si avgLoss == 0 y 50 (neutral) si hay menos de period+1 precios.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return 50
	}
	var gains, losses float64
	for i := len(prices) - period; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD devuelve EMA(fast) - EMA(slow) sobre el slice completo.
// 0 si hay menos de `slow` precios.
func MACD(prices []float64, fast, slow int) float64 {
	if len(prices) < slow {
		return 0
	}
	return EMA(prices, fast) - EMA(prices, slow)
}

// BollingerBands devuelve (upper, middle, lower) con desviación estándar
// poblacional (divide por period) de los últimos `period` precios.
// Con historia insuficiente las tres bandas colapsan en el último precio.
func BollingerBands(prices []float64, period int, k float64) (upper, middle, lower float64) {
	if len(prices) == 0 {
		return 0, 0, 0
	}
	if period <= 0 || len(prices) < period {
		last := prices[len(prices)-1]
		return last, last, last
	}
	middle = SMA(prices, period)
	variance := 0.0
	for _, p := range prices[len(prices)-period:] {
		d := p - middle
		variance += d * d
	}
	std := math.Sqrt(variance / float64(period))
	return middle + k*std, middle, middle - k*std
}

// Stochastic devuelve %K = (último - mínimo) / (máximo - mínimo) × 100 sobre
// los últimos `period` precios. 50 si el rango es plano o la historia es corta.
func Stochastic(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period {
		return 50
	}
	window := prices[len(prices)-period:]
	lo, hi := window[0], window[0]
	for _, p := range window[1:] {
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	if hi == lo {
		return 50
	}
	return (prices[len(prices)-1] - lo) / (hi - lo) * 100
}

// Momentum devuelve el cambio porcentual entre el último precio y el precio
// `period` posiciones antes del final (prices[len-period]). 0 si la historia es corta.
// Si el precio de referencia es 0 el resultado no es finito; el llamador decide.
func Momentum(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period {
		return 0
	}
	ref := prices[len(prices)-period]
	return (prices[len(prices)-1] - ref) / ref * 100
}

// IsFinite devuelve true si v no es NaN ni ±Inf.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
