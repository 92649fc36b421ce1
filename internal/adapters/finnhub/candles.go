package finnhub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/stratbench/internal/domain"
)

const (
	stockCandlePath  = "/stock/candle"
	cryptoCandlePath = "/crypto/candle"

	// días extra pedidos para cubrir fines de semana y feriados
	windowPadding = 10
	// por debajo de esto la respuesta no sirve para ningún indicador
	minBars = 10
)

// candleResponse es la respuesta de /stock/candle y /crypto/candle.
type candleResponse struct {
	Close  []float64 `json:"c"`
	Time   []int64   `json:"t"`
	Status string    `json:"s"`
}

var cryptoSymbols = map[string]string{
	"BTC-USD": "BINANCE:BTCUSDT",
	"ETH-USD": "BINANCE:ETHUSDT",
	"BTC":     "BINANCE:BTCUSDT",
	"ETH":     "BINANCE:ETHUSDT",
}

// Symbol convierte un símbolo al formato de Finnhub (cripto → par de Binance).
// Las acciones se devuelven en mayúsculas sin cambios.
func Symbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if mapped, ok := cryptoSymbols[s]; ok {
		return mapped
	}
	return s
}

func isCrypto(finnhubSymbol string) bool {
	return strings.Contains(finnhubSymbol, ":")
}

// FetchPrices implementa ports.PriceProvider.
// Prueba /stock/candle y, para símbolos cripto, cae a /crypto/candle.
func (c *Client) FetchPrices(ctx context.Context, symbol string, days int) (domain.PriceSeries, error) {
	if days <= 0 {
		return domain.PriceSeries{}, fmt.Errorf("finnhub.FetchPrices: days must be > 0, got %d", days)
	}
	fsym := Symbol(symbol)

	bars, err := c.fetchCandles(ctx, stockCandlePath, fsym, days)
	if err != nil && isCrypto(fsym) && !errors.Is(err, ErrUnauthorized) {
		slog.Warn("stock candles failed, trying crypto endpoint", "symbol", fsym, "err", err)
		bars, err = c.fetchCandles(ctx, cryptoCandlePath, fsym, days)
	}
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("finnhub.FetchPrices: %s: %w", symbol, err)
	}

	series := domain.NewPriceSeries(strings.ToUpper(symbol), bars).Tail(days)
	if err := series.Validate(); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("finnhub.FetchPrices: %w", err)
	}

	lo, hi := series.MinMax()
	slog.Info("prices fetched",
		"symbol", series.Symbol,
		"source", "finnhub",
		"days", series.Len(),
		"last", series.Closes[series.Len()-1],
		"min", lo,
		"max", hi,
	)
	return series, nil
}

func (c *Client) fetchCandles(ctx context.Context, path, fsym string, days int) ([]domain.Bar, error) {
	to := c.now().UTC()
	from := to.AddDate(0, 0, -(days + windowPadding))

	q := url.Values{}
	q.Set("symbol", fsym)
	q.Set("resolution", "D")
	q.Set("from", strconv.FormatInt(from.Unix(), 10))
	q.Set("to", strconv.FormatInt(to.Unix(), 10))

	var resp candleResponse
	if err := c.get(ctx, c.base+path+"?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return mapCandles(resp)
}

// mapCandles convierte la respuesta columnar en barras ordenadas por fecha.
func mapCandles(resp candleResponse) ([]domain.Bar, error) {
	if resp.Status == "no_data" {
		return nil, domain.ErrEmptySeries
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("unexpected status %q", resp.Status)
	}
	if len(resp.Close) < minBars {
		return nil, fmt.Errorf("only %d closes: %w", len(resp.Close), domain.ErrEmptySeries)
	}
	if len(resp.Time) != len(resp.Close) {
		return nil, fmt.Errorf("%d timestamps for %d closes", len(resp.Time), len(resp.Close))
	}

	bars := make([]domain.Bar, len(resp.Close))
	for i := range resp.Close {
		t := time.Unix(resp.Time[i], 0).UTC()
		bars[i] = domain.Bar{
			Date:  time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
			Close: resp.Close[i],
		}
	}
	return bars, nil
}
