package parquetstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/stratbench/internal/domain"
	"github.com/alejandrodnm/stratbench/internal/ports"
)

var _ ports.PriceProvider = (*CachedProvider)(nil)

// CacheConfig controla cuándo el cache se considera fresco.
type CacheConfig struct {
	MaxAge time.Duration    // antigüedad máxima del último cierre (default 72h: cubre fines de semana)
	Now    func() time.Time // default time.Now
}

// CachedProvider sirve precios desde el BarStore y sólo consulta la fuente
// remota cuando el cache no cubre los días pedidos o está desactualizado.
type CachedProvider struct {
	store  *BarStore
	remote ports.PriceProvider
	maxAge time.Duration
	now    func() time.Time
}

// NewCachedProvider envuelve remote con el cache en store.
func NewCachedProvider(store *BarStore, remote ports.PriceProvider, cfg CacheConfig) *CachedProvider {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 72 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &CachedProvider{store: store, remote: remote, maxAge: cfg.MaxAge, now: cfg.Now}
}

// FetchPrices implementa ports.PriceProvider.
func (c *CachedProvider) FetchPrices(ctx context.Context, symbol string, days int) (domain.PriceSeries, error) {
	if cached, err := c.store.FetchPrices(ctx, symbol, days); err == nil && c.fresh(symbol, cached, days) {
		slog.Info("price cache hit", "symbol", cached.Symbol, "days", cached.Len())
		return cached, nil
	}

	series, err := c.remote.FetchPrices(ctx, symbol, days)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("parquetstore.CachedProvider: %w", err)
	}

	now := c.now()
	if err := c.store.WriteBars(symbol, bars(series)); err != nil {
		// el backtest puede seguir sin cache
		slog.Warn("failed to write price cache", "symbol", symbol, "err", err)
		return series, nil
	}
	if err := c.store.WriteWindow(symbol, now.AddDate(0, 0, -days), now); err != nil {
		slog.Warn("failed to write price cache window", "symbol", symbol, "err", err)
	}
	slog.Debug("price cache updated", "symbol", series.Symbol, "days", series.Len())
	return series, nil
}

// fresh exige un último cierre reciente y, además, o bien `days` barras o
// bien una ventana descargada que empiece antes de now-days.
func (c *CachedProvider) fresh(symbol string, s domain.PriceSeries, days int) bool {
	if s.Len() == 0 || len(s.Dates) != s.Len() {
		return false
	}
	now := c.now()
	if now.Sub(s.Dates[len(s.Dates)-1]) > c.maxAge {
		return false
	}
	if s.Len() >= days {
		return true
	}

	from, _, ok, err := c.store.Window(symbol)
	if err != nil {
		slog.Warn("failed to read price cache window", "symbol", symbol, "err", err)
		return false
	}
	return ok && !from.After(now.AddDate(0, 0, -days))
}

func bars(s domain.PriceSeries) []domain.Bar {
	if len(s.Dates) != len(s.Closes) {
		return nil
	}
	out := make([]domain.Bar, len(s.Closes))
	for i := range s.Closes {
		out[i] = domain.Bar{Date: s.Dates[i], Close: s.Closes[i]}
	}
	return out
}
