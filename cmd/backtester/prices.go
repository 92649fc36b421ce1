package main

import (
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/stratbench/config"
	"github.com/alejandrodnm/stratbench/internal/adapters/csvfile"
	"github.com/alejandrodnm/stratbench/internal/adapters/finnhub"
	"github.com/alejandrodnm/stratbench/internal/adapters/parquetstore"
	"github.com/alejandrodnm/stratbench/internal/ports"
)

// newPriceProvider arma la fuente de precios según data.source.
// Con finnhub y cache_dir configurado, las descargas pasan por el cache parquet.
func newPriceProvider(cfg *config.Config) (ports.PriceProvider, error) {
	switch cfg.Data.Source {
	case config.SourceCSV:
		return csvfile.NewProvider(cfg.Data.CSVPath), nil

	case config.SourceParquet:
		return parquetstore.NewBarStore(cfg.Data.CacheDir), nil

	case config.SourceFinnhub:
		if cfg.Data.APIKey == "" {
			slog.Warn("FINNHUB_API_KEY not set, requests will likely be rejected")
		}
		client := finnhub.NewClient(finnhub.ClientConfig{
			BaseURL:           cfg.Data.FinnhubBase,
			APIKey:            cfg.Data.APIKey,
			RequestsPerMinute: cfg.Data.RequestsPerMinute,
		})
		if cfg.Data.CacheDir == "" {
			return client, nil
		}
		store := parquetstore.NewBarStore(cfg.Data.CacheDir)
		return parquetstore.NewCachedProvider(store, client, parquetstore.CacheConfig{
			MaxAge: cfg.CacheMaxAge(),
		}), nil
	}
	return nil, fmt.Errorf("unknown price source %q", cfg.Data.Source)
}
