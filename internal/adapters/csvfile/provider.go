package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/stratbench/internal/domain"
	"github.com/alejandrodnm/stratbench/internal/ports"
)

var _ ports.PriceProvider = (*Provider)(nil)

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05", "01/02/2006"}

// Provider lee cierres diarios de un CSV con cabecera. Columnas reconocidas:
// "close" (obligatoria) y "date" (opcional; sin ella las etiquetas son "Day i").
type Provider struct {
	Path string
}

// NewProvider crea un Provider sobre el archivo path.
func NewProvider(path string) *Provider {
	return &Provider{Path: path}
}

// FetchPrices implementa ports.PriceProvider. El símbolo sólo se usa como etiqueta.
func (p *Provider) FetchPrices(_ context.Context, symbol string, days int) (domain.PriceSeries, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("csvfile.FetchPrices: %w", err)
	}
	defer f.Close()

	bars, dated, err := Parse(f)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("csvfile.FetchPrices: %s: %w", p.Path, err)
	}
	if len(bars) == 0 {
		return domain.PriceSeries{}, fmt.Errorf("csvfile.FetchPrices: %s: %w", p.Path, domain.ErrEmptySeries)
	}

	series := domain.NewPriceSeries(strings.ToUpper(symbol), bars)
	if !dated {
		series.Dates = nil
	}
	series = series.Tail(days)
	if err := series.Validate(); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("csvfile.FetchPrices: %w", err)
	}

	slog.Info("prices loaded", "source", "csv", "path", p.Path, "days", series.Len())
	return series, nil
}

// Parse lee las barras del CSV. Si hay columna de fecha, las barras se devuelven
// ordenadas por fecha y dated es true.
func Parse(r io.Reader) (bars []domain.Bar, dated bool, err error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read header: %w", err)
	}

	dateCol, closeCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "date", "time", "timestamp":
			dateCol = i
		case "close", "price":
			closeCol = i
		}
	}
	if closeCol < 0 {
		return nil, false, fmt.Errorf("no close column in header %v", header)
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, false, fmt.Errorf("line %d: %w", line, err)
		}

		c, err := strconv.ParseFloat(strings.TrimSpace(rec[closeCol]), 64)
		if err != nil {
			return nil, false, fmt.Errorf("line %d: close %q: %w", line, rec[closeCol], err)
		}
		b := domain.Bar{Close: c}
		if dateCol >= 0 {
			if b.Date, err = parseDate(rec[dateCol]); err != nil {
				return nil, false, fmt.Errorf("line %d: %w", line, err)
			}
		}
		bars = append(bars, b)
	}

	if dateCol >= 0 {
		sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	}
	return bars, dateCol >= 0, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
