package parquetstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/alejandrodnm/stratbench/internal/domain"
	"github.com/alejandrodnm/stratbench/internal/ports"
)

var _ ports.PriceProvider = (*BarStore)(nil)

// BarStore guarda cierres diarios en archivos Parquet, uno por símbolo:
//
//	<Dir>/<SYMBOL>/daily.parquet
type BarStore struct {
	Dir string
}

// NewBarStore crea un BarStore con raíz en dir.
func NewBarStore(dir string) *BarStore {
	return &BarStore{Dir: dir}
}

// barRecord es el esquema on-disk.
type barRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Close     float64 `parquet:"close"`
}

// WriteBars mezcla las barras con las ya guardadas (las nuevas ganan por fecha).
func (s *BarStore) WriteBars(symbol string, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	symbol = normalize(symbol)

	records := make([]barRecord, len(bars))
	for i, b := range bars {
		records[i] = barRecord{Symbol: symbol, Timestamp: b.Date.UnixMilli(), Close: b.Close}
	}

	path := s.path(symbol)
	existing, err := readParquetFile[barRecord](path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("parquetstore.WriteBars: read %s: %w", path, err)
	}
	if err := writeParquetFile(path, mergeBarRecords(existing, records)); err != nil {
		return fmt.Errorf("parquetstore.WriteBars: %s: %w", symbol, err)
	}
	return nil
}

// ReadBars devuelve todas las barras guardadas del símbolo, ordenadas por fecha.
// Devuelve un error que envuelve os.ErrNotExist si no hay archivo.
func (s *BarStore) ReadBars(symbol string) ([]domain.Bar, error) {
	symbol = normalize(symbol)
	records, err := readParquetFile[barRecord](s.path(symbol))
	if err != nil {
		return nil, fmt.Errorf("parquetstore.ReadBars: %s: %w", symbol, err)
	}

	bars := make([]domain.Bar, len(records))
	for i, r := range records {
		bars[i] = domain.Bar{Date: time.UnixMilli(r.Timestamp).UTC(), Close: r.Close}
	}
	return bars, nil
}

// FetchPrices sirve los precios sólo desde disco (fuente "parquet").
func (s *BarStore) FetchPrices(_ context.Context, symbol string, days int) (domain.PriceSeries, error) {
	bars, err := s.ReadBars(symbol)
	if errors.Is(err, os.ErrNotExist) {
		return domain.PriceSeries{}, fmt.Errorf("parquetstore.FetchPrices: %s: %w", symbol, domain.ErrEmptySeries)
	}
	if err != nil {
		return domain.PriceSeries{}, err
	}
	if len(bars) == 0 {
		return domain.PriceSeries{}, fmt.Errorf("parquetstore.FetchPrices: %s: %w", symbol, domain.ErrEmptySeries)
	}

	series := domain.NewPriceSeries(normalize(symbol), bars).Tail(days)
	if err := series.Validate(); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("parquetstore.FetchPrices: %w", err)
	}
	slog.Debug("prices loaded from parquet", "symbol", series.Symbol, "days", series.Len())
	return series, nil
}

// windowRecord guarda el rango de calendario que la fuente remota ya cubrió.
// Las acciones sólo tienen cierres en días hábiles, así que el número de barras
// no alcanza para saber si el cache cubre una petición de N días.
type windowRecord struct {
	Symbol string `parquet:"symbol"`
	From   int64  `parquet:"from,timestamp(millisecond)"`
	To     int64  `parquet:"to,timestamp(millisecond)"`
}

// WriteWindow registra que [from, to] ya se descargó. Si se solapa con la
// ventana guardada las une; si no, la reemplaza.
func (s *BarStore) WriteWindow(symbol string, from, to time.Time) error {
	symbol = normalize(symbol)
	rec := windowRecord{Symbol: symbol, From: from.UnixMilli(), To: to.UnixMilli()}

	path := s.windowPath(symbol)
	existing, err := readParquetFile[windowRecord](path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("parquetstore.WriteWindow: read %s: %w", path, err)
	}
	if len(existing) > 0 {
		old := existing[0]
		if old.From <= rec.To && old.To >= rec.From {
			rec.From = min(rec.From, old.From)
			rec.To = max(rec.To, old.To)
		}
	}
	if err := writeParquetFile(path, []windowRecord{rec}); err != nil {
		return fmt.Errorf("parquetstore.WriteWindow: %s: %w", symbol, err)
	}
	return nil
}

// Window devuelve el rango descargado del símbolo; ok=false si no hay registro.
func (s *BarStore) Window(symbol string) (from, to time.Time, ok bool, err error) {
	symbol = normalize(symbol)
	records, err := readParquetFile[windowRecord](s.windowPath(symbol))
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("parquetstore.Window: %s: %w", symbol, err)
	}
	if len(records) == 0 {
		return time.Time{}, time.Time{}, false, nil
	}
	r := records[0]
	return time.UnixMilli(r.From).UTC(), time.UnixMilli(r.To).UTC(), true, nil
}

// Symbols lista los símbolos con datos en disco, en orden alfabético.
func (s *BarStore) Symbols() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parquetstore.Symbols: %w", err)
	}

	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(s.path(e.Name())); err == nil {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *BarStore) path(symbol string) string {
	// ":" no es válido en nombres de archivo en todas las plataformas
	dir := strings.ReplaceAll(symbol, ":", "_")
	return filepath.Join(s.Dir, dir, "daily.parquet")
}

func (s *BarStore) windowPath(symbol string) string {
	return filepath.Join(filepath.Dir(s.path(symbol)), "window.parquet")
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return parquet.ReadFile[T](path)
}

// mergeBarRecords deduplica por timestamp, prefiriendo los registros nuevos.
func mergeBarRecords(existing, incoming []barRecord) []barRecord {
	seen := make(map[int64]barRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, r := range incoming {
		seen[r.Timestamp] = r
	}

	merged := make([]barRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
