package runner

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/alejandrodnm/stratbench/internal/adapters/csvfile"
	"github.com/alejandrodnm/stratbench/internal/adapters/storage"
	"github.com/alejandrodnm/stratbench/internal/domain"
	"github.com/alejandrodnm/stratbench/internal/domain/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	series domain.PriceSeries
	err    error
	gotSym string
	gotDay int
}

func (f *fakeProvider) FetchPrices(_ context.Context, symbol string, days int) (domain.PriceSeries, error) {
	f.gotSym, f.gotDay = symbol, days
	return f.series, f.err
}

type fakeNotifier struct {
	metas []domain.RunMeta
	cmps  []domain.Comparison
	err   error
}

func (f *fakeNotifier) NotifyComparison(_ context.Context, meta domain.RunMeta, cmp domain.Comparison) error {
	f.metas = append(f.metas, meta)
	f.cmps = append(f.cmps, cmp)
	return f.err
}

func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 10*math.Sin(float64(i)/5) + float64(i)*0.2
	}
	return out
}

func testConfig() Config {
	return Config{
		Symbol:         "TEST",
		Days:           150,
		InitialCapital: 10000,
		Params:         strategy.DefaultParams(),
		Source:         "fake",
	}
}

func TestRun_FullPipeline(t *testing.T) {
	prov := &fakeProvider{series: domain.PriceSeries{Symbol: "TEST", Closes: wave(150)}}
	note := &fakeNotifier{}
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	r, err := New(testConfig(), prov, db, note)
	require.NoError(t, err)
	r.newID = func() string { return "fixed-id" }

	meta, cmp, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "TEST", prov.gotSym)
	assert.Equal(t, 150, prov.gotDay)

	assert.Equal(t, "fixed-id", meta.ID)
	assert.Equal(t, 150, meta.Days)
	assert.Equal(t, 10000.0, meta.InitialCapital)
	assert.Equal(t, "fake", meta.Source)
	assert.Len(t, cmp.Results, 9)
	assert.Empty(t, cmp.Failures)

	require.Len(t, note.metas, 1)
	assert.Equal(t, "fixed-id", note.metas[0].ID)

	_, saved, err := db.GetRun(context.Background(), "fixed-id")
	require.NoError(t, err)
	require.Len(t, saved.Results, 9)
	assert.Equal(t, cmp.Results[0].StrategyName, saved.Results[0].StrategyName)

	runs, err := r.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, cmp.Results[0].StrategyName, runs[0].BestStrategy)
}

func TestRun_SelectedStrategiesParallel(t *testing.T) {
	cfg := testConfig()
	cfg.Strategies = []string{"rsi", "Buy & Hold", "RSI", "macd"}
	cfg.Workers = 4

	r, err := New(cfg, &fakeProvider{series: domain.PriceSeries{Closes: wave(150)}}, nil)
	require.NoError(t, err)

	meta, cmp, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "TEST", meta.Symbol, "símbolo de la config si la fuente no lo trae")

	var names []string
	for _, res := range cmp.Results {
		names = append(names, res.StrategyName)
	}
	assert.ElementsMatch(t, []string{"RSI", "Buy & Hold", "MACD"}, names)
}

func TestRun_UnknownStrategy(t *testing.T) {
	cfg := testConfig()
	cfg.Strategies = []string{"astrology"}

	r, err := New(cfg, &fakeProvider{series: domain.PriceSeries{Closes: wave(10)}}, nil)
	require.NoError(t, err)

	_, _, err = r.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnknownStrategy)
}

func TestRun_ProviderErrors(t *testing.T) {
	boom := errors.New("api down")
	r, err := New(testConfig(), &fakeProvider{err: boom}, nil)
	require.NoError(t, err)
	_, _, err = r.Run(context.Background())
	assert.ErrorIs(t, err, boom)

	r, err = New(testConfig(), &fakeProvider{}, nil)
	require.NoError(t, err)
	_, _, err = r.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrEmptySeries)
}

func TestRun_NotifierErrorDoesNotFail(t *testing.T) {
	note := &fakeNotifier{err: errors.New("stdout closed")}
	r, err := New(testConfig(), &fakeProvider{series: domain.PriceSeries{Closes: wave(40)}}, nil, note)
	require.NoError(t, err)

	_, _, err = r.Run(context.Background())
	assert.NoError(t, err)
	assert.Len(t, note.cmps, 1)
}

func TestNew_Validation(t *testing.T) {
	cfg := testConfig()
	cfg.InitialCapital = -5
	_, err := New(cfg, &fakeProvider{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidCapital)

	cfg = testConfig()
	cfg.Params.SMA = strategy.CrossoverConfig{ShortPeriod: 30, LongPeriod: 10}
	_, err = New(cfg, &fakeProvider{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	cfg = testConfig()
	cfg.Days = 0
	_, err = New(cfg, &fakeProvider{}, nil)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.InitialCapital = 0
	r, err := New(cfg, &fakeProvider{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 100_000.0, r.engine.InitialCapital())
}

func TestHistoryAndReplay_RequireStorage(t *testing.T) {
	r, err := New(testConfig(), &fakeProvider{}, nil)
	require.NoError(t, err)

	_, err = r.History(context.Background(), 5)
	assert.Error(t, err)
	assert.Error(t, r.Replay(context.Background(), "x"))
}

func TestReplay(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	note := &fakeNotifier{}
	r, err := New(testConfig(), &fakeProvider{series: domain.PriceSeries{Closes: wave(60)}}, db, note)
	require.NoError(t, err)

	meta, cmp, err := r.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, r.Replay(context.Background(), meta.ID))
	require.Len(t, note.cmps, 2)
	assert.Equal(t, meta.ID, note.metas[1].ID)
	assert.Equal(t, len(cmp.Results), len(note.cmps[1].Results))

	assert.ErrorIs(t, r.Replay(context.Background(), "missing"), storage.ErrRunNotFound)
}

func TestRun_FromCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")
	content := "date,close\n2024-01-01,100\n2024-01-02,110\n2024-01-03,121\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := testConfig()
	cfg.Strategies = []string{"buy_hold"}
	r, err := New(cfg, csvfile.NewProvider(path), nil)
	require.NoError(t, err)

	_, cmp, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, cmp.Results, 1)
	assert.InDelta(t, 21.0, cmp.Results[0].ReturnPercentage, 1e-9)
	assert.Equal(t, "2024-01-01", cmp.From)
	assert.Equal(t, "2024-01-03", cmp.To)
}
