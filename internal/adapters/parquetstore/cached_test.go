package parquetstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alejandrodnm/stratbench/internal/adapters/parquetstore"
	"github.com/alejandrodnm/stratbench/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	series domain.PriceSeries
	err    error
	calls  int
}

func (f *fakeRemote) FetchPrices(_ context.Context, _ string, days int) (domain.PriceSeries, error) {
	f.calls++
	if f.err != nil {
		return domain.PriceSeries{}, f.err
	}
	return f.series.Tail(days), nil
}

func newCached(t *testing.T, remote *fakeRemote, now time.Time) (*parquetstore.CachedProvider, *parquetstore.BarStore) {
	t.Helper()
	store := parquetstore.NewBarStore(t.TempDir())
	cp := parquetstore.NewCachedProvider(store, remote, parquetstore.CacheConfig{
		MaxAge: 48 * time.Hour,
		Now:    func() time.Time { return now },
	})
	return cp, store
}

func TestCachedProvider_MissFetchesAndStores(t *testing.T) {
	remote := &fakeRemote{series: domain.NewPriceSeries("AAPL", makeBars(0, 20, 100))}
	cp, store := newCached(t, remote, day0.AddDate(0, 0, 20))

	series, err := cp.FetchPrices(context.Background(), "AAPL", 20)
	require.NoError(t, err)
	assert.Equal(t, 20, series.Len())
	assert.Equal(t, 1, remote.calls)

	bars, err := store.ReadBars("AAPL")
	require.NoError(t, err)
	assert.Len(t, bars, 20)
}

func TestCachedProvider_HitSkipsRemote(t *testing.T) {
	remote := &fakeRemote{series: domain.NewPriceSeries("AAPL", makeBars(0, 20, 100))}
	cp, _ := newCached(t, remote, day0.AddDate(0, 0, 20))

	_, err := cp.FetchPrices(context.Background(), "AAPL", 20)
	require.NoError(t, err)

	series, err := cp.FetchPrices(context.Background(), "AAPL", 15)
	require.NoError(t, err)
	assert.Equal(t, 15, series.Len())
	assert.Equal(t, 1, remote.calls, "la segunda llamada debe salir del cache")
	assert.Equal(t, 119.0, series.Closes[14])
}

func TestCachedProvider_StaleOrShortCacheRefetches(t *testing.T) {
	remote := &fakeRemote{series: domain.NewPriceSeries("AAPL", makeBars(0, 20, 100))}
	cp, store := newCached(t, remote, day0.AddDate(0, 0, 30))
	require.NoError(t, store.WriteBars("AAPL", makeBars(0, 20, 100)))

	// último cierre hace 11 días > MaxAge
	_, err := cp.FetchPrices(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, remote.calls)

	// más días de los que hay en cache
	cp2, store2 := newCached(t, remote, day0.AddDate(0, 0, 20))
	require.NoError(t, store2.WriteBars("AAPL", makeBars(10, 10, 100)))
	_, err = cp2.FetchPrices(context.Background(), "AAPL", 20)
	require.NoError(t, err)
	assert.Equal(t, 2, remote.calls)
}

func TestCachedProvider_HitWhenRemoteReturnsFewerClosesThanDays(t *testing.T) {
	// 14 cierres para una petición de 20 días, como una acción sin fines de semana
	remote := &fakeRemote{series: domain.NewPriceSeries("AAPL", makeBars(6, 14, 100))}
	cp, _ := newCached(t, remote, day0.AddDate(0, 0, 20))

	for range 3 {
		series, err := cp.FetchPrices(context.Background(), "AAPL", 20)
		require.NoError(t, err)
		assert.Equal(t, 14, series.Len())
	}
	assert.Equal(t, 1, remote.calls)

	// una ventana más larga que la descargada vuelve a la fuente
	_, err := cp.FetchPrices(context.Background(), "AAPL", 40)
	require.NoError(t, err)
	assert.Equal(t, 2, remote.calls)
}

func TestBarStore_WindowMergesOverlaps(t *testing.T) {
	store := parquetstore.NewBarStore(t.TempDir())

	_, _, ok, err := store.Window("AAPL")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.WriteWindow("AAPL", day0.AddDate(0, 0, 10), day0.AddDate(0, 0, 20)))
	require.NoError(t, store.WriteWindow("aapl", day0, day0.AddDate(0, 0, 15)))

	from, to, ok, err := store.Window("AAPL")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, day0.Equal(from))
	assert.True(t, day0.AddDate(0, 0, 20).Equal(to))

	// sin solape reemplaza
	require.NoError(t, store.WriteWindow("AAPL", day0.AddDate(0, 0, 40), day0.AddDate(0, 0, 50)))
	from, _, _, err = store.Window("AAPL")
	require.NoError(t, err)
	assert.True(t, day0.AddDate(0, 0, 40).Equal(from))
}

func TestCachedProvider_RemoteError(t *testing.T) {
	boom := errors.New("api down")
	cp, _ := newCached(t, &fakeRemote{err: boom}, day0)

	_, err := cp.FetchPrices(context.Background(), "AAPL", 10)
	assert.ErrorIs(t, err, boom)
}
