package ports

import (
	"context"

	"github.com/alejandrodnm/stratbench/internal/domain"
)

// PriceProvider obtiene la serie de cierres diarios de un símbolo.
type PriceProvider interface {
	// FetchPrices devuelve como mucho los últimos `days` cierres, del más antiguo al más reciente.
	// Devuelve domain.ErrEmptySeries si la fuente no tiene datos para el símbolo.
	FetchPrices(ctx context.Context, symbol string, days int) (domain.PriceSeries, error)
}
