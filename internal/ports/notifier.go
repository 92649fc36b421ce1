package ports

import (
	"context"

	"github.com/alejandrodnm/stratbench/internal/domain"
)

// Notifier presenta el resultado de una comparación al usuario.
type Notifier interface {
	// NotifyComparison muestra el ranking de estrategias.
	// En la implementación de consola, imprime una tabla formateada.
	NotifyComparison(ctx context.Context, meta domain.RunMeta, cmp domain.Comparison) error
}
