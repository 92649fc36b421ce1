package ports

import (
	"context"

	"github.com/alejandrodnm/stratbench/internal/domain"
)

// ResultStorage persiste las comparaciones ejecutadas.
type ResultStorage interface {
	// SaveComparison persiste la comparación completa (resultados, fallos y trades) bajo meta.ID.
	SaveComparison(ctx context.Context, meta domain.RunMeta, cmp domain.Comparison) error

	// GetRun reconstruye una comparación guardada.
	GetRun(ctx context.Context, id string) (domain.RunMeta, domain.Comparison, error)

	// ListRuns devuelve los últimos `limit` runs, del más reciente al más antiguo.
	ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
