package engine

// compare.go: corre varias estrategias sobre la misma serie y las ordena por rendimiento.
//
// Con workers > 1 usa un worker pool al estilo del análisis concurrente del scanner:
// cada job es UNA instancia de estrategia, así que el estado de corrida
// (p. ej. BuyAndHold.hasBought) nunca se comparte entre goroutines.

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/alejandrodnm/stratbench/internal/domain"
	"github.com/alejandrodnm/stratbench/internal/domain/strategy"
)

// outcome es el resultado de una corrida indexado por su posición de entrada.
type outcome struct {
	result domain.BacktestResult
	err    error
}

// Compare ejecuta cada estrategia sobre series y devuelve los resultados
// ordenados por ReturnPercentage descendente (empates: orden de entrada).
// Una estrategia que falla se reporta en Failures y no aborta a las demás.
// Solo devuelve error si el contexto se cancela o hay instancias duplicadas
// en modo paralelo.
func (e *Engine) Compare(
	ctx context.Context,
	strategies []strategy.Strategy,
	series domain.PriceSeries,
	workers int,
) (domain.Comparison, error) {
	start := time.Now()

	var outcomes []outcome
	var err error
	if workers <= 1 || len(strategies) <= 1 {
		outcomes, err = e.runSequential(ctx, strategies, series)
	} else {
		outcomes, err = e.runConcurrent(ctx, strategies, series, workers)
	}
	if err != nil {
		return domain.Comparison{}, err
	}

	cmp := domain.Comparison{
		Symbol: series.Symbol,
		Days:   series.Len(),
		RunAt:  start.UTC(),
	}
	if n := series.Len(); n > 0 {
		cmp.From, cmp.To = series.Label(0), series.Label(n-1)
	}

	var ok []domain.BacktestResult
	for i, o := range outcomes {
		if o.err != nil {
			slog.Warn("strategy failed",
				"strategy", strategies[i].Name(),
				"err", o.err,
			)
			cmp.Failures = append(cmp.Failures, domain.StrategyFailure{
				StrategyName: strategies[i].Name(),
				Err:          o.err,
				Message:      o.err.Error(),
			})
			continue
		}
		ok = append(ok, o.result)
	}
	cmp.Results = Rank(ok)

	slog.Info("comparison complete",
		"symbol", series.Symbol,
		"days", series.Len(),
		"strategies", len(strategies),
		"failed", len(cmp.Failures),
		"workers", max(workers, 1),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return cmp, nil
}

// Rank ordena por ReturnPercentage descendente con sort estable (los empates
// conservan el orden de entrada) y asigna Rank 1..n.
func Rank(results []domain.BacktestResult) []domain.RankedResult {
	sorted := make([]domain.BacktestResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ReturnPercentage > sorted[j].ReturnPercentage
	})

	ranked := make([]domain.RankedResult, len(sorted))
	for i, r := range sorted {
		ranked[i] = domain.RankedResult{Rank: i + 1, BacktestResult: r}
	}
	return ranked
}

func (e *Engine) runSequential(ctx context.Context, strategies []strategy.Strategy, series domain.PriceSeries) ([]outcome, error) {
	outcomes := make([]outcome, len(strategies))
	for i, s := range strategies {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("engine.Compare: %w", err)
		}
		res, err := e.RunSeries(s, series)
		outcomes[i] = outcome{result: res, err: err}
	}
	return outcomes, nil
}

func (e *Engine) runConcurrent(ctx context.Context, strategies []strategy.Strategy, series domain.PriceSeries, workers int) ([]outcome, error) {
	// Solo los punteros comparten estado entre jobs; un valor puede no ser
	// hasheable (structs con slices o maps) y se copia en cada llamada.
	seen := make(map[strategy.Strategy]int, len(strategies))
	for i, s := range strategies {
		if reflect.ValueOf(s).Kind() != reflect.Pointer {
			continue
		}
		if j, dup := seen[s]; dup {
			return nil, fmt.Errorf("engine.Compare: %s at positions %d and %d: %w", s.Name(), j, i, domain.ErrDuplicateStrategy)
		}
		seen[s] = i
	}

	if workers > len(strategies) {
		workers = len(strategies)
	}

	outcomes := make([]outcome, len(strategies))
	workCh := make(chan int, len(strategies))

	// Cada índice lo escribe un único worker; se lee después de wg.Wait.
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workCh {
				if err := ctx.Err(); err != nil {
					outcomes[i] = outcome{err: err}
					continue
				}
				res, err := e.RunSeries(strategies[i], series)
				outcomes[i] = outcome{result: res, err: err}
			}
		}()
	}

	for i := range strategies {
		workCh <- i
	}
	close(workCh)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("engine.Compare: %w", err)
	}
	return outcomes, nil
}
