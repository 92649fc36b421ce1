package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/stratbench/internal/application/engine"
	"github.com/alejandrodnm/stratbench/internal/domain"
	"github.com/alejandrodnm/stratbench/internal/domain/strategy"
	"github.com/alejandrodnm/stratbench/internal/ports"
)

// Config contiene la configuración de una comparación.
type Config struct {
	Symbol         string
	Days           int
	InitialCapital float64
	Workers        int      // 0/1 = secuencial
	Strategies     []string // vacío = todas
	Params         strategy.Params
	Source         string // etiqueta de la fuente de precios, solo informativa
}

// Runner orquesta una comparación: precios → estrategias → engine → notificar → persistir.
type Runner struct {
	cfg       Config
	engine    *engine.Engine
	prices    ports.PriceProvider
	storage   ports.ResultStorage // opcional
	notifiers []ports.Notifier
	newID     func() string
}

// New crea un Runner con todas las dependencias inyectadas.
// storage puede ser nil para no persistir.
func New(
	cfg Config,
	prices ports.PriceProvider,
	storage ports.ResultStorage,
	notifiers ...ports.Notifier,
) (*Runner, error) {
	if cfg.InitialCapital == 0 {
		cfg.InitialCapital = engine.DefaultInitialCapital
	}
	eng, err := engine.New(cfg.InitialCapital)
	if err != nil {
		return nil, fmt.Errorf("runner.New: %w", err)
	}
	if cfg.Days <= 0 {
		return nil, fmt.Errorf("runner.New: days must be > 0, got %d", cfg.Days)
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("runner.New: %w", err)
	}

	return &Runner{
		cfg:       cfg,
		engine:    eng,
		prices:    prices,
		storage:   storage,
		notifiers: notifiers,
		newID:     uuid.NewString,
	}, nil
}

// Run ejecuta una comparación completa y devuelve su metadata y resultado.
func (r *Runner) Run(ctx context.Context) (domain.RunMeta, domain.Comparison, error) {
	start := time.Now()

	series, err := r.prices.FetchPrices(ctx, r.cfg.Symbol, r.cfg.Days)
	if err != nil {
		return domain.RunMeta{}, domain.Comparison{}, fmt.Errorf("runner.Run: fetch prices: %w", err)
	}
	if series.Len() == 0 {
		return domain.RunMeta{}, domain.Comparison{}, fmt.Errorf("runner.Run: %s: %w", r.cfg.Symbol, domain.ErrEmptySeries)
	}
	if series.Symbol == "" {
		series.Symbol = r.cfg.Symbol
	}

	strategies, err := r.strategies()
	if err != nil {
		return domain.RunMeta{}, domain.Comparison{}, fmt.Errorf("runner.Run: %w", err)
	}

	slog.Info("running comparison",
		"symbol", series.Symbol,
		"days", series.Len(),
		"strategies", len(strategies),
		"capital", r.engine.InitialCapital(),
	)

	cmp, err := r.engine.Compare(ctx, strategies, series, r.cfg.Workers)
	if err != nil {
		return domain.RunMeta{}, domain.Comparison{}, fmt.Errorf("runner.Run: %w", err)
	}

	meta := domain.RunMeta{
		ID:             r.newID(),
		Symbol:         series.Symbol,
		Days:           series.Len(),
		InitialCapital: r.engine.InitialCapital(),
		Source:         r.cfg.Source,
		CreatedAt:      cmp.RunAt,
	}

	for _, n := range r.notifiers {
		if err := n.NotifyComparison(ctx, meta, cmp); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	if r.storage != nil {
		if err := r.storage.SaveComparison(ctx, meta, cmp); err != nil {
			slog.Warn("storage error", "run_id", meta.ID, "err", err)
		}
	}

	slog.Info("run complete",
		"run_id", meta.ID,
		"results", len(cmp.Results),
		"failed", len(cmp.Failures),
		"profitable", cmp.ProfitableCount(),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return meta, cmp, nil
}

// strategies construye instancias nuevas para esta corrida.
// Los nombres repetidos se ignoran: la misma instancia no puede correr dos veces en paralelo.
func (r *Runner) strategies() ([]strategy.Strategy, error) {
	reg, err := strategy.NewSet(r.cfg.Params)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(r.cfg.Strategies))
	var names []string
	for _, n := range r.cfg.Strategies {
		k := strategy.Key(n)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		names = append(names, n)
	}
	return reg.Select(names)
}

// History devuelve los últimos runs guardados.
func (r *Runner) History(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if r.storage == nil {
		return nil, fmt.Errorf("runner.History: storage disabled")
	}
	return r.storage.ListRuns(ctx, limit)
}

// Replay vuelve a notificar un run guardado sin recalcularlo.
func (r *Runner) Replay(ctx context.Context, id string) error {
	if r.storage == nil {
		return fmt.Errorf("runner.Replay: storage disabled")
	}
	meta, cmp, err := r.storage.GetRun(ctx, id)
	if err != nil {
		return fmt.Errorf("runner.Replay: %w", err)
	}
	for _, n := range r.notifiers {
		if err := n.NotifyComparison(ctx, meta, cmp); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}
	return nil
}
