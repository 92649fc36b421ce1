package storage

// sqlite.go: historial de comparaciones.
//
//   - `runs`: una fila por comparación con el resumen (mejor estrategia, rentables).
//   - `results`: una fila por estrategia del ranking; la curva de equity va como JSON.
//   - `failures`: estrategias que abortaron su run.
//   - `trades`: el historial de operaciones de cada estrategia.

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/stratbench/internal/domain"
	"github.com/alejandrodnm/stratbench/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id              TEXT PRIMARY KEY,
    symbol          TEXT    NOT NULL,
    days            INTEGER NOT NULL,
    initial_capital REAL    NOT NULL,
    source          TEXT    NOT NULL DEFAULT '',
    from_label      TEXT    NOT NULL DEFAULT '',
    to_label        TEXT    NOT NULL DEFAULT '',
    created_at      TEXT    NOT NULL,
    strategies      INTEGER NOT NULL DEFAULT 0,
    profitable      INTEGER NOT NULL DEFAULT 0,
    best_strategy   TEXT    NOT NULL DEFAULT '',
    best_return     REAL    NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS results (
    run_id           TEXT    NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    rank             INTEGER NOT NULL,
    strategy_name    TEXT    NOT NULL,
    description      TEXT    NOT NULL DEFAULT '',
    initial_capital  REAL    NOT NULL,
    final_value      REAL    NOT NULL,
    return_pct       REAL    NOT NULL,
    total_trades     INTEGER NOT NULL,
    max_drawdown     REAL    NOT NULL,
    sharpe_ratio     REAL    NOT NULL,
    win_rate         REAL    NOT NULL,
    portfolio_values TEXT    NOT NULL DEFAULT '[]',
    PRIMARY KEY (run_id, rank)
);

CREATE TABLE IF NOT EXISTS failures (
    run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    strategy_name TEXT NOT NULL,
    error         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
    run_id          TEXT    NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    rank            INTEGER NOT NULL,
    seq             INTEGER NOT NULL,
    date            TEXT    NOT NULL,
    day_index       INTEGER NOT NULL,
    signal          TEXT    NOT NULL,
    price           REAL    NOT NULL,
    shares_before   REAL    NOT NULL,
    shares_after    REAL    NOT NULL,
    capital_before  REAL    NOT NULL,
    capital_after   REAL    NOT NULL,
    portfolio_value REAL    NOT NULL,
    PRIMARY KEY (run_id, rank, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_symbol  ON runs(symbol);
`

const defaultListLimit = 20

// ErrRunNotFound se devuelve cuando no existe un run con el ID pedido.
var ErrRunNotFound = errors.New("run not found")

var _ ports.ResultStorage = (*SQLiteStorage)(nil)

// SQLiteStorage implementa ports.ResultStorage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// SaveComparison persiste el run completo en una sola transacción.
func (s *SQLiteStorage) SaveComparison(ctx context.Context, meta domain.RunMeta, cmp domain.Comparison) error {
	if meta.ID == "" {
		return fmt.Errorf("storage.SaveComparison: empty run id")
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveComparison: begin tx: %w", err)
	}
	defer tx.Rollback()

	var bestName string
	var bestReturn float64
	if best, ok := cmp.Best(); ok {
		bestName, bestReturn = best.StrategyName, best.ReturnPercentage
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, symbol, days, initial_capital, source, from_label, to_label,
		                  created_at, strategies, profitable, best_strategy, best_return)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Symbol, meta.Days, meta.InitialCapital, meta.Source, cmp.From, cmp.To,
		formatTime(meta.CreatedAt), len(cmp.Results), cmp.ProfitableCount(), bestName, bestReturn,
	); err != nil {
		return fmt.Errorf("storage.SaveComparison: insert run: %w", err)
	}

	for _, r := range cmp.Results {
		if err := insertResult(ctx, tx, meta.ID, r); err != nil {
			return fmt.Errorf("storage.SaveComparison: %s: %w", r.StrategyName, err)
		}
	}

	for _, f := range cmp.Failures {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO failures (run_id, strategy_name, error) VALUES (?, ?, ?)`,
			meta.ID, f.StrategyName, f.Message,
		); err != nil {
			return fmt.Errorf("storage.SaveComparison: insert failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveComparison: commit: %w", err)
	}
	return nil
}

func insertResult(ctx context.Context, tx *sql.Tx, runID string, r domain.RankedResult) error {
	curve, err := json.Marshal(r.PortfolioValues)
	if err != nil {
		return fmt.Errorf("marshal portfolio values: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO results (run_id, rank, strategy_name, description, initial_capital,
		                     final_value, return_pct, total_trades, max_drawdown,
		                     sharpe_ratio, win_rate, portfolio_values)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, r.Rank, r.StrategyName, r.Description, r.InitialCapital,
		r.FinalValue, r.ReturnPercentage, r.TotalTrades, r.MaxDrawdown,
		r.SharpeRatio, r.WinRate, string(curve),
	); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	if len(r.TradeHistory) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades (run_id, rank, seq, date, day_index, signal, price,
		                    shares_before, shares_after, capital_before, capital_after,
		                    portfolio_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare trades: %w", err)
	}
	defer stmt.Close()

	for i, t := range r.TradeHistory {
		if _, err := stmt.ExecContext(ctx,
			runID, r.Rank, i, t.Date, t.DayIndex, t.Signal.String(), t.Price,
			t.SharesBefore, t.SharesAfter, t.CapitalBefore, t.CapitalAfter,
			t.PortfolioValue,
		); err != nil {
			return fmt.Errorf("insert trade %d: %w", i, err)
		}
	}
	return nil
}

// GetRun reconstruye la comparación guardada con el ID dado.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (domain.RunMeta, domain.Comparison, error) {
	var meta domain.RunMeta
	var created, from, to string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, symbol, days, initial_capital, source, from_label, to_label, created_at
		FROM runs WHERE id = ?`, id,
	).Scan(&meta.ID, &meta.Symbol, &meta.Days, &meta.InitialCapital, &meta.Source, &from, &to, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RunMeta{}, domain.Comparison{}, fmt.Errorf("storage.GetRun: %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return domain.RunMeta{}, domain.Comparison{}, fmt.Errorf("storage.GetRun: query run: %w", err)
	}
	if meta.CreatedAt, err = parseTime(created); err != nil {
		return domain.RunMeta{}, domain.Comparison{}, fmt.Errorf("storage.GetRun: %s: %w", id, err)
	}

	cmp := domain.Comparison{Symbol: meta.Symbol, Days: meta.Days, From: from, To: to, RunAt: meta.CreatedAt}

	if cmp.Results, err = s.loadResults(ctx, id); err != nil {
		return domain.RunMeta{}, domain.Comparison{}, fmt.Errorf("storage.GetRun: %w", err)
	}
	if cmp.Failures, err = s.loadFailures(ctx, id); err != nil {
		return domain.RunMeta{}, domain.Comparison{}, fmt.Errorf("storage.GetRun: %w", err)
	}
	return meta, cmp, nil
}

func (s *SQLiteStorage) loadResults(ctx context.Context, runID string) ([]domain.RankedResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rank, strategy_name, description, initial_capital, final_value, return_pct,
		       total_trades, max_drawdown, sharpe_ratio, win_rate, portfolio_values
		FROM results WHERE run_id = ? ORDER BY rank`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []domain.RankedResult
	for rows.Next() {
		var r domain.RankedResult
		var curve string
		if err := rows.Scan(
			&r.Rank, &r.StrategyName, &r.Description, &r.InitialCapital, &r.FinalValue,
			&r.ReturnPercentage, &r.TotalTrades, &r.MaxDrawdown, &r.SharpeRatio,
			&r.WinRate, &curve,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if err := json.Unmarshal([]byte(curve), &r.PortfolioValues); err != nil {
			return nil, fmt.Errorf("decode portfolio values of %s: %w", r.StrategyName, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].TradeHistory, err = s.loadTrades(ctx, runID, out[i].Rank); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLiteStorage) loadTrades(ctx context.Context, runID string, rank int) ([]domain.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, day_index, signal, price, shares_before, shares_after,
		       capital_before, capital_after, portfolio_value
		FROM trades WHERE run_id = ? AND rank = ? ORDER BY seq`, runID, rank)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []domain.TradeRecord
	for rows.Next() {
		var t domain.TradeRecord
		var sig string
		if err := rows.Scan(
			&t.Date, &t.DayIndex, &sig, &t.Price, &t.SharesBefore, &t.SharesAfter,
			&t.CapitalBefore, &t.CapitalAfter, &t.PortfolioValue,
		); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		if t.Signal, err = domain.ParseSignal(sig); err != nil {
			return nil, fmt.Errorf("trade signal: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) loadFailures(ctx context.Context, runID string) ([]domain.StrategyFailure, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT strategy_name, error FROM failures WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var out []domain.StrategyFailure
	for rows.Next() {
		var f domain.StrategyFailure
		if err := rows.Scan(&f.StrategyName, &f.Message); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListRuns devuelve los runs más recientes primero. limit <= 0 usa 20.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, days, initial_capital, source, created_at,
		       strategies, profitable, best_strategy, best_return
		FROM runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.ListRuns: query: %w", err)
	}
	defer rows.Close()

	var out []domain.RunSummary
	for rows.Next() {
		var r domain.RunSummary
		var created string
		if err := rows.Scan(
			&r.ID, &r.Symbol, &r.Days, &r.InitialCapital, &r.Source, &created,
			&r.Strategies, &r.Profitable, &r.BestStrategy, &r.BestReturn,
		); err != nil {
			return nil, fmt.Errorf("storage.ListRuns: scan row: %w", err)
		}
		if r.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("storage.ListRuns: %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// timeLayout tiene ancho fijo: en UTC el orden lexicográfico es el cronológico.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse created_at %q: %w", s, err)
	}
	return t, nil
}
