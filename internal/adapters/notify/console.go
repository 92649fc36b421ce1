package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/stratbench/internal/domain"
	"github.com/alejandrodnm/stratbench/internal/ports"
)

const ruleWidth = 80

var _ ports.Notifier = (*Console)(nil)

// Console implementa ports.Notifier imprimiendo tablas en la terminal.
type Console struct {
	out        io.Writer
	showTrades bool
}

// NewConsole crea un notificador que escribe a stdout.
// Con showTrades imprime además el historial de trades de la mejor estrategia.
func NewConsole(showTrades bool) *Console {
	return &Console{out: os.Stdout, showTrades: showTrades}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, showTrades bool) *Console {
	return &Console{out: w, showTrades: showTrades}
}

// NotifyComparison imprime el ranking, la mejor estrategia y cuántas fueron rentables.
func (c *Console) NotifyComparison(_ context.Context, meta domain.RunMeta, cmp domain.Comparison) error {
	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintf(c.out, "\n%s\nBACKTEST RESULTS | ALL STRATEGIES\n%s\n", rule, rule)

	fmt.Fprintf(c.out, "\nSymbol:          %s\n", cmp.Symbol)
	if cmp.From != "" {
		fmt.Fprintf(c.out, "Period:          %s to %s (%d days)\n", cmp.From, cmp.To, cmp.Days)
	} else {
		fmt.Fprintf(c.out, "Period:          %d days\n", cmp.Days)
	}
	fmt.Fprintf(c.out, "Initial capital: %s\n", money(meta.InitialCapital))
	if meta.ID != "" {
		fmt.Fprintf(c.out, "Run:             %s\n", meta.ID)
	}
	fmt.Fprintln(c.out)

	if len(cmp.Results) == 0 {
		fmt.Fprintln(c.out, "No strategy produced a result")
		c.printFailures(cmp.Failures)
		return nil
	}

	c.printRanking(cmp.Results)

	best, _ := cmp.Best()
	fmt.Fprintf(c.out, "\n🏆 Best strategy: %s with %s return\n", best.StrategyName, pct(best.ReturnPercentage))
	fmt.Fprintf(c.out, "📊 %d/%d strategies were profitable\n", cmp.ProfitableCount(), len(cmp.Results))
	c.printFailures(cmp.Failures)
	fmt.Fprintln(c.out, rule)

	if c.showTrades {
		c.PrintTrades(best)
	}
	return nil
}

// printRanking imprime una fila por estrategia, en el orden del ranking.
func (c *Console) printRanking(results []domain.RankedResult) {
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "", "Strategy", "Final value", "Return", "P&L", "Trades", "Max DD", "Sharpe", "Win rate")

	for _, r := range results {
		table.Append(
			fmt.Sprintf("%d", r.Rank),
			rankIcon(r),
			r.StrategyName,
			money(r.FinalValue),
			pct(r.ReturnPercentage),
			signedMoney(r.ProfitLoss()),
			fmt.Sprintf("%d", r.TotalTrades),
			fmt.Sprintf("%.2f%%", r.MaxDrawdown),
			fmt.Sprintf("%.2f", r.SharpeRatio),
			fmt.Sprintf("%.1f%%", r.WinRate),
		)
	}
	table.Render()
}

func (c *Console) printFailures(failures []domain.StrategyFailure) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(c.out, "⚠️  %d strategies failed:\n", len(failures))
	for _, f := range failures {
		fmt.Fprintf(c.out, "   - %s: %s\n", f.StrategyName, f.Message)
	}
}

// PrintTrades imprime el historial de trades de un resultado.
func (c *Console) PrintTrades(r domain.RankedResult) {
	fmt.Fprintf(c.out, "\nTrades: %s (%d)\n", r.StrategyName, len(r.TradeHistory))
	if len(r.TradeHistory) == 0 {
		fmt.Fprintln(c.out, "  no trades executed")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Date", "Signal", "Price", "Shares", "Cash", "Value")
	for _, t := range r.TradeHistory {
		table.Append(
			t.Date,
			t.Signal.Icon()+" "+strings.ToUpper(t.Signal.String()),
			money(t.Price),
			fmt.Sprintf("%.6f → %.6f", t.SharesBefore, t.SharesAfter),
			fmt.Sprintf("%s → %s", money(t.CapitalBefore), money(t.CapitalAfter)),
			money(t.PortfolioValue),
		)
	}
	table.Render()
}

// PrintHistory imprime los runs guardados, el más reciente primero.
func (c *Console) PrintHistory(runs []domain.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "No saved runs")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Run", "When", "Symbol", "Days", "Capital", "Best", "Return", "Profitable")
	for _, r := range runs {
		table.Append(
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Symbol,
			fmt.Sprintf("%d", r.Days),
			money(r.InitialCapital),
			r.BestStrategy,
			pct(r.BestReturn),
			fmt.Sprintf("%d/%d", r.Profitable, r.Strategies),
		)
	}
	table.Render()
}

func rankIcon(r domain.RankedResult) string {
	switch {
	case r.Rank == 1:
		return "🏆"
	case r.Profitable():
		return "📈"
	default:
		return "📉"
	}
}

func money(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}

func signedMoney(v float64) string {
	if v >= 0 {
		return "+" + money(v)
	}
	return "-" + money(-v)
}

func pct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}
