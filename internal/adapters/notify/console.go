package notify

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/climabot/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier escribiendo en un writer.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout. Con table=false
// imprime el resumen compacto de una línea por ciclo.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime las oportunidades y planes del ciclo.
func (c *Console) Notify(_ context.Context, opportunities []domain.Opportunity, plans []domain.HedgePlan) error {
	if len(opportunities) == 0 {
		fmt.Fprintf(c.out, "[%s] no mispriced markets found\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printFull(opportunities, plans)
	} else {
		c.printCompact(opportunities, plans)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(opps []domain.Opportunity, plans []domain.HedgePlan) {
	now := time.Now().Format("15:04:05")
	zone := countInZone(opps)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d mispriced — zone:%d plans:%d", now, len(opps), zone, len(plans))

	shown := 0
	for _, opp := range opps {
		if shown >= 4 {
			break
		}
		name := compactName(opp.Market.Title, 28)
		fmt.Fprintf(&sb, " | %s %s e%.2f p%.2f $%.0f",
			opp.Side, name, opp.Edge, opp.ModelProbability(), opp.Stake)
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla de oportunidades y, si hay, la de planes.
func (c *Console) printFull(opps []domain.Opportunity, plans []domain.HedgePlan) {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] %d mispriced markets — %d in uncertainty zone, %d hedge plans\n",
		now, len(opps), countInZone(opps), len(plans))

	c.printOpportunities(opps)
	if len(plans) > 0 {
		c.printPlans(plans)
	}
}

// printOpportunities imprime la tabla de edges detectados.
func (c *Console) printOpportunities(opps []domain.Opportunity) {
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Market", "Side", "P(model)", "Conf", "Price", "Edge", "Stake", "Rationale")

	for i, opp := range opps {
		conf := fmt.Sprintf("%.2f", opp.Estimate.Confidence)
		if opp.Estimate.InUncertaintyZone {
			conf += "~"
		}

		table.Append(
			fmt.Sprintf("%d", i+1),
			truncate(opp.Market.Title, 38),
			opp.Side.String(),
			fmt.Sprintf("%.3f", opp.ModelProbability()),
			conf,
			fmt.Sprintf("%.2f", opp.EntryPrice()),
			fmt.Sprintf("%+.3f", opp.Edge),
			fmt.Sprintf("$%.2f", opp.Stake),
			truncate(opp.Estimate.Rationale, 42),
		)
	}

	table.Render()
	fmt.Fprintln(c.out, "  P(model) = probabilidad del lado elegido | Conf~ = dentro de la uncertainty zone")
	fmt.Fprintln(c.out, "  Edge = P(model) - precio de entrada | Stake = fractional Kelly sobre el bankroll")
}

// printPlans imprime la tabla de planes de cobertura con sus patas.
func (c *Console) printPlans(plans []domain.HedgePlan) {
	fmt.Fprintf(c.out, "\n=== HEDGE PLANS (%d) ===\n", len(plans))

	table := tablewriter.NewWriter(c.out)
	table.Header("Group", "Primary", "Legs", "Total$", "EV", "Range", "Sharpe", "MaxDD")

	for _, plan := range plans {
		table.Append(
			plan.Key.String(),
			fmt.Sprintf("%s %s $%.0f", plan.Primary.Side, plan.Primary.Market.Ticker, plan.PrimaryStake),
			legsLabel(plan.Legs),
			fmt.Sprintf("$%.2f", plan.TotalStake()),
			fmt.Sprintf("$%+.2f", plan.ExpectedValue),
			fmt.Sprintf("%+.0f…%+.0f", plan.WorstReturn, plan.BestReturn),
			sharpeLabel(plan.SharpeRatio),
			fmt.Sprintf("$%.2f", plan.MaxDrawdown),
		)
	}

	table.Render()
	fmt.Fprintln(c.out)
}

// --- helpers ---

func countInZone(opps []domain.Opportunity) int {
	n := 0
	for _, o := range opps {
		if o.Estimate.InUncertaintyZone {
			n++
		}
	}
	return n
}

// legsLabel resume las patas como "2 (1 hedge)".
func legsLabel(legs []domain.HedgeLeg) string {
	if len(legs) == 0 {
		return "-"
	}
	hedges := 0
	for _, leg := range legs {
		if leg.Kind == domain.HedgeTrue {
			hedges++
		}
	}
	return fmt.Sprintf("%d (%d hedge)", len(legs), hedges)
}

func sharpeLabel(v float64) string {
	if math.IsInf(v, 1) {
		return "INF"
	}
	return fmt.Sprintf("%.2f", v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func compactName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > maxLen/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
