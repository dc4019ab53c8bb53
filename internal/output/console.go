package output

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/rgehrsitz/rpmc/internal/domain"
	"github.com/rgehrsitz/rpmc/internal/optimizer"
)

var (
	colorPrimary = lipgloss.Color("#7D56F4")
	colorSuccess = lipgloss.Color("#04B575")
	colorDanger  = lipgloss.Color("#FF5F87")
	colorMuted   = lipgloss.Color("#6C6C6C")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	labelStyle   = lipgloss.NewStyle().Foreground(colorMuted).Width(24)
	goodStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
	badStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorDanger)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
)

// ConsoleFormatter renders a styled terminal summary. Verbose adds every
// projection year and the modeling assumptions.
type ConsoleFormatter struct {
	Verbose bool
}

func (c ConsoleFormatter) Name() string {
	if c.Verbose {
		return "verbose"
	}
	return "console"
}

func (c ConsoleFormatter) Format(r *Report) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, titleStyle.Render("RETIREMENT MONTE CARLO ANALYSIS"))
	fmt.Fprintln(&buf, strings.Repeat("=", 60))
	if r.Name != "" {
		line(&buf, "Scenario", r.Name)
	}
	if r.RunID != "" {
		line(&buf, "Run ID", r.RunID)
	}
	line(&buf, "Claiming strategy", r.Strategy.String())
	line(&buf, "Annual spending", FormatCurrency(r.AnnualSpending)+" (today's dollars)")
	fmt.Fprintln(&buf)

	if r.Aggregate != nil {
		c.writeAggregate(&buf, r.Aggregate)
	}
	if r.Optimization != nil {
		writeOptimization(&buf, r.Optimization)
	}

	if c.Verbose {
		fmt.Fprintln(&buf, sectionStyle.Render("ASSUMPTIONS"))
		for _, a := range DefaultAssumptions {
			fmt.Fprintf(&buf, "  - %s\n", a)
		}
		fmt.Fprintln(&buf)
	}
	return buf.Bytes(), nil
}

func (c ConsoleFormatter) writeAggregate(buf *bytes.Buffer, agg *domain.AggregateResult) {
	fmt.Fprintln(buf, sectionStyle.Render("MONTE CARLO RESULTS"))
	line(buf, "Simulations", fmt.Sprintf("%d completed of %d (%d failed)", agg.Completed, agg.Requested, agg.Failed))
	seed := strconv.FormatInt(agg.BaseSeed, 10)
	if agg.Antithetic {
		seed += " (antithetic)"
	}
	line(buf, "Base seed", seed)

	style := goodStyle
	if agg.SuccessProbability < 0.8 {
		style = badStyle
	}
	line(buf, "Success probability", style.Render(FormatPercentage(agg.SuccessProbability)))
	line(buf, "Legacy goal met", FormatPercentage(agg.LegacyProbability))
	line(buf, "LTC event rate", FormatPercentage(agg.LTCEventRate))
	fmt.Fprintln(buf)

	fmt.Fprintln(buf, sectionStyle.Render("ENDING BALANCE"))
	t := newTable("", "P10", "P25", "P50", "P75", "P90")
	t.Row(ladderRow("Nominal", agg.EndingBalance)...)
	t.Row(ladderRow("Real", agg.EndingBalanceReal)...)
	fmt.Fprintln(buf, t.Render())
	fmt.Fprintln(buf)

	if len(agg.Yearly) == 0 {
		return
	}
	fmt.Fprintln(buf, sectionStyle.Render("BALANCE BY YEAR"))
	yt := newTable("Year", "P10", "P50", "P90", "Depleted")
	for i, y := range agg.Yearly {
		if !c.Verbose && i%5 != 0 && i != len(agg.Yearly)-1 {
			continue
		}
		yt.Row(
			strconv.Itoa(y.Year),
			FormatCurrency(y.Balance.P10),
			FormatCurrency(y.Balance.P50),
			FormatCurrency(y.Balance.P90),
			FormatPercentage(y.DepletedShare),
		)
	}
	fmt.Fprintln(buf, yt.Render())
	fmt.Fprintln(buf)
}

func writeOptimization(buf *bytes.Buffer, res *optimizer.Result) {
	fmt.Fprintln(buf, sectionStyle.Render("CLAIM-AGE OPTIMIZATION"))
	line(buf, "Target confidence", FormatPercentage(res.Target))
	line(buf, "Trials", strconv.Itoa(res.Trials))
	switch {
	case res.Cancelled:
		line(buf, "Status", badStyle.Render("cancelled, best result so far"))
	case !res.Converged:
		line(buf, "Status", badStyle.Render("not converged"))
	default:
		line(buf, "Status", goodStyle.Render("converged"))
	}

	if res.Best == nil {
		line(buf, "Best strategy", badStyle.Render("none reaches the target"))
		fmt.Fprintln(buf)
		return
	}
	line(buf, "Best strategy", goodStyle.Render(res.Best.Strategy.String()))
	line(buf, "Sustainable spend", goodStyle.Render(FormatCurrency(res.Best.SustainableSpend)))
	line(buf, "Success at that spend", FormatPercentage(res.Best.SuccessProbability))
	fmt.Fprintln(buf)

	if len(res.RunnersUp) == 0 {
		return
	}
	fmt.Fprintln(buf, sectionStyle.Render("RUNNERS-UP"))
	t := newTable("Strategy", "Sustainable spend", "Success", "Converged")
	for i, c := range res.RunnersUp {
		if i == 10 {
			break
		}
		spend := FormatCurrency(c.SustainableSpend)
		if !c.Feasible {
			spend = "infeasible"
		}
		t.Row(c.Strategy.String(), spend, FormatPercentage(c.SuccessProbability), strconv.FormatBool(c.Converged))
	}
	fmt.Fprintln(buf, t.Render())
	fmt.Fprintln(buf)
}

func line(buf *bytes.Buffer, label, value string) {
	fmt.Fprintf(buf, "%s %s\n", labelStyle.Render(label+":"), value)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func ladderRow(label string, l domain.PercentileLadder) []string {
	return []string{
		label,
		FormatCurrency(l.P10),
		FormatCurrency(l.P25),
		FormatCurrency(l.P50),
		FormatCurrency(l.P75),
		FormatCurrency(l.P90),
	}
}
