package output

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/rpmc/internal/domain"
	"github.com/rgehrsitz/rpmc/internal/optimizer"
)

// Report is everything a command renders: the run envelope, the Monte Carlo
// aggregate and, for optimisation runs, the search result
type Report struct {
	RunID          string                  `json:"run_id,omitempty"`
	Name           string                  `json:"name,omitempty"`
	Strategy       domain.ClaimingStrategy `json:"strategy"`
	AnnualSpending float64                 `json:"annual_spending"`
	Aggregate      *domain.AggregateResult `json:"aggregate,omitempty"`
	Optimization   *optimizer.Result       `json:"optimization,omitempty"`
}

// Formatter renders a report in one output format
type Formatter interface {
	Name() string
	Format(r *Report) ([]byte, error)
}

// FormatterFunc adapts a function to the Formatter interface
type FormatterFunc struct {
	ID string
	F  func(r *Report) ([]byte, error)
}

func (f FormatterFunc) Name() string { return f.ID }

func (f FormatterFunc) Format(r *Report) ([]byte, error) { return f.F(r) }

var formatters = map[string]Formatter{
	"console":  ConsoleFormatter{},
	"verbose":  ConsoleFormatter{Verbose: true},
	"json":     JSONFormatter{Pretty: true},
	"json-raw": JSONFormatter{},
	"csv":      CSVFormatter{},
}

// AvailableFormatterNames returns the registered format names, sorted
func AvailableFormatterNames() []string {
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetFormatterByName returns the formatter registered under name, or nil
func GetFormatterByName(name string) Formatter {
	return formatters[strings.ToLower(name)]
}

// WriteFile renders the report and writes it to path
func WriteFile(f Formatter, r *Report, path string) error {
	data, err := f.Format(r)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// FormatCurrency formats a dollar amount rounded to whole dollars with thousands separators
func FormatCurrency(amount float64) string {
	s := decimal.NewFromFloat(amount).Round(0).StringFixed(0)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

// FormatPercentage formats a probability in [0,1] as a percentage
func FormatPercentage(p float64) string {
	return decimal.NewFromFloat(p*100).StringFixed(1) + "%"
}
