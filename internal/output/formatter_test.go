package output

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgehrsitz/rpmc/internal/domain"
	"github.com/rgehrsitz/rpmc/internal/optimizer"
)

func buildTestReport() *Report {
	spouse := 70
	return &Report{
		RunID:          "run-123",
		Name:           "test household",
		Strategy:       domain.ClaimingStrategy{PrimaryClaimAge: 67, SpouseClaimAge: &spouse},
		AnnualSpending: 80000,
		Aggregate: &domain.AggregateResult{
			Requested:          100,
			Completed:          99,
			Failed:             1,
			BaseSeed:           7,
			SuccessProbability: 0.9123,
			LegacyProbability:  0.5,
			EndingBalance:      domain.PercentileLadder{P10: 0, P25: 100000, P50: 450000, P75: 900000, P90: 1500000},
			Yearly: []domain.YearPercentiles{
				{YearIndex: 0, Year: 2025, Balance: domain.PercentileLadder{P10: 900000, P50: 1000000, P90: 1100000}},
				{YearIndex: 1, Year: 2026, Balance: domain.PercentileLadder{P10: 850000, P50: 1020000, P90: 1200000}, DepletedShare: 0.01},
			},
		},
	}
}

func buildOptimization() *optimizer.Result {
	return &optimizer.Result{
		Target:    0.95,
		Trials:    24,
		Converged: true,
		Best: &optimizer.Candidate{
			Strategy:           domain.ClaimingStrategy{PrimaryClaimAge: 70},
			SustainableSpend:   61234.5,
			SuccessProbability: 0.951,
			Low:                61234.5,
			High:               61300,
			Trials:             12,
			Feasible:           true,
			Converged:          true,
		},
		RunnersUp: []optimizer.Candidate{
			{Strategy: domain.ClaimingStrategy{PrimaryClaimAge: 62}, SustainableSpend: 55000, Feasible: true, Converged: true},
			{Strategy: domain.ClaimingStrategy{PrimaryClaimAge: 63}},
		},
	}
}

func TestFormatterFunc(t *testing.T) {
	var received *Report
	f := FormatterFunc{
		ID: "test-formatter",
		F: func(r *Report) ([]byte, error) {
			received = r
			return []byte("test output"), nil
		},
	}
	r := buildTestReport()
	out, err := f.Format(r)
	require.NoError(t, err)
	assert.Same(t, r, received)
	assert.Equal(t, "test output", string(out))
	assert.Equal(t, "test-formatter", f.Name())
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	f := FormatterFunc{ID: "x", F: func(*Report) ([]byte, error) { return []byte("content"), nil }}
	require.NoError(t, WriteFile(f, buildTestReport(), path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	failing := FormatterFunc{ID: "y", F: func(*Report) ([]byte, error) { return nil, errors.New("formatter error") }}
	err = WriteFile(failing, buildTestReport(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "formatter error")
}

func TestFormatterRegistry(t *testing.T) {
	assert.Equal(t, []string{"console", "csv", "json", "json-raw", "verbose"}, AvailableFormatterNames())
	for _, name := range AvailableFormatterNames() {
		f := GetFormatterByName(name)
		require.NotNil(t, f, name)
		assert.Equal(t, name, f.Name())
	}
	assert.Equal(t, "json", GetFormatterByName("JSON").Name())
	assert.Nil(t, GetFormatterByName("html"))
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$0", FormatCurrency(0))
	assert.Equal(t, "$999", FormatCurrency(999.4))
	assert.Equal(t, "$1,000", FormatCurrency(999.5))
	assert.Equal(t, "$1,234,568", FormatCurrency(1234567.89))
	assert.Equal(t, "-$45,000", FormatCurrency(-45000))
	assert.Equal(t, "91.2%", FormatPercentage(0.9123))
}

func TestConsoleFormatter(t *testing.T) {
	r := buildTestReport()
	r.Optimization = buildOptimization()

	out, err := ConsoleFormatter{}.Format(r)
	require.NoError(t, err)
	content := string(out)

	for _, want := range []string{
		"RETIREMENT MONTE CARLO ANALYSIS",
		"run-123",
		"67/70",
		"$80,000",
		"99 completed of 100 (1 failed)",
		"91.2%",
		"$450,000",
		"2026",
		"CLAIM-AGE OPTIMIZATION",
		"$61,235",
		"RUNNERS-UP",
		"infeasible",
	} {
		assert.Contains(t, content, want)
	}
	assert.NotContains(t, content, "ASSUMPTIONS")

	verbose, err := ConsoleFormatter{Verbose: true}.Format(r)
	require.NoError(t, err)
	assert.Contains(t, string(verbose), "ASSUMPTIONS")
	assert.Contains(t, string(verbose), DefaultAssumptions[0])
}

func TestConsoleFormatter_NoFeasibleStrategy(t *testing.T) {
	r := &Report{Optimization: &optimizer.Result{Target: 0.95, Cancelled: true}}
	out, err := ConsoleFormatter{}.Format(r)
	require.NoError(t, err)
	assert.Contains(t, string(out), "none reaches the target")
	assert.Contains(t, string(out), "cancelled")
}

func TestJSONFormatter(t *testing.T) {
	r := buildTestReport()
	out, err := JSONFormatter{Pretty: true}.Format(r)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "{\n  "))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "run-123", decoded["run_id"])
	agg := decoded["aggregate"].(map[string]any)
	assert.Equal(t, 0.9123, agg["success_probability"])
	assert.NotContains(t, decoded, "optimization")

	raw, err := JSONFormatter{}.Format(r)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "\n")
}

func TestCSVFormatter(t *testing.T) {
	out, err := CSVFormatter{}.Format(buildTestReport())
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "DepletedShare", records[0][7])
	assert.Equal(t, []string{"1", "2026", "850000.00", "0.00", "1020000.00", "0.00", "1200000.00", "0.0100"}, records[2])

	opt, err := CSVFormatter{}.Format(&Report{Optimization: buildOptimization()})
	require.NoError(t, err)
	records, err = csv.NewReader(strings.NewReader(string(opt))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "70", records[1][0])
	assert.Equal(t, "61234.50", records[1][1])
	assert.Equal(t, "false", records[3][6])
}

func TestFormatBenefits(t *testing.T) {
	out := FormatBenefits([]MemberBenefit{
		{Name: "Alex", ClaimAge: 70, PIA: 2500, Factor: 1.24, Monthly: 3100, ByClaimAge: []float64{1750, 1875, 2000}},
		{Name: "Sam", ClaimAge: 62, PIA: 1000, Factor: 0.7, Monthly: 700, ByClaimAge: []float64{700, 750}},
	})
	for _, want := range []string{"SOCIAL SECURITY BENEFITS", "Alex", "Sam", "$2,500", "1.2400", "$37,200", "MONTHLY BENEFIT BY CLAIM AGE", "$1,875", "$750"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, FormatBenefits(nil), "BY CLAIM AGE")
}
