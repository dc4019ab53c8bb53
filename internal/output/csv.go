package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/rgehrsitz/rpmc/internal/optimizer"
)

// CSVFormatter writes the per-year balance percentiles, one row per year. A
// report without an aggregate writes the optimizer candidates instead.
type CSVFormatter struct{}

func (c CSVFormatter) Name() string { return "csv" }

func (c CSVFormatter) Format(r *Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	switch {
	case r.Aggregate != nil:
		header := []string{"YearIndex", "Year", "P10", "P25", "P50", "P75", "P90", "DepletedShare"}
		if err := w.Write(header); err != nil {
			return nil, err
		}
		for _, y := range r.Aggregate.Yearly {
			row := []string{
				strconv.Itoa(y.YearIndex),
				strconv.Itoa(y.Year),
				money(y.Balance.P10),
				money(y.Balance.P25),
				money(y.Balance.P50),
				money(y.Balance.P75),
				money(y.Balance.P90),
				strconv.FormatFloat(y.DepletedShare, 'f', 4, 64),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	case r.Optimization != nil:
		header := []string{"Strategy", "SustainableSpend", "SuccessProbability", "BracketLow", "BracketHigh", "Trials", "Feasible", "Converged"}
		if err := w.Write(header); err != nil {
			return nil, err
		}
		rows := r.Optimization.RunnersUp
		if r.Optimization.Best != nil {
			rows = append([]optimizer.Candidate{*r.Optimization.Best}, rows...)
		}
		for _, c := range rows {
			row := []string{
				c.Strategy.String(),
				money(c.SustainableSpend),
				strconv.FormatFloat(c.SuccessProbability, 'f', 4, 64),
				money(c.Low),
				money(c.High),
				strconv.Itoa(c.Trials),
				strconv.FormatBool(c.Feasible),
				strconv.FormatBool(c.Converged),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
