package montecarlo

import (
	"sort"

	"github.com/rgehrsitz/rpmc/internal/domain"
)

// Aggregate reduces index-ordered scenario results into run statistics. Nil
// entries are failed scenarios; they are counted but excluded from every
// denominator.
func Aggregate(results []*domain.ScenarioResult, opts Options) *domain.AggregateResult {
	agg := &domain.AggregateResult{
		Requested:  len(results),
		BaseSeed:   opts.BaseSeed,
		Antithetic: opts.Antithetic,
	}

	done := make([]*domain.ScenarioResult, 0, len(results))
	for _, r := range results {
		if r == nil {
			agg.Failed++
			continue
		}
		done = append(done, r)
	}
	agg.Completed = len(done)
	if agg.Completed == 0 {
		return agg
	}

	n := float64(agg.Completed)
	var successes, legacy, ltcHit int
	ending := make([]float64, 0, len(done))
	endingReal := make([]float64, 0, len(done))
	horizon := 0
	for _, r := range done {
		if r.Success {
			successes++
		}
		if r.MetLegacyGoal {
			legacy++
		}
		if len(r.LTCEvents) > 0 {
			ltcHit++
		}
		ending = append(ending, r.EndingBalance)
		endingReal = append(endingReal, r.EndingBalanceReal)
		if len(r.YearlyBalances) > horizon {
			horizon = len(r.YearlyBalances)
		}
	}
	agg.SuccessProbability = float64(successes) / n
	agg.LegacyProbability = float64(legacy) / n
	agg.LTCEventRate = float64(ltcHit) / n
	agg.EndingBalance = ladder(ending)
	agg.EndingBalanceReal = ladder(endingReal)

	startYear := done[0].StartYear
	agg.Yearly = make([]domain.YearPercentiles, horizon)
	column := make([]float64, 0, len(done))
	for y := 0; y < horizon; y++ {
		column = column[:0]
		depleted := 0
		for _, r := range done {
			if y < len(r.YearlyBalances) {
				column = append(column, r.YearlyBalances[y])
			}
			if r.DepletedBy(startYear + y) {
				depleted++
			}
		}
		agg.Yearly[y] = domain.YearPercentiles{
			YearIndex:     y,
			Year:          startYear + y,
			Balance:       ladder(column),
			DepletedShare: float64(depleted) / n,
		}
	}

	if opts.KeepScenarios {
		agg.Scenarios = make([]domain.ScenarioResult, len(done))
		for i, r := range done {
			agg.Scenarios[i] = *r
		}
	}
	return agg
}

func ladder(values []float64) domain.PercentileLadder {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return domain.PercentileLadder{
		P10: Percentile(sorted, 0.10),
		P25: Percentile(sorted, 0.25),
		P50: Percentile(sorted, 0.50),
		P75: Percentile(sorted, 0.75),
		P90: Percentile(sorted, 0.90),
	}
}

// Percentile returns the nearest-rank value of p in [0,1] from sorted values
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p*float64(len(sorted)-1) + 0.5)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
