package montecarlo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rgehrsitz/rpmc/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestPercentile_SortAndIndex(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	assert.Equal(t, 2.0, Percentile(sorted, 0.10))
	assert.Equal(t, 4.0, Percentile(sorted, 0.25))
	assert.Equal(t, 6.0, Percentile(sorted, 0.50))
	assert.Equal(t, 10.0, Percentile(sorted, 0.90))
	assert.Equal(t, 11.0, Percentile(sorted, 1))
	assert.Zero(t, Percentile(nil, 0.5))
}

func TestAggregate(t *testing.T) {
	results := []*domain.ScenarioResult{
		{StartYear: 2030, Success: true, MetLegacyGoal: true, EndingBalance: 300, EndingBalanceReal: 200, YearlyBalances: []float64{100, 200, 300}},
		nil,
		{StartYear: 2030, EndingBalance: 0, DepletionYear: intPtr(2031), YearlyBalances: []float64{50, 0, 0},
			LTCEvents: []domain.LTCEvent{{Owner: domain.OwnerPrimary}}},
		{StartYear: 2030, Success: true, EndingBalance: 100, EndingBalanceReal: 80, YearlyBalances: []float64{90, 95, 100}},
	}

	agg := Aggregate(results, Options{BaseSeed: 9, KeepScenarios: true})
	assert.Equal(t, 4, agg.Requested)
	assert.Equal(t, 3, agg.Completed)
	assert.Equal(t, 1, agg.Failed)
	assert.Equal(t, int64(9), agg.BaseSeed)
	assert.InDelta(t, 2.0/3, agg.SuccessProbability, 1e-12)
	assert.InDelta(t, 1.0/3, agg.LegacyProbability, 1e-12)
	assert.InDelta(t, 1.0/3, agg.LTCEventRate, 1e-12)
	assert.Equal(t, 100.0, agg.EndingBalance.P50)
	assert.Equal(t, 0.0, agg.EndingBalance.P10)
	assert.Equal(t, 300.0, agg.EndingBalance.P90)

	assert.Len(t, agg.Yearly, 3)
	assert.Equal(t, 2030, agg.Yearly[0].Year)
	assert.Equal(t, 90.0, agg.Yearly[0].Balance.P50)
	assert.Zero(t, agg.Yearly[0].DepletedShare)
	assert.InDelta(t, 1.0/3, agg.Yearly[1].DepletedShare, 1e-12)
	assert.InDelta(t, 1.0/3, agg.Yearly[2].DepletedShare, 1e-12)
	assert.Len(t, agg.Scenarios, 3)
}

func TestAggregate_NoCompletedScenarios(t *testing.T) {
	agg := Aggregate([]*domain.ScenarioResult{nil, nil}, Options{})
	assert.Equal(t, 2, agg.Failed)
	assert.Zero(t, agg.SuccessProbability)
	assert.Empty(t, agg.Yearly)
	assert.Nil(t, agg.Scenarios)
}
