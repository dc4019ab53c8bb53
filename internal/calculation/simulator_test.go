package calculation

import (
	"context"
	"errors"
	"testing"

	"github.com/rgehrsitz/rpmc/internal/domain"
	"github.com/rgehrsitz/rpmc/internal/returns"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// flatParams is a single retiree in a world without volatility or inflation
func flatParams() domain.SimulationParameters {
	return domain.SimulationParameters{
		StartYear: 2025,
		Household: domain.Household{Primary: domain.Person{
			Name:           "Pat",
			CurrentAge:     67,
			RetirementAge:  65,
			LifeExpectancy: 70,
			SSClaimAge:     67,
			SocialSecurity: domain.SocialSecurityProfile{PIAMonthly: d(2000)},
		}},
		Buckets: domain.AssetBuckets{Cash: d(100000)},
		Returns: domain.ReturnAssumptions{
			AssetClasses: []domain.AssetClass{{Name: "flat", Weight: d(1)}},
		},
		Expenses: domain.ExpenseSchedule{AnnualSpending: d(30000)},
	}
}

func run(t *testing.T, p domain.SimulationParameters, seed int64, opts ...Option) *domain.ScenarioResult {
	t.Helper()
	sim, err := NewSimulator(p, opts...)
	require.NoError(t, err)
	res, err := sim.RunScenario(context.Background(), 0, returns.NewStream(seed))
	require.NoError(t, err)
	return res
}

func TestRunScenario_DeterministicYear(t *testing.T) {
	res := run(t, flatParams(), 1, WithCashFlows(true))
	require.Len(t, res.CashFlows, 4)

	first := res.CashFlows[0]
	assert.Equal(t, domain.PhaseDecumulation, first.Phase)
	// PIA 2000 claimed four months after FRA (66y8m): floor(2000 * 3696/3600) * 12
	assert.InDelta(t, 24636.0, first.Income.SocialSecurity, 1e-6)
	assert.InDelta(t, 5364.0, first.Withdrawals.Cash, 1e-6)
	assert.Zero(t, first.Taxes)
	assert.InDelta(t, 94636.0, first.TotalBalance, 1e-6)

	assert.True(t, res.Success)
	assert.Equal(t, domain.PhaseSuccess, res.Terminal)
	assert.InDelta(t, 100000-4*5364.0, res.EndingBalance, 1e-6)
	assert.Equal(t, res.EndingBalance, res.EndingBalanceReal)
}

func TestRunScenario_BucketInvariants(t *testing.T) {
	for _, p := range []domain.SimulationParameters{domain.ExampleSingle(), domain.ExampleCouple()} {
		sim, err := NewSimulator(p, WithCashFlows(true))
		require.NoError(t, err)
		for seed := int64(0); seed < 20; seed++ {
			res, err := sim.RunScenario(context.Background(), int(seed), returns.NewStream(seed))
			require.NoError(t, err)
			require.Len(t, res.CashFlows, sim.Horizon())
			require.Len(t, res.YearlyBalances, sim.Horizon())

			for i, rec := range res.CashFlows {
				b := rec.EndingBalances
				assert.InDelta(t, b.Total(), rec.TotalBalance, 1e-6)
				assert.Equal(t, rec.TotalBalance, res.YearlyBalances[i])
				for _, v := range []float64{b.TaxDeferred, b.TaxFree, b.Taxable, b.Cash, b.HSA} {
					assert.GreaterOrEqual(t, v, 0.0, "negative bucket in %d", rec.Year)
				}
				assert.GreaterOrEqual(t, rec.Withdrawals.Total(), rec.RMD-1e-6)
				if rec.Shortfall > 0 {
					assert.InDelta(t, 0.0, rec.TotalBalance, 1e-6, "shortfall with money left in %d", rec.Year)
				}
				assertYearBalances(t, rec)
			}
		}
	}
}

func TestRunScenario_IncomeAboveExpensesNeverDepletes(t *testing.T) {
	p := domain.ExampleSingle()
	p.Income = []domain.IncomeStream{{
		Name:         "pension",
		Kind:         domain.IncomePension,
		AnnualAmount: d(250000),
		StartAge:     60,
		COLA:         true,
		Taxable:      true,
	}}
	p.Buckets = domain.AssetBuckets{Cash: d(1000)}

	sim, err := NewSimulator(p)
	require.NoError(t, err)
	for seed := int64(0); seed < 100; seed++ {
		res, err := sim.RunScenario(context.Background(), int(seed), returns.NewStream(seed))
		require.NoError(t, err)
		assert.True(t, res.Success, "seed %d depleted", seed)
		assert.Nil(t, res.DepletionYear)
		assert.Zero(t, res.TotalShortfall)
	}
}

func TestRunScenario_SameStreamSameResult(t *testing.T) {
	p := domain.ExampleCouple()
	a := run(t, p, 42, WithCashFlows(true))
	b := run(t, p, 42, WithCashFlows(true))
	assert.Equal(t, a, b)

	c := run(t, p, 43)
	assert.NotEqual(t, a.YearlyBalances, c.YearlyBalances)
}

func TestRunScenario_DepletionContinuesAtZero(t *testing.T) {
	p := flatParams()
	p.Household.Primary.LifeExpectancy = 80
	p.Expenses.AnnualSpending = d(60000)

	res := run(t, p, 7, WithCashFlows(true))
	assert.False(t, res.Success)
	assert.Equal(t, domain.PhaseDepleted, res.Terminal)
	require.NotNil(t, res.DepletionYear)
	require.NotNil(t, res.DepletionAge)
	// 35364 a year from 100000 lasts two full years
	assert.Equal(t, 2027, *res.DepletionYear)
	assert.Equal(t, 69, *res.DepletionAge)
	assert.Len(t, res.YearlyBalances, 14)

	for _, rec := range res.CashFlows[3:] {
		assert.Equal(t, domain.PhaseDepleted, rec.Phase)
		assert.Zero(t, rec.TotalBalance)
		assert.InDelta(t, 60000-24636.0, rec.Shortfall, 1e-6)
	}
	assert.Greater(t, res.TotalShortfall, 0.0)
	assert.False(t, res.MetLegacyGoal)
}

func TestRunScenario_AccumulationThenDecumulation(t *testing.T) {
	p := domain.ExampleCouple()
	res := run(t, p, 3, WithCashFlows(true))

	first := res.CashFlows[0]
	assert.Equal(t, domain.PhaseAccumulation, first.Phase)
	assert.InDelta(t, 30000.0, first.Contributions.Total(), 1e-6)
	assert.Zero(t, first.Spending)

	// both members retire at 62: the primary (58) in year 4, the spouse (56) in year 6
	assert.Equal(t, domain.PhaseAccumulation, res.CashFlows[5].Phase)
	decum := res.CashFlows[6]
	assert.NotEqual(t, domain.PhaseAccumulation, decum.Phase)
	assert.Zero(t, decum.Contributions.Total())
	assert.Greater(t, decum.Spending+decum.Shortfall, 0.0)
}

func TestRunScenario_RMDForcedAndReinvested(t *testing.T) {
	p := flatParams()
	p.Household.Primary.CurrentAge = 80
	p.Household.Primary.LifeExpectancy = 82
	p.Household.Primary.SSClaimAge = 70
	p.Buckets = domain.AssetBuckets{TaxDeferred: d(1010000)}
	p.Expenses.AnnualSpending = d(1000)

	res := run(t, p, 1, WithCashFlows(true))
	first := res.CashFlows[0]
	assert.InDelta(t, 1010000/20.2, first.RMD, 1e-6)
	assert.Greater(t, first.Reinvested, 0.0)
	assert.Greater(t, first.Taxes, 0.0)
	assert.InDelta(t, first.Reinvested, first.EndingBalances.Taxable, 1e-6)
}

func TestRunScenario_GuardrailsCutInBadMarkets(t *testing.T) {
	p := flatParams()
	p.Household.Primary.LifeExpectancy = 75
	p.Buckets = domain.AssetBuckets{Cash: d(600000)}
	p.Returns.CashReturn = d(-0.2)
	p.Withdrawal.Policy = domain.PolicyGuardrails

	res := run(t, p, 1, WithCashFlows(true))
	assert.Equal(t, 1.0, res.CashFlows[0].SpendingMultiplier)
	last := res.CashFlows[len(res.CashFlows)-1]
	assert.Less(t, last.SpendingMultiplier, 1.0)
	assert.GreaterOrEqual(t, last.SpendingMultiplier, 0.75)
}

func TestRunScenario_SurvivorSpendingRatio(t *testing.T) {
	p := flatParams()
	spouse := domain.Person{
		Name:           "Sam",
		CurrentAge:     67,
		RetirementAge:  65,
		LifeExpectancy: 68,
		SSClaimAge:     67,
	}
	p.Household.Spouse = &spouse
	p.Buckets.Cash = d(1000000)

	res := run(t, p, 1, WithCashFlows(true))
	assert.InDelta(t, 30000.0, res.CashFlows[1].Spending, 1e-6)
	assert.False(t, res.CashFlows[2].SpouseLive)
	assert.InDelta(t, 21000.0, res.CashFlows[2].Spending, 1e-6)
}

func TestRunScenario_NonFiniteBalanceIsRuntimeError(t *testing.T) {
	p := flatParams()
	p.Buckets = domain.AssetBuckets{Taxable: d(1000000)}
	p.Returns.AssetClasses = []domain.AssetClass{{Name: "absurd", Weight: d(1), Mean: d(1e300)}}

	sim, err := NewSimulator(p)
	require.NoError(t, err)
	_, err = sim.RunScenario(context.Background(), 9, returns.NewStream(1))

	var rte *domain.SimulationRuntimeError
	require.True(t, errors.As(err, &rte))
	assert.Equal(t, 9, rte.Scenario)
}

func TestRunScenario_Cancelled(t *testing.T) {
	sim, err := NewSimulator(domain.ExampleSingle())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sim.RunScenario(ctx, 0, returns.NewStream(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSimulator_RejectsInvalidParameters(t *testing.T) {
	p := flatParams()
	p.Household.Primary.SSClaimAge = 61
	_, err := NewSimulator(p)

	var ipe *domain.InvalidParameterError
	require.True(t, errors.As(err, &ipe))
	assert.Equal(t, "household.primary.ss_claim_age", ipe.Field)
}

func TestRunScenario_MirroredStreamRuns(t *testing.T) {
	sim, err := NewSimulator(domain.ExampleCouple())
	require.NoError(t, err)
	s := returns.StreamFor(11, 1, true)
	require.True(t, s.IsMirrored())
	res, err := sim.RunScenario(context.Background(), 1, s)
	require.NoError(t, err)
	assert.True(t, res.Mirrored)
	assert.Len(t, res.YearlyBalances, sim.Horizon())
}

// assertYearBalances checks that every dollar of the year is accounted for:
// income and withdrawals pay spending and taxes, and the rest is reinvested,
// left unspent after depletion, or reported as a shortfall
func assertYearBalances(t *testing.T, rec domain.YearlyCashFlowRecord) {
	t.Helper()
	need := rec.Spending + rec.Healthcare + rec.LTCPremium + rec.LTCOutOfPocket
	residual := rec.Income.Total() + rec.Withdrawals.Total() - need - rec.Taxes -
		rec.Reinvested - rec.UnspentIncome + rec.Shortfall
	assert.InDelta(t, 0.0, residual, shortfallTolerance, "unbalanced year %d", rec.Year)
}

func TestRunScenario_TaxableSocialSecurityFullyFunded(t *testing.T) {
	for _, state := range []float64{0, 0.09} {
		p := flatParams()
		p.Household.Primary.CurrentAge = 70
		p.Household.Primary.LifeExpectancy = 75
		p.Household.Primary.SSClaimAge = 70
		p.Household.Primary.SocialSecurity.PIAMonthly = d(2500)
		p.Buckets = domain.AssetBuckets{TaxDeferred: d(3000000)}
		p.Expenses.AnnualSpending = d(120000)
		p.Tax.StateRate = d(state)

		res := run(t, p, 1, WithCashFlows(true))
		assert.True(t, res.Success, "state rate %v", state)
		assert.Nil(t, res.DepletionYear)
		assert.Zero(t, res.TotalShortfall)
		for _, rec := range res.CashFlows {
			assert.Zero(t, rec.Shortfall)
			assert.Greater(t, rec.Taxes, 0.0)
			assert.InDelta(t, 120000.0, rec.Spending, 1e-6)
			assertYearBalances(t, rec)
		}
		assert.Greater(t, res.EndingBalance, 2000000.0)
	}
}

func TestRunScenario_ModestSpendingMostlySucceeds(t *testing.T) {
	p := domain.ExampleSingle().WithSpending(d(40000))
	sim, err := NewSimulator(p)
	require.NoError(t, err)

	succeeded := 0
	for seed := int64(0); seed < 50; seed++ {
		res, err := sim.RunScenario(context.Background(), int(seed), returns.NewStream(seed))
		require.NoError(t, err)
		if res.Success {
			succeeded++
		}
	}
	assert.Greater(t, succeeded, 30)
}

func TestRunScenario_DepletedPathDoesNotRebuild(t *testing.T) {
	p := flatParams()
	p.Household.Primary.CurrentAge = 62
	p.Household.Primary.RetirementAge = 62
	p.Household.Primary.LifeExpectancy = 80
	p.Household.Primary.SSClaimAge = 70
	p.Household.Primary.SocialSecurity.PIAMonthly = d(3000)
	p.Buckets = domain.AssetBuckets{Cash: d(50000)}

	res := run(t, p, 1, WithCashFlows(true))
	assert.False(t, res.Success)
	require.NotNil(t, res.DepletionAge)
	assert.Equal(t, 63, *res.DepletionAge)
	assert.Zero(t, res.EndingBalance)

	for _, rec := range res.CashFlows[2:] {
		assert.Zero(t, rec.TotalBalance, "age %d", rec.PrimaryAge)
		assert.Zero(t, rec.Reinvested)
		if rec.PrimaryAge >= 70 {
			// 3000 * 1.24 * 12 - 30000
			assert.InDelta(t, 14640.0, rec.UnspentIncome, 1e-6)
			assert.Zero(t, rec.Shortfall)
		}
	}
}

func TestRunScenario_RMDFollowsOlderSpouse(t *testing.T) {
	p := flatParams()
	p.Household.Primary.CurrentAge = 70
	p.Household.Primary.SSClaimAge = 70
	spouse := domain.Person{
		Name:           "Sam",
		CurrentAge:     76,
		RetirementAge:  65,
		LifeExpectancy: 80,
		SSClaimAge:     70,
	}
	p.Household.Spouse = &spouse
	p.Buckets = domain.AssetBuckets{TaxDeferred: d(1000000)}
	p.Expenses.AnnualSpending = d(1000)

	res := run(t, p, 1, WithCashFlows(true))
	assert.InDelta(t, 1000000/23.7, res.CashFlows[0].RMD, 1e-6)
}

func TestRunScenario_ZeroStreamIsRuntimeError(t *testing.T) {
	sim, err := NewSimulator(flatParams())
	require.NoError(t, err)
	_, err = sim.RunScenario(context.Background(), 4, returns.Stream{})

	var rte *domain.SimulationRuntimeError
	require.True(t, errors.As(err, &rte))
	assert.Equal(t, 4, rte.Scenario)
}
