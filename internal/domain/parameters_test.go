package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExamplesAreValid(t *testing.T) {
	for _, p := range []SimulationParameters{ExampleSingle(), ExampleCouple()} {
		t.Run(p.Name, func(t *testing.T) {
			assert.NoError(t, p.WithDefaults().Validate())
		})
	}
}

func TestValidate_RejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *SimulationParameters)
		field  string
	}{
		{
			name:   "negative bucket",
			mutate: func(p *SimulationParameters) { p.Buckets.Taxable = decimal.NewFromInt(-1) },
			field:  "buckets.taxable",
		},
		{
			name:   "claim age too early",
			mutate: func(p *SimulationParameters) { p.Household.Primary.SSClaimAge = 61 },
			field:  "household.primary.ss_claim_age",
		},
		{
			name:   "claim age too late",
			mutate: func(p *SimulationParameters) { p.Household.Primary.SSClaimAge = 71 },
			field:  "household.primary.ss_claim_age",
		},
		{
			name: "weights do not sum to one",
			mutate: func(p *SimulationParameters) {
				p.Returns.AssetClasses[0].Weight = decimal.NewFromFloat(0.7)
			},
			field: "returns.asset_classes",
		},
		{
			name: "student t with tiny df",
			mutate: func(p *SimulationParameters) {
				p.Returns.Distribution = DistributionStudentT
				p.Returns.DegreesOfFreedom = decimal.NewFromFloat(2.1)
			},
			field: "returns.degrees_of_freedom",
		},
		{
			name:   "life expectancy before current age",
			mutate: func(p *SimulationParameters) { p.Household.Primary.LifeExpectancy = 50 },
			field:  "household.primary.life_expectancy",
		},
		{
			name: "spouse income without spouse",
			mutate: func(p *SimulationParameters) {
				p.Income = []IncomeStream{{Name: "x", Kind: IncomePension, Owner: OwnerSpouse, AnnualAmount: decimal.NewFromInt(1)}}
			},
			field: "income[0].owner",
		},
		{
			name: "contribution shares do not sum to one",
			mutate: func(p *SimulationParameters) {
				p.Contributions = ContributionPlan{AnnualAmount: decimal.NewFromInt(1000), TaxDeferredShare: decimal.NewFromFloat(0.5)}
			},
			field: "contributions",
		},
		{
			name:   "unknown policy",
			mutate: func(p *SimulationParameters) { p.Withdrawal.Policy = "yolo" },
			field:  "withdrawal.policy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ExampleSingle()
			p.Returns.AssetClasses = append([]AssetClass(nil), p.Returns.AssetClasses...)
			tt.mutate(&p)

			err := p.WithDefaults().Validate()
			require.Error(t, err)

			var ipe *InvalidParameterError
			require.True(t, errors.As(err, &ipe))
			assert.Equal(t, tt.field, ipe.Field)
		})
	}
}

func TestWithDefaults_DoesNotMutateReceiver(t *testing.T) {
	p := ExampleCouple()
	p.Household.Spouse.SSClaimAge = 0
	p.Income[0].Owner = ""

	out := p.WithDefaults()

	assert.Equal(t, DefaultClaimAge, out.Household.Spouse.SSClaimAge)
	assert.Equal(t, 0, p.Household.Spouse.SSClaimAge)
	assert.Equal(t, OwnerPrimary, out.Income[0].Owner)
	assert.Equal(t, "", p.Income[0].Owner)
	assert.Equal(t, 2025-56, out.Household.Spouse.BirthYear)
}

func TestWithClaimAges(t *testing.T) {
	p := ExampleCouple()
	spouseAge := 70

	out := p.WithClaimAges(ClaimingStrategy{PrimaryClaimAge: 62, SpouseClaimAge: &spouseAge})

	assert.Equal(t, 62, out.Household.Primary.SSClaimAge)
	assert.Equal(t, 70, out.Household.Spouse.SSClaimAge)
	assert.Equal(t, 67, p.Household.Primary.SSClaimAge)
	assert.Equal(t, 67, p.Household.Spouse.SSClaimAge)
	assert.Equal(t, "62/70", out.ClaimingStrategy().String())
}

func TestWithSpending(t *testing.T) {
	p := ExampleSingle()
	out := p.WithSpending(decimal.NewFromInt(42000))

	assert.True(t, out.Expenses.AnnualSpending.Equal(decimal.NewFromInt(42000)))
	assert.True(t, p.Expenses.AnnualSpending.Equal(decimal.NewFromInt(60000)))
}

func TestHorizonYears(t *testing.T) {
	assert.Equal(t, 31, ExampleSingle().Household.HorizonYears())
	// spouse: 56 -> 94
	assert.Equal(t, 39, ExampleCouple().Household.HorizonYears())
}

func TestBucketsTotal(t *testing.T) {
	b := ExampleSingle().Buckets
	assert.True(t, b.Total().Equal(decimal.NewFromInt(1015000)))
	assert.InDelta(t, 1015000.0, BucketsFromParameters(b).Total(), 1e-6)
}

func TestRunError_UnwrapsFailures(t *testing.T) {
	cause := errors.New("boom")
	err := &RunError{
		Message:  "too many failed scenarios",
		Failures: []*WorkerFailure{{Scenario: 3, Seed: 45, Attempts: 2, Cause: cause}},
	}

	assert.ErrorIs(t, err, cause)
	var wf *WorkerFailure
	require.ErrorAs(t, err, &wf)
	assert.Equal(t, 3, wf.Scenario)
	assert.Contains(t, err.Error(), "1 failed scenario")
}
