package domain

import (
	"github.com/shopspring/decimal"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// ExampleSingle returns a complete parameter set for a single retiree. It is
// the starting point written by `rpmc example`.
func ExampleSingle() SimulationParameters {
	return SimulationParameters{
		Name:      "single-example",
		StartYear: 2025,
		Household: Household{
			Primary: Person{
				Name:           "Alex",
				CurrentAge:     62,
				RetirementAge:  63,
				LifeExpectancy: 92,
				SSClaimAge:     67,
				SocialSecurity: SocialSecurityProfile{PIAMonthly: d(2400)},
			},
		},
		Buckets: AssetBuckets{
			TaxDeferred:  d(600000),
			TaxFree:      d(150000),
			Taxable:      d(200000),
			TaxableBasis: d(140000),
			Cash:         d(40000),
			HSA:          d(25000),
		},
		Returns: ReturnAssumptions{
			Distribution: DistributionNormal,
			AssetClasses: []AssetClass{
				{Name: "stocks", Weight: d(0.6), Mean: d(0.07), StdDev: d(0.16)},
				{Name: "bonds", Weight: d(0.4), Mean: d(0.035), StdDev: d(0.06)},
			},
			InflationMean:   d(0.025),
			InflationStdDev: d(0.01),
			CashReturn:      d(0.02),
		},
		Expenses: ExpenseSchedule{
			AnnualSpending:   d(60000),
			EssentialShare:   d(0.6),
			HealthcareAnnual: d(8000),
			Phases: []SpendingPhase{
				{StartAge: 75, Multiplier: d(0.9)},
				{StartAge: 85, Multiplier: d(0.8)},
			},
		},
		Withdrawal: WithdrawalConfig{Sequence: SequenceStandard, Policy: PolicyFixed},
		Tax:        TaxAssumptions{StateRate: d(0.03)},
		LegacyGoal: d(100000),
	}
}

// ExampleCouple returns a two-person household with a pension, contributions and LTC modelling
func ExampleCouple() SimulationParameters {
	p := ExampleSingle()
	p.Name = "couple-example"
	p.Household.Primary.CurrentAge = 58
	p.Household.Primary.RetirementAge = 62
	p.Household.Spouse = &Person{
		Name:           "Sam",
		CurrentAge:     56,
		RetirementAge:  62,
		LifeExpectancy: 94,
		SSClaimAge:     67,
		SocialSecurity: SocialSecurityProfile{MonthlyEarnings: d(5500), WorkStartAge: 24},
	}
	p.Income = []IncomeStream{
		{Name: "pension", Kind: IncomePension, Owner: OwnerPrimary, AnnualAmount: d(18000), StartAge: 62, COLA: true, Taxable: true, SurvivorPercent: d(0.5)},
		{Name: "consulting", Kind: IncomePartTime, Owner: OwnerSpouse, AnnualAmount: d(20000), StartAge: 62, EndAge: 66, Taxable: true},
	}
	p.Contributions = ContributionPlan{
		AnnualAmount:     d(30000),
		TaxDeferredShare: d(0.6),
		TaxFreeShare:     d(0.2),
		TaxableShare:     d(0.1),
		HSAShare:         d(0.1),
	}
	p.Expenses.AnnualSpending = d(85000)
	p.LTC = LTCAssumptions{
		Enabled: true,
		Insured: true,
		Policy: LTCPolicy{
			DailyBenefit:       d(200),
			BenefitInflation:   d(0.03),
			EliminationDays:    90,
			BenefitPeriodYears: 3,
			AnnualPremium:      d(3200),
		},
	}
	p.Withdrawal = WithdrawalConfig{
		Sequence: SequenceStandard,
		Policy:   PolicyGuardrails,
	}
	return p
}
