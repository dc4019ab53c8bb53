package domain

import (
	"github.com/shopspring/decimal"
)

// Return distributions supported by the return model
const (
	DistributionNormal   = "normal"
	DistributionStudentT = "student_t"
	DistributionMerton   = "merton"
)

// Spending policies and sequencers recognised by the withdrawal layer
const (
	PolicyFixed      = "fixed"
	PolicyGuardrails = "guardrails"

	SequenceStandard = "standard"
	SequenceCustom   = "custom"
)

// Income stream kinds
const (
	IncomePension  = "pension"
	IncomePartTime = "part_time"
	IncomeAnnuity  = "annuity"
	IncomeOther    = "other"
)

// SimulationParameters is the complete, immutable input to one Monte Carlo run.
// Money amounts are in today's (start year) dollars unless noted.
type SimulationParameters struct {
	Name          string            `yaml:"name" json:"name"`
	StartYear     int               `yaml:"start_year" json:"start_year"`
	Household     Household         `yaml:"household" json:"household"`
	Buckets       AssetBuckets      `yaml:"buckets" json:"buckets"`
	Returns       ReturnAssumptions `yaml:"returns" json:"returns"`
	Expenses      ExpenseSchedule   `yaml:"expenses" json:"expenses"`
	Income        []IncomeStream    `yaml:"income,omitempty" json:"income,omitempty"`
	Contributions ContributionPlan  `yaml:"contributions,omitempty" json:"contributions,omitempty"`
	LTC           LTCAssumptions    `yaml:"ltc,omitempty" json:"ltc,omitempty"`
	Withdrawal    WithdrawalConfig  `yaml:"withdrawal,omitempty" json:"withdrawal,omitempty"`
	Tax           TaxAssumptions    `yaml:"tax,omitempty" json:"tax,omitempty"`
	LegacyGoal    decimal.Decimal   `yaml:"legacy_goal,omitempty" json:"legacy_goal,omitempty"`
}

// AssetBuckets holds starting balances keyed by tax treatment
type AssetBuckets struct {
	TaxDeferred  decimal.Decimal `yaml:"tax_deferred" json:"tax_deferred"`
	TaxFree      decimal.Decimal `yaml:"tax_free" json:"tax_free"`
	Taxable      decimal.Decimal `yaml:"taxable" json:"taxable"`
	TaxableBasis decimal.Decimal `yaml:"taxable_basis,omitempty" json:"taxable_basis,omitempty"`
	Cash         decimal.Decimal `yaml:"cash" json:"cash"`
	HSA          decimal.Decimal `yaml:"hsa,omitempty" json:"hsa,omitempty"`
}

// Total returns the sum of all bucket balances (basis is not a balance)
func (b AssetBuckets) Total() decimal.Decimal {
	return b.TaxDeferred.Add(b.TaxFree).Add(b.Taxable).Add(b.Cash).Add(b.HSA)
}

// AssetClass is one allocation sleeve with its return assumptions
type AssetClass struct {
	Name   string          `yaml:"name" json:"name"`
	Weight decimal.Decimal `yaml:"weight" json:"weight"`
	Mean   decimal.Decimal `yaml:"mean" json:"mean"`
	StdDev decimal.Decimal `yaml:"stddev" json:"stddev"`
}

// ReturnAssumptions configures market and inflation sampling
type ReturnAssumptions struct {
	Distribution     string           `yaml:"distribution" json:"distribution"`
	DegreesOfFreedom decimal.Decimal  `yaml:"degrees_of_freedom,omitempty" json:"degrees_of_freedom,omitempty"`
	JumpProbability  decimal.Decimal  `yaml:"jump_probability,omitempty" json:"jump_probability,omitempty"`
	JumpMean         decimal.Decimal  `yaml:"jump_mean,omitempty" json:"jump_mean,omitempty"`
	JumpStd          decimal.Decimal  `yaml:"jump_std,omitempty" json:"jump_std,omitempty"`
	AssetClasses     []AssetClass     `yaml:"asset_classes" json:"asset_classes"`
	InflationMean    decimal.Decimal  `yaml:"inflation_mean" json:"inflation_mean"`
	InflationStdDev  decimal.Decimal  `yaml:"inflation_stddev" json:"inflation_stddev"`
	CashReturn       decimal.Decimal  `yaml:"cash_return,omitempty" json:"cash_return,omitempty"`
	WageGrowth       decimal.Decimal  `yaml:"wage_growth,omitempty" json:"wage_growth,omitempty"`
	FixedCOLA        *decimal.Decimal `yaml:"fixed_cola,omitempty" json:"fixed_cola,omitempty"` // nil: COLA follows realised inflation
}

// SpendingPhase scales spending from the given age of the primary (or surviving) member
type SpendingPhase struct {
	StartAge   int             `yaml:"start_age" json:"start_age"`
	Multiplier decimal.Decimal `yaml:"multiplier" json:"multiplier"`
}

// ExpenseSchedule describes retirement spending
type ExpenseSchedule struct {
	AnnualSpending      decimal.Decimal `yaml:"annual_spending" json:"annual_spending"`
	EssentialShare      decimal.Decimal `yaml:"essential_share,omitempty" json:"essential_share,omitempty"` // not subject to guardrail cuts
	Phases              []SpendingPhase `yaml:"phases,omitempty" json:"phases,omitempty"`
	HealthcareAnnual    decimal.Decimal `yaml:"healthcare_annual,omitempty" json:"healthcare_annual,omitempty"`
	HealthcareInflation decimal.Decimal `yaml:"healthcare_inflation,omitempty" json:"healthcare_inflation,omitempty"`
	SurvivorRatio       decimal.Decimal `yaml:"survivor_ratio,omitempty" json:"survivor_ratio,omitempty"`
}

// IncomeStream is a guaranteed or semi-guaranteed income source other than Social Security
type IncomeStream struct {
	Name            string          `yaml:"name" json:"name"`
	Kind            string          `yaml:"kind" json:"kind"`
	Owner           string          `yaml:"owner" json:"owner"`
	AnnualAmount    decimal.Decimal `yaml:"annual_amount" json:"annual_amount"`
	StartAge        int             `yaml:"start_age" json:"start_age"`
	EndAge          int             `yaml:"end_age,omitempty" json:"end_age,omitempty"` // 0: lifetime
	COLA            bool            `yaml:"cola" json:"cola"`
	Taxable         bool            `yaml:"taxable" json:"taxable"`
	SurvivorPercent decimal.Decimal `yaml:"survivor_percent,omitempty" json:"survivor_percent,omitempty"`
}

// ContributionPlan is the annual savings made while the household is accumulating
type ContributionPlan struct {
	AnnualAmount     decimal.Decimal `yaml:"annual_amount" json:"annual_amount"`
	TaxDeferredShare decimal.Decimal `yaml:"tax_deferred_share" json:"tax_deferred_share"`
	TaxFreeShare     decimal.Decimal `yaml:"tax_free_share" json:"tax_free_share"`
	TaxableShare     decimal.Decimal `yaml:"taxable_share" json:"taxable_share"`
	CashShare        decimal.Decimal `yaml:"cash_share,omitempty" json:"cash_share,omitempty"`
	HSAShare         decimal.Decimal `yaml:"hsa_share,omitempty" json:"hsa_share,omitempty"`
}

// LTCProbabilityBand is the annual onset probability from FromAge onward
type LTCProbabilityBand struct {
	FromAge     int             `yaml:"from_age" json:"from_age"`
	Probability decimal.Decimal `yaml:"probability" json:"probability"`
}

// LTCPolicy describes an LTC insurance contract
type LTCPolicy struct {
	DailyBenefit       decimal.Decimal `yaml:"daily_benefit" json:"daily_benefit"`
	BenefitInflation   decimal.Decimal `yaml:"benefit_inflation,omitempty" json:"benefit_inflation,omitempty"`
	EliminationDays    int             `yaml:"elimination_days" json:"elimination_days"`
	BenefitPeriodYears int             `yaml:"benefit_period_years" json:"benefit_period_years"`
	AnnualPremium      decimal.Decimal `yaml:"annual_premium" json:"annual_premium"`
}

// LTCAssumptions configures long-term-care event modelling
type LTCAssumptions struct {
	Enabled         bool                 `yaml:"enabled" json:"enabled"`
	ThresholdAge    int                  `yaml:"threshold_age,omitempty" json:"threshold_age,omitempty"`
	Bands           []LTCProbabilityBand `yaml:"bands,omitempty" json:"bands,omitempty"`
	AnnualCost      decimal.Decimal      `yaml:"annual_cost,omitempty" json:"annual_cost,omitempty"`
	CostStdDev      decimal.Decimal      `yaml:"cost_stddev,omitempty" json:"cost_stddev,omitempty"`
	CostInflation   decimal.Decimal      `yaml:"cost_inflation,omitempty" json:"cost_inflation,omitempty"`
	DurationWeights []decimal.Decimal    `yaml:"duration_weights,omitempty" json:"duration_weights,omitempty"`
	Insured         bool                 `yaml:"insured" json:"insured"`
	Policy          LTCPolicy            `yaml:"policy,omitempty" json:"policy,omitempty"`
}

// GuardrailsConfig bounds the guardrails spending policy
type GuardrailsConfig struct {
	UpperBand  decimal.Decimal `yaml:"upper_band" json:"upper_band"`
	LowerBand  decimal.Decimal `yaml:"lower_band" json:"lower_band"`
	Adjustment decimal.Decimal `yaml:"adjustment" json:"adjustment"`
	MaxCut     decimal.Decimal `yaml:"max_cut" json:"max_cut"`
	MaxRaise   decimal.Decimal `yaml:"max_raise" json:"max_raise"`
}

// WithdrawalConfig selects the sequencing strategy and spending policy
type WithdrawalConfig struct {
	Sequence       string           `yaml:"sequence,omitempty" json:"sequence,omitempty"`
	CustomSequence []string         `yaml:"custom_sequence,omitempty" json:"custom_sequence,omitempty"`
	Policy         string           `yaml:"policy,omitempty" json:"policy,omitempty"`
	Guardrails     GuardrailsConfig `yaml:"guardrails,omitempty" json:"guardrails,omitempty"`
}

// TaxAssumptions configures the tax approximation
type TaxAssumptions struct {
	StateRate        decimal.Decimal `yaml:"state_rate,omitempty" json:"state_rate,omitempty"`
	CapitalGainsRate decimal.Decimal `yaml:"capital_gains_rate,omitempty" json:"capital_gains_rate,omitempty"`
}

// WithSpending returns a copy of the parameters with a different annual spending target
func (p SimulationParameters) WithSpending(annual decimal.Decimal) SimulationParameters {
	out := p
	out.Expenses.AnnualSpending = annual
	return out
}

// WithClaimAges returns a copy of the parameters using the claim ages of the strategy.
// The spouse is copied so the receiver is never mutated.
func (p SimulationParameters) WithClaimAges(cs ClaimingStrategy) SimulationParameters {
	out := p
	out.Household.Primary.SSClaimAge = cs.PrimaryClaimAge
	if p.Household.Spouse != nil {
		spouse := *p.Household.Spouse
		if cs.SpouseClaimAge != nil {
			spouse.SSClaimAge = *cs.SpouseClaimAge
		}
		out.Household.Spouse = &spouse
	}
	return out
}

// ClaimingStrategy returns the claim ages currently configured
func (p SimulationParameters) ClaimingStrategy() ClaimingStrategy {
	cs := ClaimingStrategy{PrimaryClaimAge: p.Household.Primary.SSClaimAge}
	if p.Household.Spouse != nil {
		age := p.Household.Spouse.SSClaimAge
		cs.SpouseClaimAge = &age
	}
	return cs
}
