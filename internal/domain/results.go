package domain

// Phase is the scenario state machine state
type Phase int

const (
	PhaseAccumulation Phase = iota
	PhaseDecumulation
	PhaseSuccess
	PhaseDepleted
)

func (p Phase) String() string {
	switch p {
	case PhaseAccumulation:
		return "accumulation"
	case PhaseDecumulation:
		return "decumulation"
	case PhaseSuccess:
		return "success"
	case PhaseDepleted:
		return "depleted"
	default:
		return "unknown"
	}
}

// MarshalText renders the phase name in JSON and YAML output
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Terminal reports whether the phase ends the scenario
func (p Phase) Terminal() bool {
	return p == PhaseSuccess || p == PhaseDepleted
}

// BucketAmounts is the runtime (float) view of the asset buckets
type BucketAmounts struct {
	TaxDeferred float64 `json:"tax_deferred"`
	TaxFree     float64 `json:"tax_free"`
	Taxable     float64 `json:"taxable"`
	Cash        float64 `json:"cash"`
	HSA         float64 `json:"hsa"`
}

// Total returns the sum of all buckets
func (b BucketAmounts) Total() float64 {
	return b.TaxDeferred + b.TaxFree + b.Taxable + b.Cash + b.HSA
}

// BucketsFromParameters converts the configured starting balances
func BucketsFromParameters(b AssetBuckets) BucketAmounts {
	return BucketAmounts{
		TaxDeferred: b.TaxDeferred.InexactFloat64(),
		TaxFree:     b.TaxFree.InexactFloat64(),
		Taxable:     b.Taxable.InexactFloat64(),
		Cash:        b.Cash.InexactFloat64(),
		HSA:         b.HSA.InexactFloat64(),
	}
}

// IncomeBreakdown is guaranteed income by source for one year
type IncomeBreakdown struct {
	SocialSecurity float64 `json:"social_security"`
	Pension        float64 `json:"pension"`
	Earned         float64 `json:"earned"`
	Annuity        float64 `json:"annuity"`
	Other          float64 `json:"other"`
}

// Total returns the sum of all income sources
func (ib IncomeBreakdown) Total() float64 {
	return ib.SocialSecurity + ib.Pension + ib.Earned + ib.Annuity + ib.Other
}

// YearlyCashFlowRecord is one simulated year. Records are append-only within a scenario.
type YearlyCashFlowRecord struct {
	YearIndex   int   `json:"year_index"`
	Year        int   `json:"year"`
	PrimaryAge  int   `json:"primary_age"`
	SpouseAge   int   `json:"spouse_age,omitempty"`
	PrimaryLive bool  `json:"primary_alive"`
	SpouseLive  bool  `json:"spouse_alive,omitempty"`
	Phase       Phase `json:"phase"`

	Income        IncomeBreakdown `json:"income"`
	Contributions BucketAmounts   `json:"contributions"`
	Withdrawals   BucketAmounts   `json:"withdrawals"`
	RMD           float64         `json:"rmd"`
	Reinvested    float64         `json:"reinvested"`
	UnspentIncome float64         `json:"unspent_income,omitempty"` // surplus after depletion, not reinvested

	PortfolioReturn     float64 `json:"portfolio_return"`
	Inflation           float64 `json:"inflation"`
	CumulativeInflation float64 `json:"cumulative_inflation"`

	Spending           float64 `json:"spending"`
	SpendingMultiplier float64 `json:"spending_multiplier"`
	Healthcare         float64 `json:"healthcare"`
	LTCCost            float64 `json:"ltc_cost"`
	LTCPremium         float64 `json:"ltc_premium"`
	LTCBenefit         float64 `json:"ltc_benefit"`
	LTCOutOfPocket     float64 `json:"ltc_out_of_pocket"`

	FederalTax      float64 `json:"federal_tax"`
	StateTax        float64 `json:"state_tax"`
	CapitalGainsTax float64 `json:"capital_gains_tax"`
	Taxes           float64 `json:"taxes"`

	Shortfall      float64       `json:"shortfall"`
	EndingBalances BucketAmounts `json:"ending_balances"`
	TotalBalance   float64       `json:"total_balance"`
}

// LTCEvent is one long-term-care episode. Costs are annual and nominal.
type LTCEvent struct {
	Owner              string  `json:"owner"`
	OnsetAge           int     `json:"onset_age"`
	OnsetYear          int     `json:"onset_year"`
	DurationYears      int     `json:"duration_years"`
	InflatedAnnualCost float64 `json:"inflated_annual_cost"`
	InsuranceOffset    float64 `json:"insurance_offset"`
}

// ScenarioResult summarises one simulated path
type ScenarioResult struct {
	Index             int                    `json:"index"`
	Seed              int64                  `json:"seed"`
	Mirrored          bool                   `json:"mirrored,omitempty"`
	StartYear         int                    `json:"start_year"`
	Success           bool                   `json:"success"`
	Terminal          Phase                  `json:"terminal"`
	EndingBalance     float64                `json:"ending_balance"`
	EndingBalanceReal float64                `json:"ending_balance_real"`
	DepletionYear     *int                   `json:"depletion_year,omitempty"`
	DepletionAge      *int                   `json:"depletion_age,omitempty"`
	MetLegacyGoal     bool                   `json:"met_legacy_goal"`
	TotalShortfall    float64                `json:"total_shortfall"`
	YearlyBalances    []float64              `json:"yearly_balances"`
	LTCEvents         []LTCEvent             `json:"ltc_events,omitempty"`
	CashFlows         []YearlyCashFlowRecord `json:"cash_flows,omitempty"`
}

// DepletedBy reports whether the scenario had depleted by the given calendar year
func (r *ScenarioResult) DepletedBy(year int) bool {
	return r.DepletionYear != nil && *r.DepletionYear <= year
}

// PercentileLadder is the 10/25/50/75/90 percentile summary of a distribution
type PercentileLadder struct {
	P10 float64 `json:"p10"`
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
}

// YearPercentiles is the balance distribution for one projection year
type YearPercentiles struct {
	YearIndex     int              `json:"year_index"`
	Year          int              `json:"year"`
	Balance       PercentileLadder `json:"balance"`
	DepletedShare float64          `json:"depleted_share"`
}

// AggregateResult is the reduction over all completed scenarios. It is never mutated after construction.
type AggregateResult struct {
	Requested          int               `json:"requested"`
	Completed          int               `json:"completed"`
	Failed             int               `json:"failed"`
	BaseSeed           int64             `json:"base_seed"`
	Antithetic         bool              `json:"antithetic"`
	SuccessProbability float64           `json:"success_probability"`
	LegacyProbability  float64           `json:"legacy_probability"`
	EndingBalance      PercentileLadder  `json:"ending_balance"`
	EndingBalanceReal  PercentileLadder  `json:"ending_balance_real"`
	Yearly             []YearPercentiles `json:"yearly"`
	LTCEventRate       float64           `json:"ltc_event_rate"`
	Scenarios          []ScenarioResult  `json:"scenarios,omitempty"`
}
