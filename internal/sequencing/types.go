// Package sequencing decides which buckets fund a year's withdrawal need and
// how much discretionary spending the household allows itself.
package sequencing

// Source names, one per asset bucket
const (
	SourceCash        = "cash"
	SourceTaxable     = "taxable"
	SourceTaxDeferred = "tax_deferred"
	SourceTaxFree     = "tax_free"
	SourceHSA         = "hsa"
)

// TaxTreatment represents tax characteristics of a withdrawal source
// Ordinary: fully taxable as ordinary income (tax-deferred, non-medical HSA)
// TaxFree: no current year tax impact (Roth, cash, qualified HSA)
// CapitalGains: only gains portion taxed (approx via basis tracking)
type TaxTreatment int

const (
	TaxFree TaxTreatment = iota
	OrdinaryIncome
	CapitalGains
)

func (tt TaxTreatment) String() string {
	switch tt {
	case TaxFree:
		return "tax_free"
	case OrdinaryIncome:
		return "ordinary"
	case CapitalGains:
		return "capital_gains"
	default:
		return "unknown"
	}
}

// WithdrawalSource represents an available pool for withdrawals
// Name: bucket identifier (cash | taxable | tax_deferred | tax_free | hsa)
// Balance: current available balance
// Basis: for the taxable bucket to approximate gains (zero for others)
// TaxTreatment: how ordinary withdrawals impact taxes
// PendingRMD: amount that must be withdrawn before other logic (set per year)
type WithdrawalSource struct {
	Name         string
	Balance      float64
	Basis        float64
	TaxTreatment TaxTreatment
	PendingRMD   float64
}

// WithdrawalAllocation captures an actual withdrawal from a source and its tax decomposition.
// A source can appear more than once (RMD then discretionary, qualified then non-qualified HSA).
type WithdrawalAllocation struct {
	Source              string
	Gross               float64
	OrdinaryPortion     float64
	CapitalGainsPortion float64
	TaxFreePortion      float64
	RMD                 bool
}

// WithdrawalPlan aggregates the full plan for meeting a target amount
// RemainingNeed: unmet portion if balances are insufficient
// Excess: RMD dollars beyond the request, to be reinvested by the caller
type WithdrawalPlan struct {
	Requested      float64
	Allocations    []WithdrawalAllocation
	TotalSourced   float64
	RemainingNeed  float64
	Excess         float64
	OrdinaryIncome float64
	CapitalGains   float64
	RMDWithdrawn   float64
	RMDSatisfied   bool
	Notes          []string
	StrategyUsed   string
}

// Withdrawn returns the gross amount taken from one bucket across all allocations
func (p WithdrawalPlan) Withdrawn(source string) float64 {
	total := 0.0
	for _, a := range p.Allocations {
		if a.Source == source {
			total += a.Gross
		}
	}
	return total
}

// BasisRecovered returns the taxable-bucket basis consumed by the plan
func (p WithdrawalPlan) BasisRecovered() float64 {
	total := 0.0
	for _, a := range p.Allocations {
		if a.Source == SourceTaxable {
			total += a.TaxFreePortion
		}
	}
	return total
}

// StrategyContext provides inputs required by sequencing strategies
// NeedAmount: amount the strategy should attempt to source
// MedicalAmount: portion of the need that is qualifying medical or LTC spend (HSA eligible)
type StrategyContext struct {
	NeedAmount    float64
	MedicalAmount float64
}

// SequencingStrategy defines interface for all withdrawal sequencing algorithms
type SequencingStrategy interface {
	Name() string
	Plan(sources []WithdrawalSource, ctx StrategyContext) WithdrawalPlan
}
