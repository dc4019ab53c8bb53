package sequencing

// standardOrder spends liquid and gains-taxed money first and preserves the
// tax-free buckets for last.
var standardOrder = []string{SourceCash, SourceTaxable, SourceTaxDeferred, SourceTaxFree, SourceHSA}

// StandardStrategy: RMD -> HSA (medical) -> cash -> taxable -> tax-deferred -> tax-free -> HSA
type StandardStrategy struct{}

func NewStandardStrategy() *StandardStrategy { return &StandardStrategy{} }

func (s *StandardStrategy) Name() string { return "standard" }

func (s *StandardStrategy) Plan(sources []WithdrawalSource, ctx StrategyContext) WithdrawalPlan {
	return planInOrder(s.Name(), standardOrder, sources, ctx)
}

// planInOrder runs the shared sequencing steps: forced RMD, qualified HSA
// spending, then the given bucket order until the need is met.
func planInOrder(name string, order []string, sources []WithdrawalSource, ctx StrategyContext) WithdrawalPlan {
	plan := WithdrawalPlan{Requested: ctx.NeedAmount, StrategyUsed: name, Allocations: []WithdrawalAllocation{}, RMDSatisfied: true}
	pool := newPool(sources)
	remaining := ctx.NeedAmount

	// RMDs are forced regardless of need
	if src := pool[SourceTaxDeferred]; src != nil && src.PendingRMD > 0 {
		rmd := src.PendingRMD
		if rmd > src.Balance {
			rmd = src.Balance
		}
		if rmd < src.PendingRMD {
			plan.RMDSatisfied = false
		}
		alloc := take(&plan, src, rmd, OrdinaryIncome)
		if alloc > 0 {
			plan.Allocations[len(plan.Allocations)-1].RMD = true
		}
		plan.RMDWithdrawn = alloc
		remaining -= alloc
		if remaining < 0 {
			plan.Excess = -remaining
			remaining = 0
		}
	}

	if src := pool[SourceHSA]; src != nil && ctx.MedicalAmount > 0 && remaining > 0 {
		amount := ctx.MedicalAmount
		if amount > remaining {
			amount = remaining
		}
		remaining -= take(&plan, src, amount, TaxFree)
	}

	for _, bucket := range order {
		if remaining <= 0 {
			break
		}
		src := pool[bucket]
		if src == nil || src.Balance <= 0 {
			continue
		}
		remaining -= take(&plan, src, remaining, src.TaxTreatment)
	}

	plan.RemainingNeed = remaining
	if remaining > 0 {
		plan.Notes = append(plan.Notes, "insufficient balances to meet request")
	}
	return plan
}

func newPool(sources []WithdrawalSource) map[string]*WithdrawalSource {
	pool := make(map[string]*WithdrawalSource, len(sources))
	for i := range sources {
		src := sources[i]
		pool[src.Name] = &src
	}
	return pool
}

// take withdraws up to amount from src, records the allocation and returns the gross taken.
// src is a working copy; its balance and basis are reduced.
func take(plan *WithdrawalPlan, src *WithdrawalSource, amount float64, treatment TaxTreatment) float64 {
	withdraw := amount
	if withdraw > src.Balance {
		withdraw = src.Balance
	}
	if withdraw <= 0 {
		return 0
	}

	alloc := WithdrawalAllocation{Source: src.Name, Gross: withdraw}
	switch treatment {
	case OrdinaryIncome:
		alloc.OrdinaryPortion = withdraw
	case TaxFree:
		alloc.TaxFreePortion = withdraw
	case CapitalGains:
		// Approximate gain portion = (Balance - Basis)/Balance * withdraw
		unrealized := src.Balance - src.Basis
		if unrealized < 0 {
			unrealized = 0
		}
		gain := withdraw * unrealized / src.Balance
		alloc.CapitalGainsPortion = gain
		alloc.TaxFreePortion = withdraw - gain
		src.Basis -= alloc.TaxFreePortion
		if src.Basis < 0 {
			src.Basis = 0
		}
	}
	src.Balance -= withdraw

	plan.Allocations = append(plan.Allocations, alloc)
	plan.TotalSourced += withdraw
	plan.OrdinaryIncome += alloc.OrdinaryPortion
	plan.CapitalGains += alloc.CapitalGainsPortion
	return withdraw
}
