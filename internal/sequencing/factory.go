package sequencing

import (
	"github.com/rgehrsitz/rpmc/internal/domain"
)

// CreateStrategy creates a sequencing strategy based on the configuration
func CreateStrategy(config domain.WithdrawalConfig) SequencingStrategy {
	switch config.Sequence {
	case domain.SequenceCustom:
		return NewCustomStrategy(config.CustomSequence)
	default:
		return NewStandardStrategy()
	}
}

// CreateSpendingPolicy creates a fresh spending policy for one scenario
func CreateSpendingPolicy(config domain.WithdrawalConfig) SpendingPolicy {
	if config.Policy != domain.PolicyGuardrails {
		return FixedPolicy{}
	}
	g := config.Guardrails
	return NewGuardrailsPolicy(GuardrailsConfig{
		UpperBand:  g.UpperBand.InexactFloat64(),
		LowerBand:  g.LowerBand.InexactFloat64(),
		Adjustment: g.Adjustment.InexactFloat64(),
		MaxCut:     g.MaxCut.InexactFloat64(),
		MaxRaise:   g.MaxRaise.InexactFloat64(),
	})
}

// CreateWithdrawalSources creates the source list from the current balances.
// Empty buckets are skipped.
func CreateWithdrawalSources(b domain.BucketAmounts, taxableBasis, pendingRMD float64) []WithdrawalSource {
	sources := []WithdrawalSource{}

	if b.Cash > 0 {
		sources = append(sources, WithdrawalSource{Name: SourceCash, Balance: b.Cash, TaxTreatment: TaxFree})
	}
	if b.Taxable > 0 {
		sources = append(sources, WithdrawalSource{
			Name:         SourceTaxable,
			Balance:      b.Taxable,
			Basis:        taxableBasis,
			TaxTreatment: CapitalGains,
		})
	}
	if b.TaxDeferred > 0 {
		sources = append(sources, WithdrawalSource{
			Name:         SourceTaxDeferred,
			Balance:      b.TaxDeferred,
			TaxTreatment: OrdinaryIncome,
			PendingRMD:   pendingRMD,
		})
	}
	if b.TaxFree > 0 {
		sources = append(sources, WithdrawalSource{Name: SourceTaxFree, Balance: b.TaxFree, TaxTreatment: TaxFree})
	}
	// non-medical HSA withdrawals are ordinary income
	if b.HSA > 0 {
		sources = append(sources, WithdrawalSource{Name: SourceHSA, Balance: b.HSA, TaxTreatment: OrdinaryIncome})
	}

	return sources
}

// ApplyPlan subtracts a plan's withdrawals from the balances and returns the
// new balances, the remaining taxable basis and the per-bucket withdrawals.
func ApplyPlan(b domain.BucketAmounts, taxableBasis float64, plan WithdrawalPlan) (domain.BucketAmounts, float64, domain.BucketAmounts) {
	w := domain.BucketAmounts{
		Cash:        plan.Withdrawn(SourceCash),
		Taxable:     plan.Withdrawn(SourceTaxable),
		TaxDeferred: plan.Withdrawn(SourceTaxDeferred),
		TaxFree:     plan.Withdrawn(SourceTaxFree),
		HSA:         plan.Withdrawn(SourceHSA),
	}
	b.Cash = nonNegative(b.Cash - w.Cash)
	b.Taxable = nonNegative(b.Taxable - w.Taxable)
	b.TaxDeferred = nonNegative(b.TaxDeferred - w.TaxDeferred)
	b.TaxFree = nonNegative(b.TaxFree - w.TaxFree)
	b.HSA = nonNegative(b.HSA - w.HSA)
	return b, nonNegative(taxableBasis - plan.BasisRecovered()), w
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
