package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Claim age bounds accepted by the Social Security rules
const (
	MinClaimAge = 62
	MaxClaimAge = 70
)

var (
	one           = decimal.NewFromInt(1)
	sumTolerance  = decimal.NewFromFloat(0.000001)
	minStudentTDF = decimal.NewFromFloat(2.1)
)

// Validate checks the parameters and returns the first *InvalidParameterError found.
// Callers normally validate the result of WithDefaults.
func (p SimulationParameters) Validate() error {
	if p.StartYear <= 0 {
		return invalid("start_year", "must be positive, got %d", p.StartYear)
	}
	if err := validatePerson("household.primary", p.Household.Primary); err != nil {
		return err
	}
	if p.Household.Spouse != nil {
		if err := validatePerson("household.spouse", *p.Household.Spouse); err != nil {
			return err
		}
	}
	if err := validateBuckets(p.Buckets); err != nil {
		return err
	}
	if err := validateReturns(p.Returns); err != nil {
		return err
	}
	if err := validateExpenses(p.Expenses); err != nil {
		return err
	}
	for i, s := range p.Income {
		if err := validateIncome(fmt.Sprintf("income[%d]", i), s, p.Household.IsCouple()); err != nil {
			return err
		}
	}
	if err := validateContributions(p.Contributions); err != nil {
		return err
	}
	if p.LTC.Enabled {
		if err := validateLTC(p.LTC); err != nil {
			return err
		}
	}
	if err := validateWithdrawal(p.Withdrawal); err != nil {
		return err
	}
	if !isRate(p.Tax.StateRate) {
		return invalid("tax.state_rate", "must be between 0 and 1")
	}
	if !isRate(p.Tax.CapitalGainsRate) {
		return invalid("tax.capital_gains_rate", "must be between 0 and 1")
	}
	if p.LegacyGoal.IsNegative() {
		return invalid("legacy_goal", "cannot be negative")
	}
	return nil
}

// ValidateClaimAge checks a claim age against the 62..70 window
func ValidateClaimAge(field string, age int) error {
	if age < MinClaimAge || age > MaxClaimAge {
		return invalid(field, "claim age must be between %d and %d, got %d", MinClaimAge, MaxClaimAge, age)
	}
	return nil
}

func validatePerson(field string, p Person) error {
	if p.CurrentAge <= 0 {
		return invalid(field+".current_age", "must be positive")
	}
	if p.LifeExpectancy < p.CurrentAge {
		return invalid(field+".life_expectancy", "life expectancy %d is before current age %d", p.LifeExpectancy, p.CurrentAge)
	}
	if p.RetirementAge < 0 {
		return invalid(field+".retirement_age", "cannot be negative")
	}
	if err := ValidateClaimAge(field+".ss_claim_age", p.SSClaimAge); err != nil {
		return err
	}
	ss := p.SocialSecurity
	if ss.PIAMonthly.IsNegative() {
		return invalid(field+".social_security.pia_monthly", "cannot be negative")
	}
	if ss.MonthlyEarnings.IsNegative() {
		return invalid(field+".social_security.monthly_earnings", "cannot be negative")
	}
	for i, e := range ss.Earnings {
		if e.Amount.IsNegative() {
			return invalid(fmt.Sprintf("%s.social_security.earnings[%d]", field, i), "cannot be negative")
		}
	}
	return nil
}

func validateBuckets(b AssetBuckets) error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"buckets.tax_deferred", b.TaxDeferred},
		{"buckets.tax_free", b.TaxFree},
		{"buckets.taxable", b.Taxable},
		{"buckets.taxable_basis", b.TaxableBasis},
		{"buckets.cash", b.Cash},
		{"buckets.hsa", b.HSA},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return invalid(f.name, "balance cannot be negative, got %s", f.value.String())
		}
	}
	return nil
}

func validateReturns(r ReturnAssumptions) error {
	switch r.Distribution {
	case DistributionNormal, DistributionMerton:
	case DistributionStudentT:
		if r.DegreesOfFreedom.LessThanOrEqual(minStudentTDF) {
			return invalid("returns.degrees_of_freedom", "must be greater than 2.1 for a finite, stable variance")
		}
	default:
		return invalid("returns.distribution", "unknown distribution %q", r.Distribution)
	}
	if len(r.AssetClasses) == 0 {
		return invalid("returns.asset_classes", "at least one asset class is required")
	}
	total := decimal.Zero
	for i, c := range r.AssetClasses {
		field := fmt.Sprintf("returns.asset_classes[%d]", i)
		if c.Weight.IsNegative() {
			return invalid(field+".weight", "cannot be negative")
		}
		if c.StdDev.IsNegative() {
			return invalid(field+".stddev", "cannot be negative")
		}
		if c.Mean.LessThanOrEqual(one.Neg()) {
			return invalid(field+".mean", "must be greater than -100%%")
		}
		total = total.Add(c.Weight)
	}
	if total.Sub(one).Abs().GreaterThan(sumTolerance) {
		return invalid("returns.asset_classes", "allocation weights must sum to 1, got %s", total.String())
	}
	if r.Distribution == DistributionMerton {
		if !isRate(r.JumpProbability) {
			return invalid("returns.jump_probability", "must be between 0 and 1")
		}
		if r.JumpStd.IsNegative() {
			return invalid("returns.jump_std", "cannot be negative")
		}
	}
	if r.InflationStdDev.IsNegative() {
		return invalid("returns.inflation_stddev", "cannot be negative")
	}
	if r.FixedCOLA != nil && r.FixedCOLA.IsNegative() {
		return invalid("returns.fixed_cola", "cannot be negative")
	}
	return nil
}

func validateExpenses(e ExpenseSchedule) error {
	if e.AnnualSpending.IsNegative() {
		return invalid("expenses.annual_spending", "cannot be negative")
	}
	if !isRate(e.EssentialShare) {
		return invalid("expenses.essential_share", "must be between 0 and 1")
	}
	for i, ph := range e.Phases {
		if ph.Multiplier.IsNegative() {
			return invalid(fmt.Sprintf("expenses.phases[%d].multiplier", i), "cannot be negative")
		}
	}
	if e.HealthcareAnnual.IsNegative() {
		return invalid("expenses.healthcare_annual", "cannot be negative")
	}
	if !e.SurvivorRatio.IsPositive() || e.SurvivorRatio.GreaterThan(one) {
		return invalid("expenses.survivor_ratio", "must be in (0, 1]")
	}
	return nil
}

func validateIncome(field string, s IncomeStream, couple bool) error {
	switch s.Owner {
	case OwnerPrimary:
	case OwnerSpouse:
		if !couple {
			return invalid(field+".owner", "spouse-owned income requires a spouse")
		}
	default:
		return invalid(field+".owner", "unknown owner %q", s.Owner)
	}
	switch s.Kind {
	case IncomePension, IncomePartTime, IncomeAnnuity, IncomeOther:
	default:
		return invalid(field+".kind", "unknown kind %q", s.Kind)
	}
	if s.AnnualAmount.IsNegative() {
		return invalid(field+".annual_amount", "cannot be negative")
	}
	if s.EndAge != 0 && s.EndAge < s.StartAge {
		return invalid(field+".end_age", "cannot be before start age")
	}
	if !isRate(s.SurvivorPercent) {
		return invalid(field+".survivor_percent", "must be between 0 and 1")
	}
	return nil
}

func validateContributions(c ContributionPlan) error {
	if c.AnnualAmount.IsNegative() {
		return invalid("contributions.annual_amount", "cannot be negative")
	}
	shares := []decimal.Decimal{c.TaxDeferredShare, c.TaxFreeShare, c.TaxableShare, c.CashShare, c.HSAShare}
	total := decimal.Zero
	for _, s := range shares {
		if s.IsNegative() {
			return invalid("contributions", "shares cannot be negative")
		}
		total = total.Add(s)
	}
	if c.AnnualAmount.IsPositive() && total.Sub(one).Abs().GreaterThan(sumTolerance) {
		return invalid("contributions", "account shares must sum to 1, got %s", total.String())
	}
	return nil
}

func validateLTC(l LTCAssumptions) error {
	for i, b := range l.Bands {
		if !isRate(b.Probability) {
			return invalid(fmt.Sprintf("ltc.bands[%d].probability", i), "must be between 0 and 1")
		}
	}
	total := decimal.Zero
	for _, w := range l.DurationWeights {
		if w.IsNegative() {
			return invalid("ltc.duration_weights", "cannot be negative")
		}
		total = total.Add(w)
	}
	if !total.IsPositive() {
		return invalid("ltc.duration_weights", "must have a positive sum")
	}
	if l.AnnualCost.IsNegative() || l.CostStdDev.IsNegative() {
		return invalid("ltc.annual_cost", "cost and its deviation cannot be negative")
	}
	if l.Insured {
		pol := l.Policy
		if pol.DailyBenefit.IsNegative() || pol.AnnualPremium.IsNegative() {
			return invalid("ltc.policy", "benefit and premium cannot be negative")
		}
		if pol.EliminationDays < 0 || pol.EliminationDays > 365 {
			return invalid("ltc.policy.elimination_days", "must be between 0 and 365")
		}
		if pol.BenefitPeriodYears <= 0 {
			return invalid("ltc.policy.benefit_period_years", "must be positive")
		}
	}
	return nil
}

func validateWithdrawal(w WithdrawalConfig) error {
	switch w.Sequence {
	case SequenceStandard, SequenceCustom:
	default:
		return invalid("withdrawal.sequence", "unknown sequence %q", w.Sequence)
	}
	switch w.Policy {
	case PolicyFixed:
	case PolicyGuardrails:
		g := w.Guardrails
		for _, v := range []decimal.Decimal{g.UpperBand, g.LowerBand, g.Adjustment, g.MaxCut} {
			if !isRate(v) {
				return invalid("withdrawal.guardrails", "bands, adjustment and max cut must be between 0 and 1")
			}
		}
		if g.MaxRaise.IsNegative() {
			return invalid("withdrawal.guardrails.max_raise", "cannot be negative")
		}
	default:
		return invalid("withdrawal.policy", "unknown policy %q", w.Policy)
	}
	return nil
}

func isRate(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(one)
}
