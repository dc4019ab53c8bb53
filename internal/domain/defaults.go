package domain

import (
	"github.com/shopspring/decimal"
)

// Default assumptions applied to omitted fields
const (
	DefaultStartYear       = 2025
	DefaultClaimAge        = 67
	DefaultWorkStartAge    = 22
	DefaultLTCThresholdAge = 75
	DefaultStudentTDF      = 5
)

var (
	DefaultWageGrowth          = decimal.NewFromFloat(0.035)
	DefaultSurvivorRatio       = decimal.NewFromFloat(0.7)
	DefaultHealthcareInflation = decimal.NewFromFloat(0.05)
	DefaultCapitalGainsRate    = decimal.NewFromFloat(0.15)
)

// DefaultLTCBands returns the age-banded annual onset probabilities used when none are configured
func DefaultLTCBands() []LTCProbabilityBand {
	return []LTCProbabilityBand{
		{FromAge: 75, Probability: decimal.NewFromFloat(0.015)},
		{FromAge: 80, Probability: decimal.NewFromFloat(0.03)},
		{FromAge: 85, Probability: decimal.NewFromFloat(0.06)},
		{FromAge: 90, Probability: decimal.NewFromFloat(0.10)},
	}
}

// DefaultLTCDurationWeights returns relative weights for care lasting 1..5 years
func DefaultLTCDurationWeights() []decimal.Decimal {
	return []decimal.Decimal{
		decimal.NewFromFloat(0.35),
		decimal.NewFromFloat(0.25),
		decimal.NewFromFloat(0.20),
		decimal.NewFromFloat(0.12),
		decimal.NewFromFloat(0.08),
	}
}

// WithDefaults returns a copy with omitted assumptions filled in. The receiver is not modified.
func (p SimulationParameters) WithDefaults() SimulationParameters {
	out := p
	if out.StartYear == 0 {
		out.StartYear = DefaultStartYear
	}

	out.Household.Primary = personDefaults(out.Household.Primary, out.StartYear)
	if p.Household.Spouse != nil {
		spouse := personDefaults(*p.Household.Spouse, out.StartYear)
		out.Household.Spouse = &spouse
	}

	r := &out.Returns
	if r.Distribution == "" {
		r.Distribution = DistributionNormal
	}
	if r.Distribution == DistributionStudentT && r.DegreesOfFreedom.IsZero() {
		r.DegreesOfFreedom = decimal.NewFromInt(DefaultStudentTDF)
	}
	if r.WageGrowth.IsZero() {
		r.WageGrowth = DefaultWageGrowth
	}

	e := &out.Expenses
	if e.SurvivorRatio.IsZero() {
		e.SurvivorRatio = DefaultSurvivorRatio
	}
	if e.HealthcareAnnual.IsPositive() && e.HealthcareInflation.IsZero() {
		e.HealthcareInflation = DefaultHealthcareInflation
	}

	if len(p.Income) > 0 {
		out.Income = make([]IncomeStream, len(p.Income))
		for i, s := range p.Income {
			if s.Owner == "" {
				s.Owner = OwnerPrimary
			}
			if s.Kind == "" {
				s.Kind = IncomeOther
			}
			out.Income[i] = s
		}
	}

	l := &out.LTC
	if l.Enabled {
		if l.ThresholdAge == 0 {
			l.ThresholdAge = DefaultLTCThresholdAge
		}
		if len(l.Bands) == 0 {
			l.Bands = DefaultLTCBands()
		}
		if len(l.DurationWeights) == 0 {
			l.DurationWeights = DefaultLTCDurationWeights()
		}
		if l.AnnualCost.IsZero() {
			l.AnnualCost = decimal.NewFromInt(100000)
		}
		if l.CostInflation.IsZero() {
			l.CostInflation = decimal.NewFromFloat(0.04)
		}
		if l.Insured {
			if l.Policy.BenefitPeriodYears == 0 {
				l.Policy.BenefitPeriodYears = 3
			}
		}
	}

	w := &out.Withdrawal
	if w.Sequence == "" {
		w.Sequence = SequenceStandard
	}
	if w.Policy == "" {
		w.Policy = PolicyFixed
	}
	if w.Policy == PolicyGuardrails {
		g := &w.Guardrails
		if g.UpperBand.IsZero() {
			g.UpperBand = decimal.NewFromFloat(0.20)
		}
		if g.LowerBand.IsZero() {
			g.LowerBand = decimal.NewFromFloat(0.20)
		}
		if g.Adjustment.IsZero() {
			g.Adjustment = decimal.NewFromFloat(0.10)
		}
		if g.MaxCut.IsZero() {
			g.MaxCut = decimal.NewFromFloat(0.25)
		}
		if g.MaxRaise.IsZero() {
			g.MaxRaise = decimal.NewFromFloat(0.25)
		}
	}

	if out.Tax.CapitalGainsRate.IsZero() {
		out.Tax.CapitalGainsRate = DefaultCapitalGainsRate
	}
	if out.Buckets.TaxableBasis.IsZero() {
		out.Buckets.TaxableBasis = out.Buckets.Taxable
	}
	return out
}

func personDefaults(p Person, startYear int) Person {
	if p.BirthYear == 0 {
		p.BirthYear = startYear - p.CurrentAge
	}
	if p.SSClaimAge == 0 {
		p.SSClaimAge = DefaultClaimAge
	}
	if p.SocialSecurity.WorkStartAge == 0 {
		p.SocialSecurity.WorkStartAge = DefaultWorkStartAge
	}
	return p
}
