package socialsecurity

import (
	"sort"

	"github.com/rgehrsitz/rpmc/internal/domain"
	"github.com/shopspring/decimal"
)

// Calculator performs benefit arithmetic under a fixed set of rules. All
// methods are pure.
type Calculator struct {
	Rules Rules
}

// NewCalculator creates a calculator for the given rules
func NewCalculator(rules Rules) *Calculator {
	return &Calculator{Rules: rules}
}

// NewDefaultCalculator creates a calculator with the 2025 rules
func NewDefaultCalculator() *Calculator {
	return NewCalculator(DefaultRules())
}

// AIME computes average indexed monthly earnings. Earnings before the year
// the worker turns 60 are indexed to that year; each year is capped at the
// taxable wage base; the highest 35 years count and missing years are zero.
func (c *Calculator) AIME(earnings []domain.EarningsYear, birthYear int) decimal.Decimal {
	indexYear := birthYear + indexingAge
	indexed := make([]decimal.Decimal, 0, len(earnings))
	for _, e := range earnings {
		if !e.Amount.IsPositive() {
			continue
		}
		amount := decimal.Min(e.Amount, c.Rules.WageBase(e.Year))
		if e.Year < indexYear {
			amount = amount.Mul(c.Rules.growth(e.Year, indexYear))
		}
		indexed = append(indexed, amount)
	}

	sort.Slice(indexed, func(i, j int) bool { return indexed[i].GreaterThan(indexed[j]) })
	if len(indexed) > computationYears {
		indexed = indexed[:computationYears]
	}

	total := decimal.Zero
	for _, v := range indexed {
		total = total.Add(v)
	}
	return total.Div(computationDiv).Floor()
}

// PIA applies the three-tier bend-point formula for an eligibility year and
// floors the result to whole dollars.
func (c *Calculator) PIA(aime decimal.Decimal, eligibilityYear int) decimal.Decimal {
	if !aime.IsPositive() {
		return decimal.Zero
	}
	bp1, bp2 := c.Rules.BendPoints(eligibilityYear)

	pia := decimal.Min(aime, bp1).Mul(rateTier1)
	if aime.GreaterThan(bp1) {
		pia = pia.Add(decimal.Min(aime, bp2).Sub(bp1).Mul(rateTier2))
	}
	if aime.GreaterThan(bp2) {
		pia = pia.Add(aime.Sub(bp2).Mul(rateTier3))
	}
	return pia.Floor()
}

// ClaimAdjustment returns the factor applied to PIA when claiming at claimAgeMonths
func (c *Calculator) ClaimAdjustment(birthYear, claimAgeMonths int) decimal.Decimal {
	fra := FullRetirementAgeMonths(birthYear)
	if claimAgeMonths < fra {
		first, beyond := splitEarlyMonths(fra - claimAgeMonths)
		return adjustment(-earlyFirst36*first - earlyBeyond36*beyond)
	}
	if claimAgeMonths > maxClaimMonths {
		claimAgeMonths = maxClaimMonths
	}
	return adjustment(delayedCredit * (claimAgeMonths - fra))
}

// BenefitAtClaimAge returns the monthly benefit (floored) for claiming at claimAgeMonths
func (c *Calculator) BenefitAtClaimAge(pia decimal.Decimal, birthYear, claimAgeMonths int) decimal.Decimal {
	return pia.Mul(c.ClaimAdjustment(birthYear, claimAgeMonths)).Floor()
}

// SpousalBenefit returns the spousal top-up: 50% of the worker's PIA less the
// spouse's own PIA, reduced if claimed before FRA. There are no delayed credits.
func (c *Calculator) SpousalBenefit(workerPIA, ownPIA decimal.Decimal, spouseBirthYear, claimAgeMonths int) decimal.Decimal {
	base := workerPIA.Mul(half).Sub(ownPIA)
	if !base.IsPositive() {
		return decimal.Zero
	}
	fra := FullRetirementAgeMonths(spouseBirthYear)
	if claimAgeMonths < fra {
		first, beyond := splitEarlyMonths(fra - claimAgeMonths)
		base = base.Mul(adjustment(-spousalFirst36*first - spousalBeyond36*beyond))
	}
	return base.Floor()
}

// SurvivorBenefit returns the larger of the deceased's benefit and the survivor's own
func SurvivorBenefit(deceasedBenefit, ownBenefit decimal.Decimal) decimal.Decimal {
	return decimal.Max(deceasedBenefit, ownBenefit)
}

// ApplyCOLA compounds a benefit by rate for the given number of elapsed years
func ApplyCOLA(benefit, rate decimal.Decimal, years int) decimal.Decimal {
	if years <= 0 {
		return benefit
	}
	return benefit.Mul(one.Add(rate).Pow(decimal.NewFromInt(int64(years))))
}

// SynthesizeEarnings builds a nominal earnings record from monthly earnings
// expressed in startYear dollars, assuming pay tracks wage growth.
func (c *Calculator) SynthesizeEarnings(monthly decimal.Decimal, birthYear, workStartAge, retirementAge, startYear int) []domain.EarningsYear {
	if !monthly.IsPositive() || retirementAge <= workStartAge {
		return nil
	}
	annual := monthly.Mul(monthsPerYear)
	records := make([]domain.EarningsYear, 0, retirementAge-workStartAge)
	for age := workStartAge; age < retirementAge; age++ {
		year := birthYear + age
		records = append(records, domain.EarningsYear{
			Year:   year,
			Amount: annual.Mul(c.Rules.growth(startYear, year)).Round(2),
		})
	}
	return records
}

// TodayDollars deflates a PIA computed at the eligibility year's wage level back to startYear dollars
func (c *Calculator) TodayDollars(pia decimal.Decimal, eligibilityYear, startYear int) decimal.Decimal {
	return pia.Div(c.Rules.growth(startYear, eligibilityYear)).Round(2)
}

// ResolvePIA returns the person's monthly PIA in startYear dollars
func (c *Calculator) ResolvePIA(p domain.Person, startYear int) decimal.Decimal {
	ss := p.SocialSecurity
	if ss.PIAMonthly.IsPositive() {
		return ss.PIAMonthly
	}
	earnings := ss.Earnings
	if len(earnings) == 0 {
		earnings = c.SynthesizeEarnings(ss.MonthlyEarnings, p.BirthYear, ss.WorkStartAge, p.RetirementAge, startYear)
	}
	if len(earnings) == 0 {
		return decimal.Zero
	}
	elig := EligibilityYear(p.BirthYear)
	pia := c.PIA(c.AIME(earnings, p.BirthYear), elig)
	return c.TodayDollars(pia, elig, startYear)
}

// ClaimBenefit is the resolved monthly benefit of a person at their configured claim age
type ClaimBenefit struct {
	PIA     decimal.Decimal
	Monthly decimal.Decimal
	Factor  decimal.Decimal
}

// BenefitFor resolves a person's PIA and their claim-age adjusted monthly benefit
func (c *Calculator) BenefitFor(p domain.Person, startYear int) ClaimBenefit {
	pia := c.ResolvePIA(p, startYear)
	months := p.SSClaimAge * 12
	return ClaimBenefit{
		PIA:     pia,
		Monthly: c.BenefitAtClaimAge(pia, p.BirthYear, months),
		Factor:  c.ClaimAdjustment(p.BirthYear, months),
	}
}

func splitEarlyMonths(early int) (int, int) {
	first := early
	if first > 36 {
		first = 36
	}
	return first, early - first
}

// adjustment converts a change in 1/3600ths into a multiplicative factor
func adjustment(delta int) decimal.Decimal {
	return decimal.NewFromInt(int64(adjustmentDenominator + delta)).Div(decimal.NewFromInt(adjustmentDenominator))
}
