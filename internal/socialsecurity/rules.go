// Package socialsecurity implements the deterministic Social Security benefit
// arithmetic: AIME, PIA, claim-age adjustments, spousal and survivor benefits.
package socialsecurity

import (
	"github.com/shopspring/decimal"
)

// Rules holds the program parameters for a base year. Bend points and the
// taxable wage base are escalated from BaseYear by WageGrowth.
type Rules struct {
	BaseYear        int
	BendPoint1      decimal.Decimal
	BendPoint2      decimal.Decimal
	TaxableWageBase decimal.Decimal
	WageGrowth      decimal.Decimal
}

// DefaultRules returns the 2025 program parameters
func DefaultRules() Rules {
	return Rules{
		BaseYear:        2025,
		BendPoint1:      decimal.NewFromInt(1226),
		BendPoint2:      decimal.NewFromInt(7391),
		TaxableWageBase: decimal.NewFromInt(176100),
		WageGrowth:      decimal.NewFromFloat(0.035),
	}
}

// WithWageGrowth returns a copy of the rules using a different wage growth assumption
func (r Rules) WithWageGrowth(g decimal.Decimal) Rules {
	r.WageGrowth = g
	return r
}

// PIA formula rates
var (
	rateTier1 = decimal.NewFromFloat(0.90)
	rateTier2 = decimal.NewFromFloat(0.32)
	rateTier3 = decimal.NewFromFloat(0.15)
)

// Claim adjustments are expressed in 1/3600ths so common factors are exact:
// 5/9 of 1% = 20, 5/12 of 1% = 15, 2/3 of 1% = 24, 25/36 of 1% = 25.
const (
	adjustmentDenominator = 3600
	earlyFirst36          = 20
	earlyBeyond36         = 15
	delayedCredit         = 24
	spousalFirst36        = 25
	spousalBeyond36       = earlyBeyond36
)

var (
	half           = decimal.NewFromFloat(0.5)
	one            = decimal.NewFromInt(1)
	monthsPerYear  = decimal.NewFromInt(12)
	computationDiv = decimal.NewFromInt(35 * 12)
)

const (
	computationYears = 35
	maxClaimMonths   = 70 * 12
	indexingAge      = 60
	eligibilityAge   = 62
)

// FullRetirementAgeMonths returns FRA in months for a birth year
func FullRetirementAgeMonths(birthYear int) int {
	switch {
	case birthYear <= 1937:
		return 65 * 12
	case birthYear <= 1942:
		return 65*12 + 2*(birthYear-1937)
	case birthYear <= 1954:
		return 66 * 12
	case birthYear <= 1959:
		return 66*12 + 2*(birthYear-1954)
	default:
		return 67 * 12
	}
}

// EligibilityYear is the year the worker turns 62
func EligibilityYear(birthYear int) int {
	return birthYear + eligibilityAge
}

func (r Rules) growth(fromYear, toYear int) decimal.Decimal {
	if fromYear == toYear {
		return one
	}
	return one.Add(r.WageGrowth).Pow(decimal.NewFromInt(int64(toYear - fromYear)))
}

// WageBase returns the taxable maximum for a year
func (r Rules) WageBase(year int) decimal.Decimal {
	return r.TaxableWageBase.Mul(r.growth(r.BaseYear, year)).Round(0)
}

// BendPoints returns the bend points for an eligibility year, rounded to whole dollars
func (r Rules) BendPoints(eligibilityYear int) (decimal.Decimal, decimal.Decimal) {
	g := r.growth(r.BaseYear, eligibilityYear)
	return r.BendPoint1.Mul(g).Round(0), r.BendPoint2.Mul(g).Round(0)
}
