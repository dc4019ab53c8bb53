package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Owner identifiers used by income streams and LTC events
const (
	OwnerPrimary = "primary"
	OwnerSpouse  = "spouse"
)

// Person represents one member of the household with the information needed to project a retirement
type Person struct {
	Name           string                `yaml:"name" json:"name"`
	BirthYear      int                   `yaml:"birth_year,omitempty" json:"birth_year,omitempty"`
	CurrentAge     int                   `yaml:"current_age" json:"current_age"`
	RetirementAge  int                   `yaml:"retirement_age" json:"retirement_age"`
	LifeExpectancy int                   `yaml:"life_expectancy" json:"life_expectancy"`
	SSClaimAge     int                   `yaml:"ss_claim_age" json:"ss_claim_age"`
	SocialSecurity SocialSecurityProfile `yaml:"social_security" json:"social_security"`
}

// SocialSecurityProfile describes how a person's primary insurance amount is determined.
// An explicit PIAMonthly wins; otherwise Earnings is used; otherwise a record is
// synthesized from MonthlyEarnings between WorkStartAge and the retirement age.
type SocialSecurityProfile struct {
	PIAMonthly      decimal.Decimal `yaml:"pia_monthly,omitempty" json:"pia_monthly,omitempty"` // today's dollars
	Earnings        []EarningsYear  `yaml:"earnings,omitempty" json:"earnings,omitempty"`
	MonthlyEarnings decimal.Decimal `yaml:"monthly_earnings,omitempty" json:"monthly_earnings,omitempty"` // today's dollars
	WorkStartAge    int             `yaml:"work_start_age,omitempty" json:"work_start_age,omitempty"`
}

// EarningsYear is one year of covered (nominal) earnings
type EarningsYear struct {
	Year   int             `yaml:"year" json:"year"`
	Amount decimal.Decimal `yaml:"amount" json:"amount"`
}

// AgeIn returns the person's age in the given calendar year
func (p Person) AgeIn(startYear, year int) int {
	return p.CurrentAge + (year - startYear)
}

// AliveAt reports whether the person is still alive at the given age
func (p Person) AliveAt(age int) bool {
	return age <= p.LifeExpectancy
}

// Household is the single person or couple being simulated
type Household struct {
	Primary Person  `yaml:"primary" json:"primary"`
	Spouse  *Person `yaml:"spouse,omitempty" json:"spouse,omitempty"`
}

// IsCouple returns true when a spouse is present
func (h Household) IsCouple() bool {
	return h.Spouse != nil
}

// Members returns the household members, primary first
func (h Household) Members() []Person {
	if h.Spouse == nil {
		return []Person{h.Primary}
	}
	return []Person{h.Primary, *h.Spouse}
}

// HorizonYears returns the number of simulated years, running until the
// later of the members' life expectancies (inclusive).
func (h Household) HorizonYears() int {
	years := 0
	for _, m := range h.Members() {
		if n := m.LifeExpectancy - m.CurrentAge + 1; n > years {
			years = n
		}
	}
	return years
}

// ClaimingStrategy is a candidate set of Social Security claim ages
type ClaimingStrategy struct {
	PrimaryClaimAge int  `json:"primary_claim_age"`
	SpouseClaimAge  *int `json:"spouse_claim_age,omitempty"`
}

// String renders the strategy as "67" or "67/70"
func (cs ClaimingStrategy) String() string {
	if cs.SpouseClaimAge == nil {
		return strconv.Itoa(cs.PrimaryClaimAge)
	}
	return strconv.Itoa(cs.PrimaryClaimAge) + "/" + strconv.Itoa(*cs.SpouseClaimAge)
}
