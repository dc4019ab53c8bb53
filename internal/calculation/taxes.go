package calculation

import (
	"math"

	"github.com/rgehrsitz/rpmc/internal/domain"
)

// TAX CALCULATION ASSUMPTIONS:
//
// 1. Federal Tax Brackets: 2025 brackets indexed by the scenario's cumulative
//    inflation. Filing status is married filing jointly while both members are
//    alive and single afterwards.
//    - Standard deduction: $30,000 MFJ / $15,000 single
//    - Additional standard deduction for age 65+: $1,600 (MFJ) / $2,000 (single) per person
//
// 2. Social Security: taxable portion from provisional income with the
//    statutory (unindexed) 50%/85% thresholds.
//
// 3. Capital gains: flat rate on realised gains from the taxable bucket.
//
// 4. State: flat rate on ordinary income and realised gains; Social Security exempt.
//
// 5. FICA on earned (part-time) income per person, wage base indexed by inflation.

// FilingStatus selects brackets and deductions
type FilingStatus int

const (
	MarriedFilingJointly FilingStatus = iota
	Single
)

func (fs FilingStatus) String() string {
	if fs == Single {
		return "single"
	}
	return "mfj"
}

// TaxBracket represents a federal tax bracket
type TaxBracket struct {
	Min  float64
	Max  float64
	Rate float64
}

// FederalTaxCalculator handles federal income tax calculations
type FederalTaxCalculator struct {
	Year                    int
	StandardDeduction       float64
	StandardDeductionSingle float64
	Brackets                []TaxBracket
	BracketsSingle          []TaxBracket
	AdditionalStdDed        float64 // For age 65+, MFJ
	AdditionalStdDedSingle  float64
}

// NewFederalTaxCalculator2025 creates a new federal tax calculator for 2025
func NewFederalTaxCalculator2025() *FederalTaxCalculator {
	return &FederalTaxCalculator{
		Year:                    2025,
		StandardDeduction:       30000,
		StandardDeductionSingle: 15000,
		AdditionalStdDed:        1600,
		AdditionalStdDedSingle:  2000,
		Brackets: []TaxBracket{
			{0, 23850, 0.10},
			{23850, 96950, 0.12},
			{96950, 206700, 0.22},
			{206700, 394600, 0.24},
			{394600, 501050, 0.32},
			{501050, 751600, 0.35},
			{751600, math.Inf(1), 0.37},
		},
		BracketsSingle: []TaxBracket{
			{0, 11925, 0.10},
			{11925, 48475, 0.12},
			{48475, 103350, 0.22},
			{103350, 197300, 0.24},
			{197300, 250525, 0.32},
			{250525, 626350, 0.35},
			{626350, math.Inf(1), 0.37},
		},
	}
}

// StandardDeductionFor returns the deduction for a filing status, number of
// members aged 65+ and bracket index
func (ftc *FederalTaxCalculator) StandardDeductionFor(status FilingStatus, seniors int, index float64) float64 {
	ded, extra := ftc.StandardDeduction, ftc.AdditionalStdDed
	if status == Single {
		ded, extra = ftc.StandardDeductionSingle, ftc.AdditionalStdDedSingle
	}
	return (ded + extra*float64(seniors)) * index
}

// CalculateFederalTax calculates federal income tax on ordinary income with
// thresholds scaled by index (1.0 in the base year)
func (ftc *FederalTaxCalculator) CalculateFederalTax(grossIncome float64, status FilingStatus, seniors int, index float64) float64 {
	if index <= 0 {
		index = 1
	}
	taxableIncome := grossIncome - ftc.StandardDeductionFor(status, seniors, index)
	if taxableIncome <= 0 {
		return 0
	}

	brackets := ftc.Brackets
	if status == Single {
		brackets = ftc.BracketsSingle
	}
	totalTax := 0.0
	for _, bracket := range brackets {
		lo, hi := bracket.Min*index, bracket.Max*index
		if taxableIncome <= lo {
			break
		}
		totalTax += (math.Min(taxableIncome, hi) - lo) * bracket.Rate
	}
	return totalTax
}

// SSTaxCalculator determines the taxable portion of Social Security benefits
type SSTaxCalculator struct {
	BaseMFJ        float64
	AdjustedMFJ    float64
	BaseSingle     float64
	AdjustedSingle float64
}

// NewSSTaxCalculator creates a calculator with the statutory thresholds
func NewSSTaxCalculator() *SSTaxCalculator {
	return &SSTaxCalculator{BaseMFJ: 32000, AdjustedMFJ: 44000, BaseSingle: 25000, AdjustedSingle: 34000}
}

// CalculateProvisionalIncome is other income plus tax-exempt interest plus half of benefits
func (sc *SSTaxCalculator) CalculateProvisionalIncome(otherIncome, taxExemptInterest, ssBenefits float64) float64 {
	return otherIncome + taxExemptInterest + ssBenefits/2
}

// CalculateTaxableSocialSecurity applies the 50%/85% inclusion tiers
func (sc *SSTaxCalculator) CalculateTaxableSocialSecurity(ssBenefits, provisionalIncome float64, status FilingStatus) float64 {
	base, adjusted := sc.BaseMFJ, sc.AdjustedMFJ
	if status == Single {
		base, adjusted = sc.BaseSingle, sc.AdjustedSingle
	}
	if ssBenefits <= 0 || provisionalIncome <= base {
		return 0
	}
	if provisionalIncome <= adjusted {
		return math.Min(ssBenefits/2, (provisionalIncome-base)/2)
	}
	tier1 := math.Min(ssBenefits/2, (adjusted-base)/2)
	return math.Min(ssBenefits*0.85, (provisionalIncome-adjusted)*0.85+tier1)
}

// FICACalculator handles FICA tax calculations on earned income
type FICACalculator struct {
	SSWageBase   float64
	SSRate       float64
	MedicareRate float64
}

// NewFICACalculator2025 creates a new FICA calculator for 2025
func NewFICACalculator2025() *FICACalculator {
	return &FICACalculator{SSWageBase: 176100, SSRate: 0.062, MedicareRate: 0.0145}
}

// CalculateFICA calculates FICA on one person's wages with the wage base scaled by index
func (fc *FICACalculator) CalculateFICA(wages, index float64) float64 {
	if wages <= 0 {
		return 0
	}
	if index <= 0 {
		index = 1
	}
	return math.Min(wages, fc.SSWageBase*index)*fc.SSRate + wages*fc.MedicareRate
}

// TaxInput is one year's taxable picture for the household
type TaxInput struct {
	OrdinaryIncome float64   // pensions, taxable annuities, earned income, tax-deferred and non-medical HSA withdrawals
	SocialSecurity float64   // gross benefits
	CapitalGains   float64   // realised gains
	Wages          []float64 // earned income per person, for FICA
	Status         FilingStatus
	Seniors        int
	Index          float64 // cumulative inflation since the start year
}

// TaxBreakdown is the result of a tax computation
type TaxBreakdown struct {
	Federal        float64
	State          float64
	CapitalGains   float64
	FICA           float64
	TaxableSS      float64
	ProvisionalInc float64
}

// Total returns all taxes owed
func (tb TaxBreakdown) Total() float64 {
	return tb.Federal + tb.State + tb.CapitalGains + tb.FICA
}

// ComprehensiveTaxCalculator handles all tax calculations
type ComprehensiveTaxCalculator struct {
	FederalTaxCalc   *FederalTaxCalculator
	SSTaxCalc        *SSTaxCalculator
	FICATaxCalc      *FICACalculator
	StateRate        float64
	CapitalGainsRate float64
}

// NewComprehensiveTaxCalculator creates a calculator using the household's tax assumptions
func NewComprehensiveTaxCalculator(a domain.TaxAssumptions) *ComprehensiveTaxCalculator {
	return &ComprehensiveTaxCalculator{
		FederalTaxCalc:   NewFederalTaxCalculator2025(),
		SSTaxCalc:        NewSSTaxCalculator(),
		FICATaxCalc:      NewFICACalculator2025(),
		StateRate:        a.StateRate.InexactFloat64(),
		CapitalGainsRate: a.CapitalGainsRate.InexactFloat64(),
	}
}

// CalculateTotalTaxes calculates all applicable taxes for a year
func (ctc *ComprehensiveTaxCalculator) CalculateTotalTaxes(in TaxInput) TaxBreakdown {
	var tb TaxBreakdown
	tb.ProvisionalInc = ctc.SSTaxCalc.CalculateProvisionalIncome(in.OrdinaryIncome+in.CapitalGains, 0, in.SocialSecurity)
	tb.TaxableSS = ctc.SSTaxCalc.CalculateTaxableSocialSecurity(in.SocialSecurity, tb.ProvisionalInc, in.Status)
	tb.Federal = ctc.FederalTaxCalc.CalculateFederalTax(in.OrdinaryIncome+tb.TaxableSS, in.Status, in.Seniors, in.Index)
	if in.CapitalGains > 0 {
		tb.CapitalGains = in.CapitalGains * ctc.CapitalGainsRate
	}
	if state := in.OrdinaryIncome + math.Max(in.CapitalGains, 0); state > 0 {
		tb.State = state * ctc.StateRate
	}
	for _, w := range in.Wages {
		tb.FICA += ctc.FICATaxCalc.CalculateFICA(w, in.Index)
	}
	return tb
}
