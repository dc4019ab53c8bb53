package sequencing

// IRS Uniform Lifetime Table distribution periods
var distributionPeriods = map[int]float64{
	72: 27.4, 73: 26.5, 74: 25.5, 75: 24.6, 76: 23.7, 77: 22.9, 78: 22.0,
	79: 21.1, 80: 20.2, 81: 19.4, 82: 18.5, 83: 17.7, 84: 16.8, 85: 16.0,
	86: 15.2, 87: 14.4, 88: 13.7, 89: 12.9, 90: 12.2, 91: 11.5, 92: 10.8,
	93: 10.1, 94: 9.5, 95: 8.9, 96: 8.4, 97: 7.8, 98: 7.3, 99: 6.8,
	100: 6.4,
}

// beyondTable is used for ages past the end of the table
const beyondTable = 6.0

// RMDCalculator calculates Required Minimum Distributions
type RMDCalculator struct {
	BirthYear int
}

// NewRMDCalculator creates a new RMD calculator
func NewRMDCalculator(birthYear int) *RMDCalculator {
	return &RMDCalculator{BirthYear: birthYear}
}

// RMDStartAge returns the age when RMDs start for a birth year (SECURE 2.0)
func RMDStartAge(birthYear int) int {
	switch {
	case birthYear >= 1960:
		return 75
	case birthYear >= 1951:
		return 73
	default:
		return 72
	}
}

// StartAge returns the age when RMDs start for this birth year
func (rmd *RMDCalculator) StartAge() int {
	return RMDStartAge(rmd.BirthYear)
}

// IsRMDYear reports whether a distribution is required at age
func (rmd *RMDCalculator) IsRMDYear(age int) bool {
	return age >= rmd.StartAge()
}

// CalculateRMD calculates the Required Minimum Distribution for a given age and prior year-end balance
func (rmd *RMDCalculator) CalculateRMD(taxDeferredBalance float64, age int) float64 {
	if !rmd.IsRMDYear(age) || taxDeferredBalance <= 0 {
		return 0
	}
	if period, ok := distributionPeriods[age]; ok {
		return taxDeferredBalance / period
	}
	if age > 100 {
		return taxDeferredBalance / beyondTable
	}
	return 0
}
