package calculation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFederalTaxCalculator2025(t *testing.T) {
	ftc := NewFederalTaxCalculator2025()

	tests := []struct {
		name    string
		gross   float64
		status  FilingStatus
		seniors int
		index   float64
		want    float64
	}{
		{"below deduction", 14000, Single, 0, 1, 0},
		{"top of single 10% bracket", 15000 + 11925, Single, 0, 1, 1192.5},
		{"top of single 12% bracket", 15000 + 48475, Single, 0, 1, 1192.5 + (48475-11925)*0.12},
		{"top of joint 10% bracket", 30000 + 23850, MarriedFilingJointly, 0, 1, 2385},
		{"joint seniors", 30000 + 2*1600 + 23850, MarriedFilingJointly, 2, 1, 2385},
		{"single senior", 15000 + 2000 + 11925, Single, 1, 1, 1192.5},
		{"indexed thresholds", 2 * (15000 + 11925), Single, 0, 2, 2385},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ftc.CalculateFederalTax(tt.gross, tt.status, tt.seniors, tt.index), 1e-6)
		})
	}
}

func TestSSTaxCalculator_Tiers(t *testing.T) {
	sc := NewSSTaxCalculator()
	assert.Zero(t, sc.CalculateTaxableSocialSecurity(30000, 25000, Single))
	assert.InDelta(t, 2500.0, sc.CalculateTaxableSocialSecurity(30000, 30000, Single), 1e-9)
	assert.InDelta(t, 30000*0.85, sc.CalculateTaxableSocialSecurity(30000, 200000, Single), 1e-9)
}
