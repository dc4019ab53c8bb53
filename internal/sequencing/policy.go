package sequencing

import (
	"github.com/rgehrsitz/rpmc/internal/domain"
)

// PolicyInput is the year's spending picture seen by a spending policy, in nominal dollars
type PolicyInput struct {
	Essential     float64 // spending not subject to cuts, incl. healthcare and LTC
	Discretionary float64 // discretionary spending before any policy multiplier
	Income        float64 // guaranteed income available before withdrawals
	Portfolio     float64 // start-of-year portfolio balance
}

func (in PolicyInput) rate(multiplier float64) float64 {
	if in.Portfolio <= 0 {
		return 0
	}
	withdrawal := in.Essential + in.Discretionary*multiplier - in.Income
	if withdrawal < 0 {
		return 0
	}
	return withdrawal / in.Portfolio
}

// SpendingPolicy returns the multiplier applied to discretionary spending each
// decumulation year. Implementations may carry state and belong to one scenario.
type SpendingPolicy interface {
	Name() string
	Multiplier(in PolicyInput) float64
}

// FixedPolicy never adjusts spending
type FixedPolicy struct{}

func (FixedPolicy) Name() string                   { return domain.PolicyFixed }
func (FixedPolicy) Multiplier(PolicyInput) float64 { return 1 }

// GuardrailsConfig is the float view of the guardrail bounds
type GuardrailsConfig struct {
	UpperBand  float64
	LowerBand  float64
	Adjustment float64
	MaxCut     float64
	MaxRaise   float64
}

// GuardrailsPolicy fixes the withdrawal rate of the first decumulation year as
// the target. When the current rate drifts above target*(1+UpperBand) the
// discretionary multiplier is cut by Adjustment; below target*(1-LowerBand)
// it is raised. The multiplier stays within [1-MaxCut, 1+MaxRaise].
type GuardrailsPolicy struct {
	cfg        GuardrailsConfig
	target     float64
	multiplier float64
}

// NewGuardrailsPolicy creates a policy with no target yet
func NewGuardrailsPolicy(cfg GuardrailsConfig) *GuardrailsPolicy {
	return &GuardrailsPolicy{cfg: cfg, multiplier: 1}
}

func (g *GuardrailsPolicy) Name() string { return domain.PolicyGuardrails }

// Target returns the withdrawal rate fixed in the first year with a positive withdrawal
func (g *GuardrailsPolicy) Target() float64 { return g.target }

func (g *GuardrailsPolicy) Multiplier(in PolicyInput) float64 {
	if g.target <= 0 {
		g.target = in.rate(g.multiplier)
		return g.multiplier
	}
	if in.Portfolio <= 0 {
		g.multiplier = g.clamp(0)
		return g.multiplier
	}

	current := in.rate(g.multiplier)
	switch {
	case current > g.target*(1+g.cfg.UpperBand):
		g.multiplier = g.clamp(g.multiplier * (1 - g.cfg.Adjustment))
	case current < g.target*(1-g.cfg.LowerBand):
		g.multiplier = g.clamp(g.multiplier * (1 + g.cfg.Adjustment))
	}
	return g.multiplier
}

func (g *GuardrailsPolicy) clamp(m float64) float64 {
	lo, hi := 1-g.cfg.MaxCut, 1+g.cfg.MaxRaise
	if m < lo {
		return lo
	}
	if m > hi {
		return hi
	}
	return m
}
