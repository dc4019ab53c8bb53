package optimizer

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/rpmc/internal/domain"
)

// Evaluator runs a full Monte Carlo simulation for one parameter set. The
// orchestrator satisfies it; every call must use the same base seed so
// candidates are compared on common random numbers.
type Evaluator interface {
	Simulate(ctx context.Context, params domain.SimulationParameters) (*domain.AggregateResult, error)
}

// Options configures the claim-age and spend search
type Options struct {
	TargetConfidence float64 // required success probability, e.g. 0.95
	Tolerance        float64 // dollars; the search stops when high-low is within it
	MaxIterations    int     // trials per candidate
	LowSpend         float64 // lower bound of the spend bracket
	HighSpend        float64 // initial upper bound; zero uses the configured spending
	MaxSpend         float64 // ceiling for upper-bound expansion
	PrimaryAges      []int   // candidate claim ages; empty means 62..70
	SpouseAges       []int
}

// DefaultOptions returns the search settings used when none are configured
func DefaultOptions() Options {
	return Options{
		TargetConfidence: 0.95,
		Tolerance:        100,
		MaxIterations:    60,
		MaxSpend:         10_000_000,
	}
}

// Validate checks the options against the household being optimised
func (o Options) Validate(h domain.Household) error {
	if o.TargetConfidence <= 0 || o.TargetConfidence >= 1 {
		return &OptimizerError{Operation: "validate_options", Message: "target confidence must be between 0 and 1"}
	}
	if o.Tolerance <= 0 {
		return &OptimizerError{Operation: "validate_options", Message: "tolerance must be positive"}
	}
	if o.MaxIterations <= 1 {
		return &OptimizerError{Operation: "validate_options", Message: "max iterations must be at least 2"}
	}
	if o.LowSpend < 0 {
		return &OptimizerError{Operation: "validate_options", Message: "low spend cannot be negative"}
	}
	if o.MaxSpend <= o.LowSpend {
		return &OptimizerError{Operation: "validate_options", Message: "max spend must exceed low spend"}
	}
	for _, ages := range [][]int{o.PrimaryAges, o.SpouseAges} {
		for _, a := range ages {
			if a < domain.MinClaimAge || a > domain.MaxClaimAge {
				return &OptimizerError{
					Operation: "validate_options",
					Message:   fmt.Sprintf("claim age %d must be between %d and %d", a, domain.MinClaimAge, domain.MaxClaimAge),
				}
			}
		}
	}
	if len(o.SpouseAges) > 0 && !h.IsCouple() {
		return &OptimizerError{Operation: "validate_options", Message: "spouse claim ages given for a single household"}
	}
	return nil
}

// Candidate is the search outcome for one claiming strategy
type Candidate struct {
	Strategy           domain.ClaimingStrategy `json:"strategy"`
	SustainableSpend   float64                 `json:"sustainable_spend"`
	SuccessProbability float64                 `json:"success_probability"`
	Low                float64                 `json:"bracket_low"`
	High               float64                 `json:"bracket_high"`
	Trials             int                     `json:"trials"`
	Feasible           bool                    `json:"feasible"`
	Converged          bool                    `json:"converged"`
}

// Result is the best claiming strategy with the runner-ups sorted by sustainable spend
type Result struct {
	Target    float64     `json:"target_confidence"`
	Best      *Candidate  `json:"best,omitempty"`
	RunnersUp []Candidate `json:"runners_up,omitempty"`
	Trials    int         `json:"trials"`
	Converged bool        `json:"converged"`
	Cancelled bool        `json:"cancelled,omitempty"`
}

// OptimizerError represents errors from the claim-age optimizer
type OptimizerError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *OptimizerError) Error() string {
	if e.Cause != nil {
		return e.Operation + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Operation + ": " + e.Message
}

func (e *OptimizerError) Unwrap() error {
	return e.Cause
}
