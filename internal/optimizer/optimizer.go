// Package optimizer searches Social Security claiming strategies for the one
// that sustains the highest annual spend at a target success probability.
package optimizer

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rgehrsitz/rpmc/internal/domain"
	"github.com/rgehrsitz/rpmc/internal/observability"
)

// Optimizer runs sequential trials against an Evaluator
type Optimizer struct {
	eval    Evaluator
	opts    Options
	logger  *zap.Logger
	metrics *observability.RunCollector
}

// Option customises an Optimizer
type Option func(*Optimizer)

// WithLogger sets the logger used for per-candidate results
func WithLogger(l *zap.Logger) Option {
	return func(o *Optimizer) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics counts trials and publishes the best spend on the collector
func WithMetrics(c *observability.RunCollector) Option {
	return func(o *Optimizer) { o.metrics = c }
}

// New creates an optimizer
func New(eval Evaluator, opts Options, options ...Option) *Optimizer {
	o := &Optimizer{eval: eval, opts: opts, logger: zap.NewNop()}
	for _, opt := range options {
		opt(o)
	}
	return o
}

// Candidates returns every claiming strategy to evaluate: the primary ages for
// a single household, the full cross-product with the spouse ages for a couple
func Candidates(h domain.Household, opts Options) []domain.ClaimingStrategy {
	primary := opts.PrimaryAges
	if len(primary) == 0 {
		primary = claimAgeRange()
	}
	if !h.IsCouple() {
		out := make([]domain.ClaimingStrategy, 0, len(primary))
		for _, a := range primary {
			out = append(out, domain.ClaimingStrategy{PrimaryClaimAge: a})
		}
		return out
	}

	spouse := opts.SpouseAges
	if len(spouse) == 0 {
		spouse = claimAgeRange()
	}
	out := make([]domain.ClaimingStrategy, 0, len(primary)*len(spouse))
	for _, a := range primary {
		for _, b := range spouse {
			age := b
			out = append(out, domain.ClaimingStrategy{PrimaryClaimAge: a, SpouseClaimAge: &age})
		}
	}
	return out
}

func claimAgeRange() []int {
	ages := make([]int, 0, domain.MaxClaimAge-domain.MinClaimAge+1)
	for a := domain.MinClaimAge; a <= domain.MaxClaimAge; a++ {
		ages = append(ages, a)
	}
	return ages
}

// Optimize evaluates every candidate strategy and returns the one with the
// highest sustainable spend. On cancellation it returns the best result found
// so far with Cancelled set, together with an error wrapping the context's.
func (o *Optimizer) Optimize(ctx context.Context, params domain.SimulationParameters) (*Result, error) {
	if err := o.opts.Validate(params.Household); err != nil {
		return nil, err
	}

	candidates := Candidates(params.Household, o.opts)
	res := &Result{Target: o.opts.TargetConfidence}
	found := make([]Candidate, 0, len(candidates))

	o.logger.Debug("claim-age optimisation started",
		zap.Int("candidates", len(candidates)),
		zap.Float64("target", o.opts.TargetConfidence))

	for _, cs := range candidates {
		if err := ctx.Err(); err != nil {
			return o.cancelled(res, found, err)
		}

		c, err := o.search(ctx, params, cs)
		res.Trials += c.Trials
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				if c.Feasible {
					found = append(found, c)
				}
				return o.cancelled(res, found, ctxErr)
			}
			return nil, &OptimizerError{
				Operation: "evaluate",
				Message:   fmt.Sprintf("claiming strategy %s", cs),
				Cause:     err,
			}
		}
		found = append(found, c)

		o.logger.Debug("candidate evaluated",
			zap.Stringer("strategy", cs),
			zap.Float64("sustainable_spend", c.SustainableSpend),
			zap.Float64("success_probability", c.SuccessProbability),
			zap.Int("trials", c.Trials),
			zap.Bool("converged", c.Converged))
	}

	o.finish(res, found)
	if res.Best == nil {
		return res, &OptimizerError{
			Operation: "optimize",
			Message:   fmt.Sprintf("no claiming strategy reaches %.1f%% success at a spend of %.0f", o.opts.TargetConfidence*100, o.opts.LowSpend),
		}
	}
	return res, nil
}

func (o *Optimizer) cancelled(res *Result, found []Candidate, cause error) (*Result, error) {
	o.finish(res, found)
	res.Cancelled = true
	res.Converged = false
	return res, &OptimizerError{Operation: "optimize", Message: "cancelled", Cause: cause}
}

// finish ranks candidates by sustainable spend; ties keep evaluation order
func (o *Optimizer) finish(res *Result, found []Candidate) {
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Feasible != found[j].Feasible {
			return found[i].Feasible
		}
		return found[i].SustainableSpend > found[j].SustainableSpend
	})

	res.Converged = len(found) > 0
	for _, c := range found {
		if !c.Converged {
			res.Converged = false
		}
	}
	if len(found) > 0 && found[0].Feasible {
		best := found[0]
		res.Best = &best
		res.RunnersUp = found[1:]
		o.metrics.SetSustainableSpend(best.SustainableSpend)
	} else {
		res.RunnersUp = found
	}
}

// search brackets the sustainable spend for one strategy. The upper bound is
// doubled until the target is missed, then the bracket is bisected.
func (o *Optimizer) search(ctx context.Context, params domain.SimulationParameters, cs domain.ClaimingStrategy) (Candidate, error) {
	c := Candidate{Strategy: cs}
	base := params.WithClaimAges(cs)
	target := o.opts.TargetConfidence

	low := o.opts.LowSpend
	high := o.initialHigh(params)

	p, err := o.trial(ctx, base, low, &c)
	if err != nil {
		return c, err
	}
	if p < target {
		c.Low, c.High, c.Converged = low, low, true
		return c, nil
	}
	c.Feasible = true
	c.SustainableSpend, c.SuccessProbability = low, p

	for {
		if c.Trials >= o.opts.MaxIterations {
			c.Low, c.High = low, high
			return c, nil
		}
		p, err = o.trial(ctx, base, high, &c)
		if err != nil {
			return c, err
		}
		if p < target {
			break
		}
		low = high
		c.SustainableSpend, c.SuccessProbability = low, p
		if high >= o.opts.MaxSpend {
			c.Low, c.High = low, high
			return c, nil
		}
		high = math.Min(high*2, o.opts.MaxSpend)
	}

	for high-low > o.opts.Tolerance {
		if c.Trials >= o.opts.MaxIterations {
			c.Low, c.High = low, high
			return c, nil
		}
		mid := (low + high) / 2
		p, err = o.trial(ctx, base, mid, &c)
		if err != nil {
			return c, err
		}
		if p >= target {
			low = mid
			c.SustainableSpend, c.SuccessProbability = mid, p
		} else {
			high = mid
		}
	}
	c.Low, c.High, c.Converged = low, high, true
	return c, nil
}

func (o *Optimizer) initialHigh(params domain.SimulationParameters) float64 {
	high := o.opts.HighSpend
	if high <= 0 {
		high = params.Expenses.AnnualSpending.InexactFloat64()
	}
	if high <= o.opts.LowSpend {
		high = o.opts.LowSpend + 10000
	}
	return math.Min(high, o.opts.MaxSpend)
}

func (o *Optimizer) trial(ctx context.Context, base domain.SimulationParameters, spend float64, c *Candidate) (float64, error) {
	c.Trials++
	o.metrics.IncOptimizerTrials()
	agg, err := o.eval.Simulate(ctx, base.WithSpending(decimal.NewFromFloat(spend)))
	if err != nil {
		return 0, err
	}
	return agg.SuccessProbability, nil
}
