// Package ltc generates stochastic long-term-care events per household member.
package ltc

import (
	"math"
	"sort"

	"github.com/rgehrsitz/rpmc/internal/domain"
	"github.com/rgehrsitz/rpmc/internal/returns"
)

const daysPerYear = 365

// minCostFactor floors the sampled cost so a large negative shock cannot make care free
const minCostFactor = 0.25

// Band is the annual onset probability from FromAge onward
type Band struct {
	FromAge     int
	Probability float64
}

// Policy is a float view of the insurance contract
type Policy struct {
	DailyBenefit       float64
	BenefitInflation   float64
	EliminationDays    int
	BenefitPeriodYears int
	AnnualPremium      float64
}

// Config configures the event model
type Config struct {
	Enabled         bool
	ThresholdAge    int
	Bands           []Band
	AnnualCost      float64
	CostStdDev      float64
	CostInflation   float64
	DurationWeights []float64
	Insured         bool
	Policy          Policy
}

// ConfigFromAssumptions converts the decimal assumptions from the parameter file
func ConfigFromAssumptions(a domain.LTCAssumptions) Config {
	cfg := Config{
		Enabled:       a.Enabled,
		ThresholdAge:  a.ThresholdAge,
		AnnualCost:    a.AnnualCost.InexactFloat64(),
		CostStdDev:    a.CostStdDev.InexactFloat64(),
		CostInflation: a.CostInflation.InexactFloat64(),
		Insured:       a.Insured,
		Policy: Policy{
			DailyBenefit:       a.Policy.DailyBenefit.InexactFloat64(),
			BenefitInflation:   a.Policy.BenefitInflation.InexactFloat64(),
			EliminationDays:    a.Policy.EliminationDays,
			BenefitPeriodYears: a.Policy.BenefitPeriodYears,
			AnnualPremium:      a.Policy.AnnualPremium.InexactFloat64(),
		},
	}
	for _, b := range a.Bands {
		cfg.Bands = append(cfg.Bands, Band{FromAge: b.FromAge, Probability: b.Probability.InexactFloat64()})
	}
	for _, w := range a.DurationWeights {
		cfg.DurationWeights = append(cfg.DurationWeights, w.InexactFloat64())
	}
	return cfg
}

// Model is immutable and shared by all scenarios of a run
type Model struct {
	cfg        Config
	cumulative []float64
}

// NewModel validates the config and precomputes the duration distribution
func NewModel(cfg Config) (*Model, error) {
	bands := append([]Band(nil), cfg.Bands...)
	sort.Slice(bands, func(i, j int) bool { return bands[i].FromAge < bands[j].FromAge })
	cfg.Bands = bands

	m := &Model{cfg: cfg}
	if !cfg.Enabled {
		return m, nil
	}
	total := 0.0
	for _, w := range cfg.DurationWeights {
		if w < 0 {
			return nil, &domain.InvalidParameterError{Field: "ltc.duration_weights", Message: "cannot be negative"}
		}
		total += w
	}
	if total <= 0 {
		return nil, &domain.InvalidParameterError{Field: "ltc.duration_weights", Message: "must have a positive sum"}
	}
	running := 0.0
	for _, w := range cfg.DurationWeights {
		running += w / total
		m.cumulative = append(m.cumulative, running)
	}
	return m, nil
}

// FromAssumptions builds a model from parameter-file assumptions
func FromAssumptions(a domain.LTCAssumptions) (*Model, error) {
	return NewModel(ConfigFromAssumptions(a))
}

// Enabled reports whether events are generated at all
func (m *Model) Enabled() bool { return m.cfg.Enabled }

// Probability returns the annual onset probability at an age
func (m *Model) Probability(age int) float64 {
	if age < m.cfg.ThresholdAge {
		return 0
	}
	p := 0.0
	for _, b := range m.cfg.Bands {
		if age >= b.FromAge {
			p = b.Probability
		}
	}
	return p
}

func (m *Model) duration(u float64) int {
	for i, c := range m.cumulative {
		if u < c {
			return i + 1
		}
	}
	return len(m.cumulative)
}

// Tracker is one person's care state within a single scenario. It is not shared.
type Tracker struct {
	Owner       string
	event       *domain.LTCEvent
	yearsInCare int
	annualCost  float64
}

// NewTracker creates the per-scenario state for a household member
func NewTracker(owner string) *Tracker {
	return &Tracker{Owner: owner}
}

// Event returns the person's LTC event, if one has occurred
func (t *Tracker) Event() *domain.LTCEvent { return t.event }

// InCare reports whether the person is currently receiving care
func (t *Tracker) InCare() bool {
	return t.event != nil && t.yearsInCare < t.event.DurationYears
}

// YearOutcome is the LTC cash flow of one person-year. Amounts are nominal.
type YearOutcome struct {
	Cost        float64
	Premium     float64
	Benefit     float64
	OutOfPocket float64
	Onset       bool
}

// Step advances one living person-year. It always consumes three draws from
// the stream (onset uniform, duration uniform, cost shock) so antithetic pairs
// stay aligned regardless of outcome.
func (m *Model) Step(t *Tracker, s returns.Stream, age, year, yearIndex int) YearOutcome {
	uOnset, uDuration, zCost := s.Uniform(), s.Uniform(), s.Normal()

	var out YearOutcome
	if !m.cfg.Enabled {
		return out
	}
	if m.cfg.Insured {
		out.Premium = m.cfg.Policy.AnnualPremium
	}

	if t.event == nil && uOnset < m.Probability(age) {
		factor := math.Max(minCostFactor, 1+m.cfg.CostStdDev*zCost)
		t.annualCost = m.cfg.AnnualCost * factor * math.Pow(1+m.cfg.CostInflation, float64(yearIndex))
		t.event = &domain.LTCEvent{
			Owner:              t.Owner,
			OnsetAge:           age,
			OnsetYear:          year,
			DurationYears:      m.duration(uDuration),
			InflatedAnnualCost: t.annualCost,
		}
		t.yearsInCare = 0
		out.Onset = true
	}
	if !t.InCare() {
		return out
	}

	// The year's inflated cost is fixed before any insurance offset is considered.
	cost := t.annualCost * math.Pow(1+m.cfg.CostInflation, float64(t.yearsInCare))
	offset := 0.0
	if m.cfg.Insured {
		offset = m.benefit(cost, t.yearsInCare, yearIndex)
	}
	if out.Onset {
		t.event.InsuranceOffset = offset
	}
	t.yearsInCare++

	out.Cost = cost
	out.Benefit = offset
	out.OutOfPocket = cost - offset
	return out
}

// benefit is the insurance payment for a care year, capped at the year's cost
func (m *Model) benefit(cost float64, careYear, yearIndex int) float64 {
	p := m.cfg.Policy
	if careYear >= p.BenefitPeriodYears {
		return 0
	}
	days := daysPerYear
	if careYear == 0 {
		days -= p.EliminationDays
	}
	if days <= 0 {
		return 0
	}
	daily := p.DailyBenefit * math.Pow(1+p.BenefitInflation, float64(yearIndex))
	return math.Min(cost, daily*float64(days))
}
