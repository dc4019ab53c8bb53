// Package observability exposes Prometheus metrics for Monte Carlo runs and optimisation.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Scenario outcome label values
const (
	OutcomeSuccess  = "success"
	OutcomeDepleted = "depleted"
	OutcomeFailed   = "failed"
)

// RunCollector exposes Monte Carlo run metrics. All methods are safe on a nil
// collector so engines can run without metrics.
type RunCollector struct {
	gatherer prometheus.Gatherer

	Scenarios          *prometheus.CounterVec
	ScenarioDuration   prometheus.Histogram
	Retries            prometheus.Counter
	Runs               prometheus.Counter
	SuccessProbability prometheus.Gauge
	OptimizerTrials    prometheus.Counter
	SustainableSpend   prometheus.Gauge
}

// NewRunCollector registers run metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewRunCollector(reg prometheus.Registerer) (*RunCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	scenarios, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rpmc_scenarios_total",
		Help: "Simulated scenarios labeled by outcome.",
	}, []string{"outcome"}), "rpmc_scenarios_total")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rpmc_scenario_duration_seconds",
		Help:    "Wall time of a single scenario simulation.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}), "rpmc_scenario_duration_seconds")
	if err != nil {
		return nil, err
	}

	retries, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rpmc_scenario_retries_total",
		Help: "Scenario attempts repeated after a failure.",
	}), "rpmc_scenario_retries_total")
	if err != nil {
		return nil, err
	}

	runs, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rpmc_runs_total",
		Help: "Completed Monte Carlo runs.",
	}), "rpmc_runs_total")
	if err != nil {
		return nil, err
	}

	success, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rpmc_success_probability",
		Help: "Success probability of the most recent run.",
	}), "rpmc_success_probability")
	if err != nil {
		return nil, err
	}

	trials, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rpmc_optimizer_trials_total",
		Help: "Monte Carlo runs performed by the claim-age optimizer.",
	}), "rpmc_optimizer_trials_total")
	if err != nil {
		return nil, err
	}

	spend, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rpmc_sustainable_spend_dollars",
		Help: "Best sustainable annual spend found by the optimizer.",
	}), "rpmc_sustainable_spend_dollars")
	if err != nil {
		return nil, err
	}

	return &RunCollector{
		gatherer:           gatherer,
		Scenarios:          scenarios,
		ScenarioDuration:   duration,
		Retries:            retries,
		Runs:               runs,
		SuccessProbability: success,
		OptimizerTrials:    trials,
		SustainableSpend:   spend,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *RunCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveScenario records one finished scenario attempt.
func (c *RunCollector) ObserveScenario(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.Scenarios.WithLabelValues(outcome).Inc()
	if outcome != OutcomeFailed {
		c.ScenarioDuration.Observe(d.Seconds())
	}
}

// IncRetries increments the retry counter.
func (c *RunCollector) IncRetries() {
	if c == nil {
		return
	}
	c.Retries.Inc()
}

// ObserveRun records the success probability of a finished run.
func (c *RunCollector) ObserveRun(successProbability float64) {
	if c == nil {
		return
	}
	c.Runs.Inc()
	c.SuccessProbability.Set(successProbability)
}

// IncOptimizerTrials increments the optimizer trial counter.
func (c *RunCollector) IncOptimizerTrials() {
	if c == nil {
		return
	}
	c.OptimizerTrials.Inc()
}

// SetSustainableSpend sets the best sustainable spend gauge.
func (c *RunCollector) SetSustainableSpend(v float64) {
	if c == nil {
		return
	}
	c.SustainableSpend.Set(v)
}

// Dump writes every rpmc metric family as "name{labels} value" lines.
func (c *RunCollector) Dump(w io.Writer) error {
	if c == nil {
		return nil
	}
	families, err := c.gatherer.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "rpmc_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			if _, err := fmt.Fprintf(w, "%s%s %s\n", mf.GetName(), formatLabels(m.GetLabel()), formatValue(mf.GetType(), m)); err != nil {
				return err
			}
		}
	}
	return nil
}

func formatLabels(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}

func formatValue(t dto.MetricType, m *dto.Metric) string {
	switch t {
	case dto.MetricType_COUNTER:
		return fmt.Sprintf("%g", m.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		return fmt.Sprintf("%g", m.GetGauge().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		return fmt.Sprintf("count=%d sum=%g", h.GetSampleCount(), h.GetSampleSum())
	default:
		return "?"
	}
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
