// Package montecarlo runs many independent retirement scenarios on a bounded
// worker pool and reduces them into an AggregateResult.
package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rgehrsitz/rpmc/internal/calculation"
	"github.com/rgehrsitz/rpmc/internal/domain"
	"github.com/rgehrsitz/rpmc/internal/observability"
	"github.com/rgehrsitz/rpmc/internal/returns"
)

// Options configures a Monte Carlo run
type Options struct {
	Simulations     int
	Workers         int
	BaseSeed        int64
	Antithetic      bool
	MaxFailures     int           // failed scenarios tolerated before the run aborts
	MaxRetries      int           // extra attempts per scenario, same seed
	ScenarioTimeout time.Duration // zero disables the per-scenario deadline
	KeepScenarios   bool
	KeepCashFlows   bool
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		Simulations: 1000,
		Workers:     runtime.NumCPU(),
		BaseSeed:    1,
		MaxRetries:  1,
	}
}

// Validate rejects option values the orchestrator cannot honour
func (o Options) Validate() error {
	switch {
	case o.Simulations <= 0:
		return &domain.InvalidParameterError{Field: "simulations", Message: "must be positive"}
	case o.Workers < 0:
		return &domain.InvalidParameterError{Field: "workers", Message: "must not be negative"}
	case o.MaxFailures < 0:
		return &domain.InvalidParameterError{Field: "max_failures", Message: "must not be negative"}
	case o.MaxRetries < 0:
		return &domain.InvalidParameterError{Field: "max_retries", Message: "must not be negative"}
	case o.ScenarioTimeout < 0:
		return &domain.InvalidParameterError{Field: "scenario_timeout", Message: "must not be negative"}
	}
	return nil
}

// ScenarioRunner simulates one scenario path. Implementations must be safe for
// concurrent use; all per-scenario state lives in the call.
type ScenarioRunner interface {
	RunScenario(ctx context.Context, index int, stream returns.Stream) (*domain.ScenarioResult, error)
}

// Orchestrator fans scenarios out to a worker pool
type Orchestrator struct {
	opts     Options
	logger   *zap.Logger
	metrics  *observability.RunCollector
	progress chan<- Message
}

// Option customises an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger used for run and failure events
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records scenario outcomes on the collector
func WithMetrics(c *observability.RunCollector) Option {
	return func(o *Orchestrator) { o.metrics = c }
}

// WithProgress streams typed messages to ch. Progress messages are dropped
// when ch is full; the final CompleteMsg or ErrorMsg blocks until received or
// the run's context is done.
func WithProgress(ch chan<- Message) Option {
	return func(o *Orchestrator) { o.progress = ch }
}

// New creates an orchestrator. A zero Workers value means runtime.NumCPU().
func New(opts Options, options ...Option) (*Orchestrator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Workers == 0 {
		opts.Workers = runtime.NumCPU()
	}
	o := &Orchestrator{opts: opts, logger: zap.NewNop()}
	for _, opt := range options {
		opt(o)
	}
	return o, nil
}

// Options returns the effective options
func (o *Orchestrator) Options() Options { return o.opts }

// Simulate builds a scenario simulator for params and runs it
func (o *Orchestrator) Simulate(ctx context.Context, params domain.SimulationParameters) (*domain.AggregateResult, error) {
	sim, err := calculation.NewSimulator(params,
		calculation.WithLogger(o.logger),
		calculation.WithCashFlows(o.opts.KeepCashFlows),
	)
	if err != nil {
		return nil, err
	}
	return o.Run(ctx, sim)
}

type outcome struct {
	index    int
	result   *domain.ScenarioResult
	failure  *domain.WorkerFailure
	aborted  bool
	retries  int
	duration time.Duration
}

// Run executes every scenario and blocks until all have finished or the run
// aborts. The aggregate is reduced in scenario order, so it does not depend
// on the worker count or completion order.
func (o *Orchestrator) Run(parent context.Context, runner ScenarioRunner) (*domain.AggregateResult, error) {
	runID := uuid.NewString()
	log := o.logger.With(zap.String("run_id", runID))
	n := o.opts.Simulations

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	tasks := make(chan int)
	outcomes := make(chan outcome, o.opts.Workers)

	var wg sync.WaitGroup
	for w := 0; w < o.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range tasks {
				outcomes <- o.runTask(ctx, runner, idx)
			}
		}()
	}

	go func() {
		defer close(tasks)
		for i := 0; i < n; i++ {
			select {
			case tasks <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	log.Debug("monte carlo run started",
		zap.Int("simulations", n),
		zap.Int("workers", o.opts.Workers),
		zap.Int64("base_seed", o.opts.BaseSeed),
		zap.Bool("antithetic", o.opts.Antithetic))

	results := make([]*domain.ScenarioResult, n)
	var failures []*domain.WorkerFailure
	completed, fatal := 0, false

	for out := range outcomes {
		for i := 0; i < out.retries; i++ {
			o.metrics.IncRetries()
		}
		switch {
		case out.aborted:
			continue
		case out.failure != nil:
			failures = append(failures, out.failure)
			o.metrics.ObserveScenario(observability.OutcomeFailed, out.duration)
			log.Warn("scenario failed",
				zap.Int("scenario", out.index),
				zap.Int64("seed", out.failure.Seed),
				zap.Int("attempts", out.failure.Attempts),
				zap.Error(out.failure.Cause))
			if len(failures) > o.opts.MaxFailures && !fatal {
				fatal = true
				cancel()
			}
		default:
			results[out.index] = out.result
			completed++
			label := observability.OutcomeSuccess
			if !out.result.Success {
				label = observability.OutcomeDepleted
			}
			o.metrics.ObserveScenario(label, out.duration)
		}
		o.sendProgress(ProgressMsg{RunID: runID, Completed: completed, Failed: len(failures), Total: n})
	}

	if fatal {
		err := &domain.RunError{
			RunID:    runID,
			Message:  fmt.Sprintf("%d failed scenario(s) exceed the tolerated %d", len(failures), o.opts.MaxFailures),
			Failures: failures,
		}
		log.Error("monte carlo run aborted", zap.Error(err))
		o.sendFinal(parent, ErrorMsg{RunID: runID, Err: err})
		return nil, err
	}
	if err := parent.Err(); err != nil {
		runErr := &domain.RunError{RunID: runID, Message: "cancelled", Failures: failures, Cause: err}
		log.Debug("monte carlo run cancelled", zap.Int("completed", completed))
		o.sendFinal(parent, ErrorMsg{RunID: runID, Err: runErr})
		return nil, runErr
	}

	agg := Aggregate(results, o.opts)
	o.metrics.ObserveRun(agg.SuccessProbability)
	log.Debug("monte carlo run finished",
		zap.Int("completed", agg.Completed),
		zap.Int("failed", agg.Failed),
		zap.Float64("success_probability", agg.SuccessProbability))
	o.sendFinal(parent, CompleteMsg{RunID: runID, Result: agg})
	return agg, nil
}

// runTask runs one scenario, retrying with the identical stream on failure
func (o *Orchestrator) runTask(ctx context.Context, runner ScenarioRunner, index int) outcome {
	out := outcome{index: index}
	var (
		cause error
		seed  int64
	)
	for attempt := 0; attempt <= o.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			out.retries++
		}
		stream := returns.StreamFor(o.opts.BaseSeed, index, o.opts.Antithetic)
		seed = stream.Seed()

		start := time.Now()
		res, err := o.attempt(ctx, runner, index, stream)
		out.duration = time.Since(start)
		if err == nil {
			out.result = res
			return out
		}
		if ctx.Err() != nil {
			out.aborted = true
			return out
		}
		cause = err
	}
	out.failure = &domain.WorkerFailure{
		Scenario: index,
		Seed:     seed,
		Attempts: o.opts.MaxRetries + 1,
		Cause:    cause,
	}
	return out
}

func (o *Orchestrator) attempt(ctx context.Context, runner ScenarioRunner, index int, stream returns.Stream) (res *domain.ScenarioResult, err error) {
	if o.opts.ScenarioTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.ScenarioTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	res, err = runner.RunScenario(ctx, index, stream)
	if err == nil && res == nil {
		err = errors.New("runner returned no result")
	}
	return res, err
}

func (o *Orchestrator) sendProgress(msg ProgressMsg) {
	if o.progress == nil {
		return
	}
	select {
	case o.progress <- msg:
	default:
	}
}

func (o *Orchestrator) sendFinal(ctx context.Context, msg Message) {
	if o.progress == nil {
		return
	}
	select {
	case o.progress <- msg:
		return
	default:
	}
	select {
	case o.progress <- msg:
	case <-ctx.Done():
	}
}
