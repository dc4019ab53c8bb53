package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rgehrsitz/rpmc/internal/config"
	"github.com/rgehrsitz/rpmc/internal/domain"
	"github.com/rgehrsitz/rpmc/internal/montecarlo"
	"github.com/rgehrsitz/rpmc/internal/observability"
	"github.com/rgehrsitz/rpmc/internal/output"
	"github.com/rgehrsitz/rpmc/internal/tui"
)

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "console", "Output format ("+strings.Join(output.AvailableFormatterNames(), ", ")+")")
	cmd.Flags().StringP("output", "o", "", "Write the report to this file instead of stdout")
	cmd.Flags().Bool("metrics", false, "Print run metrics to stderr when done")
	cmd.Flags().Bool("progress", false, "Show an interactive progress bar")
}

func (a *app) simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate [input-file]",
		Short: "Run a Monte Carlo simulation for a household",
		Long: "Runs the configured number of scenarios for the household described in the\n" +
			"input file and reports the success probability and balance percentiles.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := reportFormatter(cmd)
			if err != nil {
				return err
			}
			params, err := config.NewInputParser().LoadFromFile(args[0])
			if err != nil {
				return err
			}
			if params, err = applyOverrides(cmd, params); err != nil {
				return err
			}

			metrics, err := observability.NewRunCollector(prometheus.NewRegistry())
			if err != nil {
				return err
			}

			ctx, cancel := a.runContext(cmd.Context())
			defer cancel()

			agg, runID, err := a.simulate(ctx, cancel, cmd, params, metrics)
			if err != nil {
				return err
			}

			report := &output.Report{
				RunID:          runID,
				Name:           params.Name,
				Strategy:       params.ClaimingStrategy(),
				AnnualSpending: params.Expenses.AnnualSpending.InexactFloat64(),
				Aggregate:      agg,
			}
			return a.render(cmd, formatter, report, metrics)
		},
	}
	addReportFlags(cmd)
	cmd.Flags().Float64("spend", 0, "Override the annual spending target (today's dollars)")
	cmd.Flags().Int("primary-claim-age", 0, "Override the primary's Social Security claim age")
	cmd.Flags().Int("spouse-claim-age", 0, "Override the spouse's Social Security claim age")
	return cmd
}

// applyOverrides applies the spending and claim-age flags and revalidates
func applyOverrides(cmd *cobra.Command, params domain.SimulationParameters) (domain.SimulationParameters, error) {
	spend, _ := cmd.Flags().GetFloat64("spend")
	primary, _ := cmd.Flags().GetInt("primary-claim-age")
	spouse, _ := cmd.Flags().GetInt("spouse-claim-age")
	if spend == 0 && primary == 0 && spouse == 0 {
		return params, nil
	}

	if spend != 0 {
		params = params.WithSpending(decimal.NewFromFloat(spend))
	}
	if primary != 0 || spouse != 0 {
		cs := params.ClaimingStrategy()
		if primary != 0 {
			cs.PrimaryClaimAge = primary
		}
		if spouse != 0 {
			if !params.Household.IsCouple() {
				return params, fmt.Errorf("--spouse-claim-age given for a single-person household")
			}
			cs.SpouseClaimAge = &spouse
		}
		params = params.WithClaimAges(cs)
	}
	if err := params.Validate(); err != nil {
		return params, fmt.Errorf("parameter validation failed: %w", err)
	}
	return params, nil
}

func reportFormatter(cmd *cobra.Command) (output.Formatter, error) {
	name, _ := cmd.Flags().GetString("format")
	f := output.GetFormatterByName(name)
	if f == nil {
		return nil, fmt.Errorf("unknown output format %q (available: %s)", name, strings.Join(output.AvailableFormatterNames(), ", "))
	}
	return f, nil
}

type runOutcome struct {
	agg *domain.AggregateResult
	err error
}

// simulate runs one Monte Carlo simulation, optionally behind the progress
// bar, and returns the aggregate with the run's identifier
func (a *app) simulate(ctx context.Context, cancel context.CancelFunc, cmd *cobra.Command, params domain.SimulationParameters, metrics *observability.RunCollector) (*domain.AggregateResult, string, error) {
	msgs := make(chan montecarlo.Message, 64)
	orch, err := montecarlo.New(a.settings.MonteCarloOptions(),
		montecarlo.WithLogger(a.logger),
		montecarlo.WithMetrics(metrics),
		montecarlo.WithProgress(msgs),
	)
	if err != nil {
		return nil, "", err
	}

	done := make(chan runOutcome, 1)
	go func() {
		agg, err := orch.Simulate(ctx, params)
		// Run never sends after it returns
		close(msgs)
		done <- runOutcome{agg: agg, err: err}
	}()

	var runID string
	showProgress, _ := cmd.Flags().GetBool("progress")
	if showProgress {
		label := fmt.Sprintf("Simulating %s (%d scenarios)", params.Name, orch.Options().Simulations)
		model, err := tui.Run(label, orch.Options().Simulations, msgs,
			tea.WithContext(ctx),
			tea.WithOutput(os.Stderr),
		)
		if err != nil {
			a.logger.Warn("progress display stopped", zap.Error(err))
			cancel()
		} else if model.Interrupted() {
			cancel()
		}
		runID = model.RunID()
		// the display may have quit early; keep the channel drained
		go func() {
			for range msgs {
			}
		}()
	} else {
		for msg := range msgs {
			if id := montecarlo.RunIDOf(msg); id != "" {
				runID = id
			}
		}
	}

	out := <-done
	if out.err != nil {
		return nil, runID, out.err
	}
	return out.agg, runID, nil
}

// render writes the report to stdout or the --output file
func (a *app) render(cmd *cobra.Command, f output.Formatter, r *output.Report, metrics *observability.RunCollector) error {
	path, _ := cmd.Flags().GetString("output")
	if path != "" {
		if err := output.WriteFile(f, r, path); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		a.logger.Info("report written", zap.String("path", path), zap.String("format", f.Name()))
	} else {
		data, err := f.Format(r)
		if err != nil {
			return fmt.Errorf("failed to format report: %w", err)
		}
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return err
		}
	}

	if show, _ := cmd.Flags().GetBool("metrics"); show {
		return metrics.Dump(cmd.ErrOrStderr())
	}
	return nil
}
