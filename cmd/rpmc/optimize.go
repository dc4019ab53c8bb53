package main

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rgehrsitz/rpmc/internal/config"
	"github.com/rgehrsitz/rpmc/internal/montecarlo"
	"github.com/rgehrsitz/rpmc/internal/observability"
	"github.com/rgehrsitz/rpmc/internal/optimizer"
	"github.com/rgehrsitz/rpmc/internal/output"
)

var optimizeFlags = map[string]string{
	"target":         "target",
	"tolerance":      "tolerance",
	"max_iterations": "max-iterations",
	"max_spend":      "max-spend",
}

func (a *app) optimizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize [input-file]",
		Short: "Find the claiming strategy that sustains the most spending",
		Long: "Searches every Social Security claim age (or pair of ages for a couple) for the\n" +
			"highest annual spending that still reaches the target success probability, then\n" +
			"reruns the simulation at the winning strategy.",
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

			metrics, err := observability.NewRunCollector(prometheus.NewRegistry())
			if err != nil {
				return err
			}
			eval, err := montecarlo.New(a.settings.MonteCarloOptions(),
				montecarlo.WithLogger(a.logger),
				montecarlo.WithMetrics(metrics),
			)
			if err != nil {
				return err
			}

			opts := a.settings.OptimizerOptions()
			opts.LowSpend, _ = cmd.Flags().GetFloat64("low-spend")
			opts.HighSpend, _ = cmd.Flags().GetFloat64("high-spend")
			opts.PrimaryAges, _ = cmd.Flags().GetIntSlice("primary-ages")
			opts.SpouseAges, _ = cmd.Flags().GetIntSlice("spouse-ages")

			ctx, cancel := a.runContext(cmd.Context())
			defer cancel()

			opt := optimizer.New(eval, opts,
				optimizer.WithLogger(a.logger),
				optimizer.WithMetrics(metrics),
			)
			res, optErr := opt.Optimize(ctx, params)
			if res == nil {
				return optErr
			}

			report := &output.Report{
				Name:           params.Name,
				Strategy:       params.ClaimingStrategy(),
				AnnualSpending: params.Expenses.AnnualSpending.InexactFloat64(),
				Optimization:   res,
			}

			final, _ := cmd.Flags().GetBool("final")
			if optErr == nil && final && res.Best != nil {
				best := params.
					WithClaimAges(res.Best.Strategy).
					WithSpending(decimal.NewFromFloat(res.Best.SustainableSpend))
				agg, runID, err := a.simulate(ctx, cancel, cmd, best, metrics)
				if err != nil {
					return err
				}
				report.RunID = runID
				report.Strategy = res.Best.Strategy
				report.AnnualSpending = res.Best.SustainableSpend
				report.Aggregate = agg
			}

			if err := a.render(cmd, formatter, report, metrics); err != nil {
				return errors.Join(optErr, err)
			}
			if optErr != nil {
				a.logger.Warn("optimization incomplete", zap.Error(optErr))
			}
			return optErr
		},
	}
	addReportFlags(cmd)

	def := optimizer.DefaultOptions()
	cmd.Flags().Float64("target", def.TargetConfidence, "Required success probability")
	cmd.Flags().Float64("tolerance", def.Tolerance, "Spend precision in dollars")
	cmd.Flags().Int("max-iterations", def.MaxIterations, "Trials per claiming strategy")
	cmd.Flags().Float64("max-spend", def.MaxSpend, "Ceiling for the spend search")
	cmd.Flags().Float64("low-spend", 0, "Lower bound of the spend search")
	cmd.Flags().Float64("high-spend", 0, "Initial upper bound (0 = configured spending)")
	cmd.Flags().IntSlice("primary-ages", nil, "Primary claim ages to try (default 62-70)")
	cmd.Flags().IntSlice("spouse-ages", nil, "Spouse claim ages to try (default 62-70)")
	cmd.Flags().Bool("final", true, "Rerun the simulation at the best strategy")
	bindFlags(a.v, cmd.Flags(), optimizeFlags)
	return cmd
}
