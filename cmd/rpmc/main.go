package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/rgehrsitz/rpmc/internal/config"
	"github.com/rgehrsitz/rpmc/internal/montecarlo"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app carries the state shared by every subcommand of one invocation
type app struct {
	v        *viper.Viper
	settings config.Settings
	logger   *zap.Logger
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rpmc %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.String()
	}
	return ""
}

// runFlags maps settings keys to the persistent flags that override them
var runFlags = map[string]string{
	"simulations":      "simulations",
	"workers":          "workers",
	"seed":             "seed",
	"antithetic":       "antithetic",
	"max_failures":     "max-failures",
	"max_retries":      "max-retries",
	"scenario_timeout": "scenario-timeout",
	"timeout":          "timeout",
	"keep_scenarios":   "keep-scenarios",
	"log_level":        "log-level",
	"log_format":       "log-format",
	"log_file":         "log-file",
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "rpmc",
		Short: "Retirement Monte Carlo engine",
		Long: "Projects a household's retirement year by year across thousands of randomized\n" +
			"market scenarios, reports the probability the plan survives, and searches for\n" +
			"the Social Security claiming strategy that sustains the most spending.",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	mc := montecarlo.DefaultOptions()
	pf := root.PersistentFlags()
	pf.String("config", "", "Settings file (yaml, json or toml)")
	pf.Int("simulations", mc.Simulations, "Number of Monte Carlo scenarios")
	pf.Int("workers", 0, "Worker goroutines (0 = number of CPUs)")
	pf.Int64("seed", mc.BaseSeed, "Base random seed")
	pf.Bool("antithetic", false, "Pair scenarios with mirrored shocks")
	pf.Int("max-failures", mc.MaxFailures, "Failed scenarios tolerated before the run aborts")
	pf.Int("max-retries", mc.MaxRetries, "Retries of a failed scenario with the same seed")
	pf.Duration("scenario-timeout", 0, "Time limit for a single scenario (0 = none)")
	pf.Duration("timeout", 0, "Time limit for the whole command (0 = none)")
	pf.Bool("keep-scenarios", false, "Include every scenario result in JSON output")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-format", "console", "Log format (console, json)")
	pf.String("log-file", "", "Write logs to this file instead of stderr")
	bindFlags(a.v, pf, runFlags)

	root.AddCommand(
		versionCmd(),
		a.validateCmd(),
		a.simulateCmd(),
		a.optimizeCmd(),
		a.benefitCmd(),
		a.exampleCmd(),
	)
	return root
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

// setup resolves the run settings and builds the logger before any subcommand runs
func (a *app) setup(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("config")
	s, err := config.LoadSettings(a.v, file)
	if err != nil {
		return err
	}
	logger, err := initializeLogger(s)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.settings = s
	a.logger = logger
	a.logger.Debug("settings loaded",
		zap.String("settings_file", file),
		zap.Int("simulations", s.Simulations),
		zap.Int64("seed", s.Seed))
	return nil
}

// runContext applies the command-wide timeout, if any
func (a *app) runContext(parent context.Context) (context.Context, context.CancelFunc) {
	if a.settings.Timeout > 0 {
		return context.WithTimeout(parent, a.settings.Timeout)
	}
	return context.WithCancel(parent)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
