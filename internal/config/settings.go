package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rgehrsitz/rpmc/internal/montecarlo"
	"github.com/rgehrsitz/rpmc/internal/optimizer"
)

// EnvPrefix is the prefix of environment overrides, e.g. RPMC_SIMULATIONS
const EnvPrefix = "RPMC"

// Settings are the engine run settings. They come from defaults, an optional
// settings file, RPMC_* environment variables and bound command-line flags,
// in increasing order of precedence.
type Settings struct {
	Simulations     int           `mapstructure:"simulations"`
	Workers         int           `mapstructure:"workers"`
	Seed            int64         `mapstructure:"seed"`
	Antithetic      bool          `mapstructure:"antithetic"`
	MaxFailures     int           `mapstructure:"max_failures"`
	MaxRetries      int           `mapstructure:"max_retries"`
	ScenarioTimeout time.Duration `mapstructure:"scenario_timeout"`
	Timeout         time.Duration `mapstructure:"timeout"`
	KeepScenarios   bool          `mapstructure:"keep_scenarios"`

	Target        float64 `mapstructure:"target"`
	Tolerance     float64 `mapstructure:"tolerance"`
	MaxIterations int     `mapstructure:"max_iterations"`
	MaxSpend      float64 `mapstructure:"max_spend"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`
}

// NewViper returns a viper instance with defaults and environment overrides
func NewViper() *viper.Viper {
	v := viper.New()

	mc := montecarlo.DefaultOptions()
	opt := optimizer.DefaultOptions()
	v.SetDefault("simulations", mc.Simulations)
	v.SetDefault("workers", 0)
	v.SetDefault("seed", mc.BaseSeed)
	v.SetDefault("antithetic", mc.Antithetic)
	v.SetDefault("max_failures", mc.MaxFailures)
	v.SetDefault("max_retries", mc.MaxRetries)
	v.SetDefault("scenario_timeout", time.Duration(0))
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("keep_scenarios", false)
	v.SetDefault("target", opt.TargetConfidence)
	v.SetDefault("tolerance", opt.Tolerance)
	v.SetDefault("max_iterations", opt.MaxIterations)
	v.SetDefault("max_spend", opt.MaxSpend)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("log_file", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// LoadSettings reads an optional settings file into v and decodes the result
func LoadSettings(v *viper.Viper, file string) (Settings, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("failed to read settings %s: %w", file, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the settings before they reach the engine
func (s Settings) Validate() error {
	if err := s.MonteCarloOptions().Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("invalid settings: timeout must not be negative")
	}
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid settings: unknown log level %q", s.LogLevel)
	}
	switch s.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid settings: unknown log format %q", s.LogFormat)
	}
	return nil
}

// MonteCarloOptions converts the settings into orchestrator options
func (s Settings) MonteCarloOptions() montecarlo.Options {
	return montecarlo.Options{
		Simulations:     s.Simulations,
		Workers:         s.Workers,
		BaseSeed:        s.Seed,
		Antithetic:      s.Antithetic,
		MaxFailures:     s.MaxFailures,
		MaxRetries:      s.MaxRetries,
		ScenarioTimeout: s.ScenarioTimeout,
		KeepScenarios:   s.KeepScenarios,
	}
}

// OptimizerOptions converts the settings into optimizer options
func (s Settings) OptimizerOptions() optimizer.Options {
	o := optimizer.DefaultOptions()
	o.TargetConfidence = s.Target
	o.Tolerance = s.Tolerance
	o.MaxIterations = s.MaxIterations
	o.MaxSpend = s.MaxSpend
	return o
}
