package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := LoadSettings(NewViper(), "")
	require.NoError(t, err)

	assert.Equal(t, 1000, s.Simulations)
	assert.Equal(t, 0, s.Workers)
	assert.Equal(t, int64(1), s.Seed)
	assert.Equal(t, 1, s.MaxRetries)
	assert.Equal(t, 0, s.MaxFailures)
	assert.Equal(t, 0.95, s.Target)
	assert.Equal(t, 100.0, s.Tolerance)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, "console", s.LogFormat)
}

func TestLoadSettings_FileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "rpmc.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
simulations: 500
seed: 42
antithetic: true
scenario_timeout: 2s
target: 0.9
log_format: json
`), 0o644))

	t.Setenv("RPMC_SIMULATIONS", "750")
	t.Setenv("RPMC_MAX_FAILURES", "3")

	s, err := LoadSettings(NewViper(), file)
	require.NoError(t, err)

	assert.Equal(t, 750, s.Simulations, "environment wins over the file")
	assert.Equal(t, 3, s.MaxFailures)
	assert.Equal(t, int64(42), s.Seed)
	assert.True(t, s.Antithetic)
	assert.Equal(t, 2*time.Second, s.ScenarioTimeout)
	assert.Equal(t, 0.9, s.Target)
	assert.Equal(t, "json", s.LogFormat)

	mc := s.MonteCarloOptions()
	assert.Equal(t, 750, mc.Simulations)
	assert.Equal(t, int64(42), mc.BaseSeed)
	assert.True(t, mc.Antithetic)
	assert.Equal(t, 2*time.Second, mc.ScenarioTimeout)

	opt := s.OptimizerOptions()
	assert.Equal(t, 0.9, opt.TargetConfidence)
	assert.Equal(t, 100.0, opt.Tolerance)
}

func TestLoadSettings_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"zero simulations", "simulations", 0},
		{"negative retries", "max_retries", -1},
		{"bad log level", "log_level", "loud"},
		{"bad log format", "log_format", "xml"},
		{"negative timeout", "timeout", -time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewViper()
			v.Set(tt.key, tt.val)
			_, err := LoadSettings(v, "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid settings")
		})
	}
}

func TestLoadSettings_MissingFile(t *testing.T) {
	_, err := LoadSettings(NewViper(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read settings")
}
