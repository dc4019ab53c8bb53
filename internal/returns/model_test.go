package returns

import (
	"errors"
	"math"
	"testing"

	"github.com/rgehrsitz/rpmc/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleClass(dist Distribution) Config {
	return Config{
		Distribution:     dist,
		DegreesOfFreedom: 8,
		JumpProbability:  0.1,
		JumpMean:         -0.2,
		JumpStd:          0.1,
		Classes:          []AssetClass{{Name: "stocks", Weight: 1, Mean: 0.07, StdDev: 0.15}},
		InflationMean:    0.025,
		InflationStdDev:  0.01,
	}
}

func moments(xs []float64) (mean, sd float64) {
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	for _, x := range xs {
		sd += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(sd / float64(len(xs)-1))
}

func TestNewModel_Validation(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{
			name:  "df at the instability boundary",
			cfg:   Config{Distribution: StudentT, DegreesOfFreedom: 2.1, Classes: []AssetClass{{Weight: 1}}},
			field: "returns.degrees_of_freedom",
		},
		{
			name:  "weights off",
			cfg:   Config{Distribution: Normal, Classes: []AssetClass{{Weight: 0.5}, {Weight: 0.4}}},
			field: "returns.asset_classes",
		},
		{
			name:  "no classes",
			cfg:   Config{Distribution: Normal},
			field: "returns.asset_classes",
		},
		{
			name:  "unknown",
			cfg:   Config{Distribution: "cauchy", Classes: []AssetClass{{Weight: 1}}},
			field: "returns.distribution",
		},
		{
			name:  "jump probability out of range",
			cfg:   Config{Distribution: Merton, JumpProbability: 1.5, Classes: []AssetClass{{Weight: 1}}},
			field: "returns.jump_probability",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewModel(tt.cfg)
			var ipe *domain.InvalidParameterError
			require.True(t, errors.As(err, &ipe))
			assert.Equal(t, tt.field, ipe.Field)
		})
	}
}

func TestSample_MatchesTargetMoments(t *testing.T) {
	for _, dist := range []Distribution{Normal, StudentT} {
		t.Run(string(dist), func(t *testing.T) {
			m, err := NewModel(singleClass(dist))
			require.NoError(t, err)

			s := NewStream(11)
			xs := make([]float64, 40000)
			for i := range xs {
				xs[i] = m.Sample(s).Blended
			}
			mean, sd := moments(xs)
			assert.InDelta(t, 0.07, mean, 0.005)
			assert.InDelta(t, 0.15, sd, 0.01)
		})
	}
}

func TestSample_MertonJumpsLowerTheMean(t *testing.T) {
	m, err := NewModel(singleClass(Merton))
	require.NoError(t, err)

	s := NewStream(5)
	jumps := 0
	xs := make([]float64, 40000)
	for i := range xs {
		sample := m.Sample(s)
		xs[i] = sample.Blended
		if sample.Jumped {
			jumps++
		}
	}
	mean, _ := moments(xs)
	// E[(1+r)(1+J)] - 1 with p=0.1, J~N(-0.2, 0.1)
	expected := 0.9*0.07 + 0.1*(1.07*0.8-1)
	assert.InDelta(t, expected, mean, 0.006)
	assert.InDelta(t, 0.1, float64(jumps)/float64(len(xs)), 0.01)
}

func TestSample_NeverBelowTotalLoss(t *testing.T) {
	cfg := singleClass(Normal)
	cfg.Classes[0].StdDev = 2
	m, err := NewModel(cfg)
	require.NoError(t, err)

	s := NewStream(1)
	for i := 0; i < 5000; i++ {
		assert.GreaterOrEqual(t, m.Sample(s).Blended, -1.0)
	}
}

func TestMirror_EqualsMirroredStream(t *testing.T) {
	for _, dist := range []Distribution{Normal, StudentT, Merton} {
		t.Run(string(dist), func(t *testing.T) {
			cfg := singleClass(dist)
			cfg.Classes = []AssetClass{
				{Name: "stocks", Weight: 0.7, Mean: 0.07, StdDev: 0.16},
				{Name: "bonds", Weight: 0.3, Mean: 0.03, StdDev: 0.05},
			}
			m, err := NewModel(cfg)
			require.NoError(t, err)

			plain := NewStream(99)
			mirrored := plain.Mirrored()
			for year := 0; year < 30; year++ {
				d := m.Draw(plain)
				md := m.Draw(mirrored)
				assert.Equal(t, m.Mirror(d), md)
				assert.Equal(t, m.Evaluate(m.Mirror(d)), m.Evaluate(md))
			}
		})
	}
}

func TestMirror_NormalShocksCancel(t *testing.T) {
	m, err := NewModel(singleClass(Normal))
	require.NoError(t, err)

	d := m.Draw(NewStream(3))
	a := m.Evaluate(d)
	b := m.Evaluate(m.Mirror(d))
	assert.InDelta(t, 2*0.07, a.Blended+b.Blended, 1e-12)
	assert.InDelta(t, 2*0.025, a.Inflation+b.Inflation, 1e-12)
}

func TestStreamFor(t *testing.T) {
	s0 := StreamFor(100, 0, false)
	s5 := StreamFor(100, 5, false)
	assert.Equal(t, int64(100), s0.Seed())
	assert.Equal(t, int64(105), s5.Seed())

	a := StreamFor(100, 4, true)
	b := StreamFor(100, 5, true)
	assert.Equal(t, int64(102), a.Seed())
	assert.Equal(t, int64(102), b.Seed())
	assert.False(t, a.IsMirrored())
	assert.True(t, b.IsMirrored())
	assert.Equal(t, -a.Normal(), b.Normal())
}

func TestStream_Deterministic(t *testing.T) {
	a, b := NewStream(42), NewStream(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Normal(), b.Normal())
		assert.Equal(t, a.Uniform(), b.Uniform())
	}
}

func TestFromAssumptions(t *testing.T) {
	m, err := FromAssumptions(domain.ExampleSingle().Returns)
	require.NoError(t, err)
	assert.Len(t, m.Config().Classes, 2)
	assert.Equal(t, Normal, m.Config().Distribution)
}
