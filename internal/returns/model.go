package returns

import (
	"fmt"
	"math"

	"github.com/rgehrsitz/rpmc/internal/domain"
)

// Distribution identifies the return-generating process
type Distribution string

const (
	Normal   Distribution = domain.DistributionNormal
	StudentT Distribution = domain.DistributionStudentT
	Merton   Distribution = domain.DistributionMerton
)

// minDegreesOfFreedom is the lowest df accepted for Student-t returns; the
// variance df/(df-2) is undefined at 2 and numerically unstable just above it.
const minDegreesOfFreedom = 2.1

// AssetClass is a float view of a domain.AssetClass
type AssetClass struct {
	Name   string
	Weight float64
	Mean   float64
	StdDev float64
}

// Config configures the model
type Config struct {
	Distribution     Distribution
	DegreesOfFreedom float64
	JumpProbability  float64
	JumpMean         float64
	JumpStd          float64
	Classes          []AssetClass
	InflationMean    float64
	InflationStdDev  float64
}

// ConfigFromAssumptions converts the decimal assumptions used in parameter files
func ConfigFromAssumptions(a domain.ReturnAssumptions) Config {
	cfg := Config{
		Distribution:     Distribution(a.Distribution),
		DegreesOfFreedom: a.DegreesOfFreedom.InexactFloat64(),
		JumpProbability:  a.JumpProbability.InexactFloat64(),
		JumpMean:         a.JumpMean.InexactFloat64(),
		JumpStd:          a.JumpStd.InexactFloat64(),
		InflationMean:    a.InflationMean.InexactFloat64(),
		InflationStdDev:  a.InflationStdDev.InexactFloat64(),
	}
	for _, c := range a.AssetClasses {
		cfg.Classes = append(cfg.Classes, AssetClass{
			Name:   c.Name,
			Weight: c.Weight.InexactFloat64(),
			Mean:   c.Mean.InexactFloat64(),
			StdDev: c.StdDev.InexactFloat64(),
		})
	}
	return cfg
}

// Draw holds the random inputs of one simulated year. Keeping the draw
// separate from its evaluation is what makes the antithetic mirror exact.
type Draw struct {
	Shocks         []float64 // per-class standard normal
	ChiSquare      []float64 // per-class chi-square(df)/df, Student-t only
	JumpUniform    float64
	JumpShock      float64
	InflationShock float64
}

// Sample is the evaluated outcome of a draw
type Sample struct {
	ClassReturns []float64
	Blended      float64
	Inflation    float64
	Jumped       bool
}

// Model samples blended annual returns. It is immutable and safe for concurrent use;
// all randomness comes from the Stream passed to Draw/Sample.
type Model struct {
	cfg    Config
	tScale float64
}

// NewModel validates the configuration and builds a model
func NewModel(cfg Config) (*Model, error) {
	if len(cfg.Classes) == 0 {
		return nil, &domain.InvalidParameterError{Field: "returns.asset_classes", Message: "at least one asset class is required"}
	}
	total := 0.0
	for _, c := range cfg.Classes {
		if c.Weight < 0 || c.StdDev < 0 {
			return nil, &domain.InvalidParameterError{Field: "returns.asset_classes", Message: fmt.Sprintf("class %q has a negative weight or stddev", c.Name)}
		}
		total += c.Weight
	}
	if math.Abs(total-1) > 1e-6 {
		return nil, &domain.InvalidParameterError{Field: "returns.asset_classes", Message: fmt.Sprintf("allocation weights must sum to 1, got %.6f", total)}
	}

	m := &Model{cfg: cfg, tScale: 1}
	switch cfg.Distribution {
	case Normal, "":
		m.cfg.Distribution = Normal
	case StudentT:
		if cfg.DegreesOfFreedom <= minDegreesOfFreedom {
			return nil, &domain.InvalidParameterError{Field: "returns.degrees_of_freedom", Message: fmt.Sprintf("must be greater than %.1f, got %.2f", minDegreesOfFreedom, cfg.DegreesOfFreedom)}
		}
		// Rescale so the t variate has unit variance.
		m.tScale = math.Sqrt((cfg.DegreesOfFreedom - 2) / cfg.DegreesOfFreedom)
	case Merton:
		if cfg.JumpProbability < 0 || cfg.JumpProbability > 1 {
			return nil, &domain.InvalidParameterError{Field: "returns.jump_probability", Message: "must be between 0 and 1"}
		}
		if cfg.JumpStd < 0 {
			return nil, &domain.InvalidParameterError{Field: "returns.jump_std", Message: "cannot be negative"}
		}
	default:
		return nil, &domain.InvalidParameterError{Field: "returns.distribution", Message: fmt.Sprintf("unknown distribution %q", cfg.Distribution)}
	}
	return m, nil
}

// FromAssumptions builds a model straight from parameter-file assumptions
func FromAssumptions(a domain.ReturnAssumptions) (*Model, error) {
	return NewModel(ConfigFromAssumptions(a))
}

// Config returns the model configuration
func (m *Model) Config() Config { return m.cfg }

// Draw consumes the random inputs for one year. The number of values consumed
// depends only on the configuration, never on the values drawn, so paired
// streams stay aligned.
func (m *Model) Draw(s Stream) Draw {
	n := len(m.cfg.Classes)
	d := Draw{Shocks: make([]float64, n)}
	if m.cfg.Distribution == StudentT {
		d.ChiSquare = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		d.Shocks[i] = s.Normal()
		if d.ChiSquare != nil {
			d.ChiSquare[i] = chiSquare(s, m.cfg.DegreesOfFreedom) / m.cfg.DegreesOfFreedom
		}
	}
	if m.cfg.Distribution == Merton {
		d.JumpUniform = s.Uniform()
		d.JumpShock = s.Normal()
	}
	d.InflationShock = s.Normal()
	return d
}

// Mirror returns the antithetic counterpart of a draw
func (m *Model) Mirror(d Draw) Draw {
	out := Draw{
		Shocks:         make([]float64, len(d.Shocks)),
		JumpShock:      -d.JumpShock,
		InflationShock: -d.InflationShock,
	}
	for i, z := range d.Shocks {
		out.Shocks[i] = -z
	}
	if d.ChiSquare != nil {
		out.ChiSquare = append([]float64(nil), d.ChiSquare...)
	}
	if m.cfg.Distribution == Merton {
		out.JumpUniform = 1 - d.JumpUniform
	}
	return out
}

// Evaluate turns a draw into per-class returns, the blended portfolio return and inflation
func (m *Model) Evaluate(d Draw) Sample {
	out := Sample{ClassReturns: make([]float64, len(m.cfg.Classes))}
	jumped := m.cfg.Distribution == Merton && d.JumpUniform < m.cfg.JumpProbability
	jump := m.cfg.JumpMean + m.cfg.JumpStd*d.JumpShock

	for i, c := range m.cfg.Classes {
		var r float64
		switch m.cfg.Distribution {
		case StudentT:
			t := d.Shocks[i] / math.Sqrt(d.ChiSquare[i])
			r = c.Mean + c.StdDev*t*m.tScale
		default:
			r = c.Mean + c.StdDev*d.Shocks[i]
		}
		if jumped {
			r = (1+r)*(1+jump) - 1
		}
		if r < -1 {
			r = -1
		}
		out.ClassReturns[i] = r
		out.Blended += c.Weight * r
	}
	out.Jumped = jumped
	out.Inflation = m.cfg.InflationMean + m.cfg.InflationStdDev*d.InflationShock
	return out
}

// Sample draws and evaluates one year
func (m *Model) Sample(s Stream) Sample {
	return m.Evaluate(m.Draw(s))
}

// chiSquare draws a chi-square(k) variate as 2*Gamma(k/2) using raw draws so
// that mirroring leaves the scale unchanged.
func chiSquare(s Stream, k float64) float64 {
	return 2 * gamma(s, k/2)
}

// gamma implements Marsaglia and Tsang's method for Gamma(shape, 1)
func gamma(s Stream, shape float64) float64 {
	if shape < 1 {
		u := s.rawUniform()
		return gamma(s, shape+1) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		x := s.rawNormal()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := s.rawUniform()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if u > 0 && math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}
