package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rgehrsitz/rpmc/internal/domain"
)

// InputParser handles parsing of simulation parameter files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads simulation parameters from a YAML (or JSON) file, fills
// in defaults and validates the result
func (ip *InputParser) LoadFromFile(filename string) (domain.SimulationParameters, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return domain.SimulationParameters{}, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data)
}

// Parse decodes and validates parameters. Unknown keys are rejected so typos
// do not silently fall back to defaults.
func (ip *InputParser) Parse(data []byte) (domain.SimulationParameters, error) {
	var params domain.SimulationParameters

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&params); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.SimulationParameters{}, fmt.Errorf("failed to parse YAML: empty document")
		}
		return domain.SimulationParameters{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return domain.SimulationParameters{}, fmt.Errorf("parameter validation failed: %w", err)
	}
	return params, nil
}

// Write encodes parameters as YAML
func (ip *InputParser) Write(w io.Writer, params domain.SimulationParameters) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(params); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}
