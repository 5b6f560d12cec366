package diffusion

import (
	"fmt"
	"math"
)

// Config holds the tunable constants of the diffusion rule.
type Config struct {
	DispersalFactor float64 `json:"dispersal_factor"` // fraction of energy handed to neighbours per unit time
	Dt              float64 `json:"dt"`               // tick duration used by Step
	LossFactor      float64 `json:"loss_factor"`      // outflow multiplier; >1 damps the field
	StimulusAmount  float64 `json:"stimulus_amount"`  // energy added by Stimulate
}

// DefaultConfig returns the constants the grid was tuned with: one tick per
// frame at 60 FPS and a 10% damping loss on outflow.
func DefaultConfig() Config {
	return Config{
		DispersalFactor: 0.4,
		Dt:              1.0 / 60.0,
		LossFactor:      1.1,
		StimulusAmount:  1.0,
	}
}

// Validate rejects negative or non-finite constants.
func (c Config) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"dispersal_factor", c.DispersalFactor},
		{"dt", c.Dt},
		{"loss_factor", c.LossFactor},
		{"stimulus_amount", c.StimulusAmount},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%s: %w", f.name, ErrNotFinite)
		}
		if f.value < 0 {
			return fmt.Errorf("%s = %g: %w", f.name, f.value, ErrNegative)
		}
	}
	return nil
}
