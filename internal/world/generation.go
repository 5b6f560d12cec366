// Package world sets up the live cell grid and the stimuli that feed it.
package world

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/hexfield/internal/diffusion"
	"github.com/talgya/hexfield/internal/entropy"
	"github.com/talgya/hexfield/internal/hex"
)

// GenConfig holds grid setup parameters. The grid is the offset rectangle
// [MinCol, MaxCol] x [MinRow, MaxRow], inclusive.
type GenConfig struct {
	MinCol, MaxCol int
	MinRow, MaxRow int
	Seed           int64   // Noise seed (0 = random)
	NoiseAmplitude float64 // Peak initial energy from noise (0 = flat field)
}

// DefaultGenConfig returns the 51x51 grid centered on the origin.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		MinCol: -25, MaxCol: 25,
		MinRow: -25, MaxRow: 25,
	}
}

// SmallTestConfig returns a tiny grid for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		MinCol: -3, MaxCol: 3,
		MinRow: -3, MaxRow: 3,
		Seed:           42,
		NoiseAmplitude: 0.5,
	}
}

// Offsets enumerates the rectangle row by row. Empty when a max is below its min.
func Offsets(cfg GenConfig) []hex.Offset {
	if cfg.MaxCol < cfg.MinCol || cfg.MaxRow < cfg.MinRow {
		return nil
	}
	offsets := make([]hex.Offset, 0, (cfg.MaxCol-cfg.MinCol+1)*(cfg.MaxRow-cfg.MinRow+1))
	for row := cfg.MinRow; row <= cfg.MaxRow; row++ {
		for col := cfg.MinCol; col <= cfg.MaxCol; col++ {
			offsets = append(offsets, hex.NewOffset(col, row))
		}
	}
	return offsets
}

// Generate creates a simulation with the rectangle live and the optional
// noise field applied.
func Generate(cfg GenConfig, simCfg diffusion.Config) *diffusion.Simulation {
	sim := diffusion.New(simCfg)
	sim.Initialize(Offsets(cfg))
	Seed(sim, cfg)
	return sim
}

// Seed lays a layered simplex noise field over the live cells, scaled to
// [0, NoiseAmplitude]. Returns the number of cells that received energy.
func Seed(sim *diffusion.Simulation, cfg GenConfig) int {
	if cfg.NoiseAmplitude <= 0 {
		return 0
	}
	noise := opensimplex.NewNormalized(entropy.Resolve(nil, cfg.Seed))

	// Collect first: AllCells must not be ranged while the field is mutated.
	var cells []hex.Cube
	for c := range sim.AllCells() {
		cells = append(cells, c)
	}

	seeded := 0
	for _, c := range cells {
		// Axial to continuous plane: x = q + r/2, y = r * sqrt(3)/2.
		x := float64(c.Q) + float64(c.R)*0.5
		y := float64(c.R) * math.Sqrt(3.0) / 2.0
		e := octaveNoise(noise, x, y, 4, 0.08, 0.5) * cfg.NoiseAmplitude
		if e > 0 && sim.ApplyStimulus(c, e) {
			seeded++
		}
	}
	return seeded
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
