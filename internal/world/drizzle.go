package world

import (
	"math/rand"

	"github.com/talgya/hexfield/internal/diffusion"
	"github.com/talgya/hexfield/internal/hex"
)

// Drizzle drops stimuli on random live cells at a fixed cadence, keeping a
// headless field from decaying to zero.
type Drizzle struct {
	Every  uint64  // ticks between drops (0 = disabled)
	Amount float64 // energy at the drop center
	Radius int     // falloff radius of each drop

	rng   *rand.Rand
	cells []hex.Cube
}

// NewDrizzle creates a drizzle over the simulation's current live cells.
func NewDrizzle(sim *diffusion.Simulation, seed int64, every uint64, amount float64, radius int) *Drizzle {
	d := &Drizzle{
		Every:  every,
		Amount: amount,
		Radius: radius,
		rng:    rand.New(rand.NewSource(seed + 300)),
	}
	for c := range sim.AllCells() {
		d.cells = append(d.cells, c)
	}
	return d
}

// Maybe drops a stimulus when tick falls on the cadence. Returns the drop
// center and true when one was applied.
func (d *Drizzle) Maybe(sim *diffusion.Simulation, tick uint64) (hex.Cube, bool) {
	if d == nil || d.Every == 0 || len(d.cells) == 0 || tick%d.Every != 0 {
		return hex.Cube{}, false
	}
	center := d.cells[d.rng.Intn(len(d.cells))]
	sim.ApplyStimulusRadius(center, d.Radius, d.Amount)
	return center, true
}
