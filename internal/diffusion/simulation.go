// Package diffusion redistributes a scalar energy across a hex lattice,
// one lock-step tick at a time.
package diffusion

import (
	"cmp"
	"errors"
	"iter"
	"log/slog"
	"math"
	"slices"

	"github.com/talgya/hexfield/internal/hex"
)

var (
	ErrNotFinite = errors.New("value is not finite")
	ErrNegative  = errors.New("value is negative")
)

// Cell is one live lattice cell and its energy.
type Cell struct {
	Coord  hex.Cube `json:"coord"`
	Energy float64  `json:"energy"`
}

// Stats summarizes the field after the most recent tick.
type Stats struct {
	Tick  uint64  `json:"tick"`
	Live  int     `json:"live"`
	Total float64 `json:"total"`
	Max   float64 `json:"max"`
	Min   float64 `json:"min"`
}

// Simulation owns the energy map. Cells exist only after Initialize;
// neither ticks nor stimuli ever create cells.
//
// A Simulation is not safe for concurrent use. Hosts serialize calls.
type Simulation struct {
	Config Config

	energy map[hex.Cube]float64
	order  []hex.Cube // live cells sorted by (R, Q), rebuilt by Initialize
	inflow map[hex.Cube]float64
	tick   uint64
}

// New creates an empty simulation.
func New(cfg Config) *Simulation {
	return &Simulation{
		Config: cfg,
		energy: make(map[hex.Cube]float64),
		inflow: make(map[hex.Cube]float64),
	}
}

// Initialize makes every offset a live cell with energy 0.
// Cells that already exist keep their energy. Returns the live cell count.
func (s *Simulation) Initialize(offsets []hex.Offset) int {
	for _, o := range offsets {
		c := o.ToCube()
		if _, ok := s.energy[c]; !ok {
			s.energy[c] = 0
		}
	}

	s.order = s.order[:0]
	for c := range s.energy {
		s.order = append(s.order, c)
	}
	slices.SortFunc(s.order, compareCube)

	slog.Debug("diffusion grid initialized", "offsets", len(offsets), "live", len(s.energy))
	return len(s.energy)
}

// Step advances one tick using the configured dt and dispersal factor.
func (s *Simulation) Step() {
	s.Advance(s.Config.Dt, s.Config.DispersalFactor)
}

// Advance runs one lock-step tick.
//
// Pass one reads every cell's current energy and accumulates the share each
// neighbour receives into a separate inflow map. Pass two writes the new
// values. No cell observes another cell's updated energy within a tick.
func (s *Simulation) Advance(dt, dispersal float64) {
	s.tick++
	if dispersal == 0 || dt == 0 {
		return
	}

	clear(s.inflow)
	for _, c := range s.order {
		share := dispersal * dt * s.energy[c] / hex.DirectionCount
		if share == 0 {
			continue
		}
		for _, n := range c.Neighbours() {
			s.inflow[n] += share
		}
	}

	loss := s.Config.LossFactor * dispersal * dt
	for _, c := range s.order {
		e := s.energy[c]
		s.energy[c] = e - loss*e + s.inflow[c]
	}

	// Inflow routed to coordinates outside the live set is discarded with the map.
}

// ApplyStimulus adds amount to the cell at c. Returns false, changing
// nothing, when c is not a live cell.
func (s *Simulation) ApplyStimulus(c hex.Cube, amount float64) bool {
	e, ok := s.energy[c]
	if !ok {
		return false
	}
	s.energy[c] = e + amount
	return true
}

// Stimulate adds the configured stimulus amount to c.
func (s *Simulation) Stimulate(c hex.Cube) bool {
	return s.ApplyStimulus(c, s.Config.StimulusAmount)
}

// ApplyStimulusRadius adds energy to every live cell within radius of center,
// falling off linearly: the center receives amount and cells at distance
// radius receive amount/(radius+1). Returns the number of cells touched.
func (s *Simulation) ApplyStimulusRadius(center hex.Cube, radius int, amount float64) int {
	touched := 0
	for _, c := range center.Within(radius) {
		d := center.DistanceTo(c)
		weight := float64(radius+1-d) / float64(radius+1)
		if s.ApplyStimulus(c, amount*weight) {
			touched++
		}
	}
	return touched
}

// EnergyOf returns the energy at c, or 0 when c is not a live cell.
func (s *Simulation) EnergyOf(c hex.Cube) float64 {
	return s.energy[c]
}

// Contains reports whether c is a live cell.
func (s *Simulation) Contains(c hex.Cube) bool {
	_, ok := s.energy[c]
	return ok
}

// Len returns the number of live cells.
func (s *Simulation) Len() int {
	return len(s.energy)
}

// Tick returns the number of ticks advanced so far.
func (s *Simulation) Tick() uint64 {
	return s.tick
}

// AllCells yields every live cell ordered by (R, Q). The sequence may be
// ranged over any number of times; mutating the simulation during iteration
// is not supported.
func (s *Simulation) AllCells() iter.Seq2[hex.Cube, float64] {
	return func(yield func(hex.Cube, float64) bool) {
		for _, c := range s.order {
			if !yield(c, s.energy[c]) {
				return
			}
		}
	}
}

// Snapshot copies the current field.
func (s *Simulation) Snapshot() []Cell {
	cells := make([]Cell, 0, len(s.order))
	for c, e := range s.AllCells() {
		cells = append(cells, Cell{Coord: c, Energy: e})
	}
	return cells
}

// Stats computes aggregate energy over the live set.
func (s *Simulation) Stats() Stats {
	st := Stats{Tick: s.tick, Live: len(s.energy)}
	if len(s.energy) == 0 {
		return st
	}
	st.Max = math.Inf(-1)
	st.Min = math.Inf(1)
	for _, e := range s.energy {
		st.Total += e
		st.Max = max(st.Max, e)
		st.Min = min(st.Min, e)
	}
	return st
}

func compareCube(a, b hex.Cube) int {
	if c := cmp.Compare(a.R, b.R); c != 0 {
		return c
	}
	return cmp.Compare(a.Q, b.Q)
}
