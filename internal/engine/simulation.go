// Simulation ties the diffusion field to its stimuli and telemetry and runs
// them each tick.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/hexfield/internal/diffusion"
	"github.com/talgya/hexfield/internal/hex"
	"github.com/talgya/hexfield/internal/world"
)

// Stimulus sources.
const (
	SourceAPI     = "api"
	SourceViewer  = "viewer"
	SourceDrizzle = "drizzle"
)

// Event is one stimulus applied to the field.
type Event struct {
	Tick    uint64   `json:"tick"`
	Coord   hex.Cube `json:"coord"`
	Amount  float64  `json:"amount"`
	Source  string   `json:"source"`
	Applied bool     `json:"applied"` // false when the target was not a live cell
}

// Recorder receives telemetry. Implementations must not call back into the
// simulation.
type Recorder interface {
	RecordStats(st diffusion.Stats) error
	RecordStimulus(ev Event) error
}

// Simulation holds the field and wires stimuli and telemetry to it.
// All methods are called with the engine lock held (from callbacks or Do).
type Simulation struct {
	Field    *diffusion.Simulation
	Drizzle  *world.Drizzle // optional autonomous stimulus
	Recorder Recorder       // optional telemetry sink

	Events   []Event         // Recent stimuli, trimmed to the last 1000
	Stats    diffusion.Stats // Aggregates after the most recent tick
	LastTick uint64          // Most recent tick processed
}

// NewSimulation wraps a prepared field.
func NewSimulation(field *diffusion.Simulation) *Simulation {
	s := &Simulation{Field: field}
	s.Stats = field.Stats()
	return s
}

// TickFrame runs every tick: drizzle, then one diffusion step.
func (s *Simulation) TickFrame(tick uint64) {
	s.LastTick = tick
	if center, ok := s.Drizzle.Maybe(s.Field, tick); ok {
		s.record(Event{Tick: tick, Coord: center, Amount: s.Drizzle.Amount, Source: SourceDrizzle, Applied: true})
	}
	s.Field.Step()
	s.Stats = s.Field.Stats()
}

// TickSecond runs once per simulated second: telemetry and a status line.
func (s *Simulation) TickSecond(tick uint64) {
	if s.Recorder != nil {
		if err := s.Recorder.RecordStats(s.Stats); err != nil {
			slog.Error("record stats failed", "tick", tick, "error", err)
		}
	}

	slog.Debug("field report",
		"tick", tick,
		"time", FrameTime(tick),
		"live", s.Stats.Live,
		"total", fmt.Sprintf("%.3f", s.Stats.Total),
		"max", fmt.Sprintf("%.3f", s.Stats.Max),
	)

	if len(s.Events) > 1000 {
		s.Events = s.Events[len(s.Events)-1000:]
	}
}

// Stimulate applies amount at c and logs the event. Returns false when c is
// not a live cell.
func (s *Simulation) Stimulate(c hex.Cube, amount float64, source string) bool {
	ok := s.Field.ApplyStimulus(c, amount)
	s.record(Event{Tick: s.LastTick, Coord: c, Amount: amount, Source: source, Applied: ok})
	return ok
}

// StimulateRadius spreads amount over every live cell within radius of
// center, weighted by distance. Returns the number of cells touched.
func (s *Simulation) StimulateRadius(center hex.Cube, radius int, amount float64, source string) int {
	n := s.Field.ApplyStimulusRadius(center, radius, amount)
	s.record(Event{Tick: s.LastTick, Coord: center, Amount: amount, Source: source, Applied: n > 0})
	return n
}

func (s *Simulation) record(ev Event) {
	s.Events = append(s.Events, ev)
	if s.Recorder == nil {
		return
	}
	if err := s.Recorder.RecordStimulus(ev); err != nil {
		slog.Error("record stimulus failed", "tick", ev.Tick, "coord", ev.Coord.String(), "error", err)
	}
}
