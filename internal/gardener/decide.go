package gardener

import (
	"fmt"
	"log/slog"
)

// Policy tunes how eagerly the gardener feeds the field.
type Policy struct {
	Floor    float64 // mean energy per cell to maintain
	Amount   float64 // energy at the stimulus center
	Radius   int     // stimulus falloff radius
	Cooldown uint64  // minimum ticks between interventions
}

// DefaultPolicy returns a gentle policy for the default field.
func DefaultPolicy() Policy {
	return Policy{
		Floor:    0.05,
		Amount:   2.0,
		Radius:   3,
		Cooldown: 600,
	}
}

// Stimulus is the request body for POST /api/v1/stimulus.
type Stimulus struct {
	Q      int     `json:"q"`
	R      int     `json:"r"`
	Amount float64 `json:"amount"`
	Radius int     `json:"radius"`
}

// Decision is the outcome of one decide step. Action is "none" or "stimulate".
type Decision struct {
	Action    string    `json:"action"`
	Rationale string    `json:"rationale"`
	Stimulus  *Stimulus `json:"stimulus,omitempty"`
}

// Decide picks zero or one intervention. Critical fields are fed even during
// the cooldown; warnings wait it out; watch and healthy do nothing.
func Decide(p Policy, snap *Snapshot, h *Health, mem *CycleMemory) Decision {
	none := func(why string) Decision { return Decision{Action: "none", Rationale: why} }

	if snap.Status.Live == 0 {
		return none("field has no live cells")
	}

	cooling := false
	if last, ok := mem.LastIntervention(); ok && snap.Status.Tick < last+p.Cooldown {
		cooling = true
	}

	switch h.Level {
	case LevelCritical:
	case LevelWarning:
		if cooling {
			return none(fmt.Sprintf("mean energy %.3f below floor, waiting out cooldown", h.MeanEnergy))
		}
	case LevelWatch:
		return none(fmt.Sprintf("field decaying (trend %.3f) but above floor", h.Trend))
	default:
		return none(fmt.Sprintf("mean energy %.3f is healthy", h.MeanEnergy))
	}

	d := Decision{
		Action:    "stimulate",
		Rationale: fmt.Sprintf("%s: mean energy %.3f, feeding coldest cell A[%d, %d]", h.Level, h.MeanEnergy, h.Coldest.Q, h.Coldest.R),
		Stimulus: &Stimulus{
			Q:      h.Coldest.Q,
			R:      h.Coldest.R,
			Amount: p.Amount,
			Radius: p.Radius,
		},
	}
	slog.Debug("gardener decision", "level", h.Level, "action", d.Action, "cooling", cooling)
	return d
}
