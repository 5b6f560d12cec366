package gardener

import "math"

// Crisis levels, most severe first.
const (
	LevelCritical = "CRITICAL"
	LevelWarning  = "WARNING"
	LevelWatch    = "WATCH"
	LevelHealthy  = "HEALTHY"
)

// Health holds derived diagnostic signals computed from a Snapshot.
type Health struct {
	MeanEnergy float64 // total / live
	Trend      float64 // mean change in total per history sample; negative is decay
	Coldest    Cell
	Hottest    Cell
	Level      string
}

// Triage computes a Health from the snapshot. floor is the mean energy per
// cell below which the field counts as starving.
func Triage(snap *Snapshot, floor float64) *Health {
	h := &Health{Level: LevelHealthy}

	if snap.Status.Live > 0 {
		h.MeanEnergy = snap.Status.Total / float64(snap.Status.Live)
	}

	coldest, hottest := math.Inf(1), math.Inf(-1)
	for _, c := range snap.Cells {
		if c.Energy < coldest {
			coldest, h.Coldest = c.Energy, c
		}
		if c.Energy > hottest {
			hottest, h.Hottest = c.Energy, c
		}
	}

	// History is sorted by tick DESC, so [0] is newest.
	if n := len(snap.History); n >= 2 {
		h.Trend = (snap.History[0].Total - snap.History[n-1].Total) / float64(n-1)
	}

	switch {
	case snap.Status.Live == 0:
		h.Level = LevelHealthy // nothing to tend
	case h.MeanEnergy < floor/4:
		h.Level = LevelCritical
	case h.MeanEnergy < floor:
		h.Level = LevelWarning
	case h.Trend < 0 && h.MeanEnergy < 2*floor:
		h.Level = LevelWatch
	}
	return h
}
