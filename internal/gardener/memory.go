package gardener

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
)

const maxRecords = 20

// CycleRecord captures what happened in a single gardener cycle.
type CycleRecord struct {
	Tick       uint64  `json:"tick"`
	Run        string  `json:"run,omitempty"`
	Action     string  `json:"action"`
	Level      string  `json:"level"`
	MeanEnergy float64 `json:"mean_energy"`
	Rationale  string  `json:"rationale,omitempty"`
}

// CycleMemory is a ring of recent gardener cycle records.
type CycleMemory struct {
	Records []CycleRecord `json:"records"`
}

// LoadMemory reads the memory file. A missing file yields empty memory;
// a corrupt one is logged and discarded.
func LoadMemory(path string) *CycleMemory {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("gardener memory unreadable, starting fresh", "error", err)
		}
		return &CycleMemory{}
	}
	var mem CycleMemory
	if err := json.Unmarshal(data, &mem); err != nil {
		slog.Warn("gardener memory corrupted, starting fresh", "error", err)
		return &CycleMemory{}
	}
	return &mem
}

// Save writes the memory to path.
func (m *CycleMemory) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal gardener memory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write gardener memory: %w", err)
	}
	return nil
}

// Record adds a cycle record, trimming to maxRecords. Records from a
// different run than the newest are dropped, since ticks restart with it.
func (m *CycleMemory) Record(r CycleRecord) {
	if n := len(m.Records); n > 0 && m.Records[n-1].Run != r.Run {
		m.Records = nil
	}
	m.Records = append(m.Records, r)
	if len(m.Records) > maxRecords {
		m.Records = m.Records[len(m.Records)-maxRecords:]
	}
}

// LastIntervention returns the tick of the most recent stimulate cycle.
func (m *CycleMemory) LastIntervention() (uint64, bool) {
	if m == nil {
		return 0, false
	}
	for i := len(m.Records) - 1; i >= 0; i-- {
		if m.Records[i].Action == "stimulate" {
			return m.Records[i].Tick, true
		}
	}
	return 0, false
}
