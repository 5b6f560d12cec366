package gardener

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func snapshot(live int, total float64, cells ...Cell) *Snapshot {
	return &Snapshot{
		Status: FieldStatus{Tick: 1000, Live: live, Total: total},
		Cells:  cells,
	}
}

func TestTriageLevels(t *testing.T) {
	tests := []struct {
		name  string
		snap  *Snapshot
		level string
	}{
		{"empty field", snapshot(0, 0), LevelHealthy},
		{"critical", snapshot(100, 0.5), LevelCritical},
		{"warning", snapshot(100, 3), LevelWarning},
		{"healthy", snapshot(100, 50), LevelHealthy},
		{"decaying", &Snapshot{
			Status:  FieldStatus{Live: 100, Total: 8},
			History: []HistoryRow{{Tick: 120, Total: 8}, {Tick: 60, Total: 9}},
		}, LevelWatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if h := Triage(tt.snap, 0.05); h.Level != tt.level {
				t.Errorf("level = %s, want %s (mean %.3f, trend %.3f)", h.Level, tt.level, h.MeanEnergy, h.Trend)
			}
		})
	}
}

func TestTriageExtremes(t *testing.T) {
	h := Triage(snapshot(3, 1.5, Cell{0, 0, 0.9}, Cell{1, 0, 0.1}, Cell{0, 1, 0.5}), 0.05)
	if diff := cmp.Diff(Cell{1, 0, 0.1}, h.Coldest); diff != "" {
		t.Errorf("coldest (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Cell{0, 0, 0.9}, h.Hottest); diff != "" {
		t.Errorf("hottest (-want +got):\n%s", diff)
	}
}

func TestDecide(t *testing.T) {
	p := DefaultPolicy()
	cold := Cell{Q: 2, R: -1, Energy: 0}

	snap := snapshot(100, 3, cold)
	d := Decide(p, snap, Triage(snap, p.Floor), &CycleMemory{})
	want := &Stimulus{Q: 2, R: -1, Amount: p.Amount, Radius: p.Radius}
	if d.Action != "stimulate" {
		t.Fatalf("action = %s (%s)", d.Action, d.Rationale)
	}
	if diff := cmp.Diff(want, d.Stimulus); diff != "" {
		t.Errorf("stimulus (-want +got):\n%s", diff)
	}

	// Warning inside the cooldown waits.
	mem := &CycleMemory{Records: []CycleRecord{{Tick: 900, Action: "stimulate"}}}
	if d := Decide(p, snap, Triage(snap, p.Floor), mem); d.Action != "none" {
		t.Errorf("warning during cooldown: action = %s", d.Action)
	}

	// Critical ignores the cooldown.
	crit := snapshot(100, 0.1, cold)
	if d := Decide(p, crit, Triage(crit, p.Floor), mem); d.Action != "stimulate" {
		t.Errorf("critical during cooldown: action = %s", d.Action)
	}

	healthy := snapshot(100, 50, cold)
	if d := Decide(p, healthy, Triage(healthy, p.Floor), nil); d.Action != "none" || d.Stimulus != nil {
		t.Errorf("healthy field: %+v", d)
	}
}

func TestMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")

	mem := LoadMemory(path)
	if len(mem.Records) != 0 {
		t.Fatalf("missing file loaded %d records", len(mem.Records))
	}
	for i := range maxRecords + 5 {
		action := "none"
		if i == 3 {
			action = "stimulate"
		}
		mem.Record(CycleRecord{Tick: uint64(i), Run: "a", Action: action})
	}
	if len(mem.Records) != maxRecords {
		t.Errorf("kept %d records, want %d", len(mem.Records), maxRecords)
	}
	if _, ok := mem.LastIntervention(); ok {
		t.Errorf("trimmed intervention still reported")
	}

	mem.Record(CycleRecord{Tick: 50, Run: "a", Action: "stimulate"})
	if err := mem.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded := LoadMemory(path)
	if diff := cmp.Diff(mem, loaded); diff != "" {
		t.Errorf("reloaded memory (-want +got):\n%s", diff)
	}
	if tick, ok := loaded.LastIntervention(); !ok || tick != 50 {
		t.Errorf("LastIntervention = %d, %v", tick, ok)
	}

	loaded.Record(CycleRecord{Tick: 1, Run: "b", Action: "none"})
	if len(loaded.Records) != 1 {
		t.Errorf("new run kept %d old records", len(loaded.Records))
	}
}

func TestObserveAndAct(t *testing.T) {
	var got Stimulus
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tick":120,"live":2,"total_energy":0.01,"run":"r1"}`))
	})
	mux.HandleFunc("GET /api/v1/cells", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tick":120,"cells":[{"q":0,"r":0,"energy":0.01},{"q":1,"r":0,"energy":0}]}`))
	})
	mux.HandleFunc("GET /api/v1/stats/history", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
	})
	mux.HandleFunc("POST /api/v1/stimulus", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer k" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"applied":true,"touched":2,"energy":2,"tick":121}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	snap, err := NewObserver(srv.URL).Observe()
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if snap.Status.Run != "r1" || len(snap.Cells) != 2 || len(snap.History) != 0 {
		t.Errorf("snapshot = %+v", snap)
	}

	p := DefaultPolicy()
	d := Decide(p, snap, Triage(snap, p.Floor), nil)
	if d.Stimulus == nil {
		t.Fatalf("no stimulus decided: %s", d.Rationale)
	}
	res, err := NewActor(srv.URL, "k").Act(d.Stimulus)
	if err != nil {
		t.Fatalf("Act: %v", err)
	}
	if !res.Applied || got.Q != 1 || got.R != 0 {
		t.Errorf("result %+v, sent %+v", res, got)
	}

	if _, err := NewActor(srv.URL, "wrong").Act(d.Stimulus); err == nil {
		t.Errorf("Act with bad key succeeded")
	}
}
