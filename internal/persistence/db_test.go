package persistence

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/talgya/hexfield/internal/diffusion"
	"github.com/talgya/hexfield/internal/engine"
	"github.com/talgya/hexfield/internal/hex"
)

// Compile-time check that DB can be handed to the engine.
var _ engine.Recorder = (*DB)(nil)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "telemetry.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordBeforeRun(t *testing.T) {
	db := openTemp(t)
	if err := db.RecordStats(diffusion.Stats{}); !errors.Is(err, errNoRun) {
		t.Errorf("RecordStats before BeginRun error = %v", err)
	}
	if err := db.RecordStimulus(engine.Event{}); !errors.Is(err, errNoRun) {
		t.Errorf("RecordStimulus before BeginRun error = %v", err)
	}
}

func TestStatsRoundTrip(t *testing.T) {
	db := openTemp(t)
	run, err := db.BeginRun(diffusion.DefaultConfig())
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if run == uuid.Nil || db.Run() != run {
		t.Fatalf("BeginRun returned %v, active %v", run, db.Run())
	}

	for tick := uint64(60); tick <= 180; tick += 60 {
		st := diffusion.Stats{Tick: tick, Live: 9, Total: float64(tick) / 60, Max: 1, Min: 0}
		if err := db.RecordStats(st); err != nil {
			t.Fatalf("RecordStats: %v", err)
		}
	}

	rows, err := db.RecentStats(run, 2)
	if err != nil {
		t.Fatalf("RecentStats: %v", err)
	}
	want := []StatsRow{
		{Tick: 180, Live: 9, Total: 3, Max: 1, Min: 0},
		{Tick: 120, Live: 9, Total: 2, Max: 1, Min: 0},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("RecentStats mismatch (-want +got):\n%s", diff)
	}

	last, err := db.GetMeta("last_run")
	if err != nil || last != run.String() {
		t.Errorf("last_run meta = %q, %v", last, err)
	}
}

func TestStimuliRoundTrip(t *testing.T) {
	db := openTemp(t)
	run, err := db.BeginRun(diffusion.DefaultConfig())
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	target := hex.NewAxial(2, -3).ToCube()
	events := []engine.Event{
		{Tick: 5, Coord: hex.Origin(), Amount: 1, Source: engine.SourceAPI, Applied: true},
		{Tick: 9, Coord: target, Amount: 0.5, Source: engine.SourceDrizzle, Applied: false},
	}
	for _, ev := range events {
		if err := db.RecordStimulus(ev); err != nil {
			t.Fatalf("RecordStimulus: %v", err)
		}
	}

	rows, err := db.RecentStimuli(run, 10)
	if err != nil {
		t.Fatalf("RecentStimuli: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Coord() != target || rows[0].Applied || rows[0].Source != engine.SourceDrizzle {
		t.Errorf("newest row = %+v", rows[0])
	}
	if rows[1].Coord() != hex.Origin() || !rows[1].Applied {
		t.Errorf("oldest row = %+v", rows[1])
	}

	// Another run does not see these rows.
	other, err := db.BeginRun(diffusion.DefaultConfig())
	if err != nil {
		t.Fatalf("second BeginRun: %v", err)
	}
	if rows, _ := db.RecentStimuli(other, 10); len(rows) != 0 {
		t.Errorf("new run sees %d old stimuli", len(rows))
	}
}
