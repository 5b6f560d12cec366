package diffusion

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/talgya/hexfield/internal/hex"
)

const eps = 1e-12

func rect(minCol, maxCol, minRow, maxRow int) []hex.Offset {
	var offsets []hex.Offset
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			offsets = append(offsets, hex.NewOffset(col, row))
		}
	}
	return offsets
}

func nearly(a, b float64) bool { return math.Abs(a-b) <= eps }

func TestInitialize(t *testing.T) {
	sim := New(DefaultConfig())
	offsets := rect(-2, 2, -2, 2)
	offsets = append(offsets, hex.NewOffset(0, 0)) // duplicate collapses

	if n := sim.Initialize(offsets); n != 25 {
		t.Fatalf("Initialize returned %d live cells, want 25", n)
	}
	for c, e := range sim.AllCells() {
		if e != 0 {
			t.Errorf("cell %v starts with energy %g, want 0", c, e)
		}
	}
}

func TestAdvanceScenario(t *testing.T) {
	sim := New(DefaultConfig())
	sim.Initialize(rect(0, 2, 0, 2))

	center := hex.NewOffset(1, 1).ToCube()
	if !sim.ApplyStimulus(center, 1.0) {
		t.Fatalf("stimulus on live center cell was rejected")
	}

	sim.Advance(1.0, 0.4)

	if got := sim.EnergyOf(center); !nearly(got, 0.56) {
		t.Errorf("center energy = %.15f, want 0.56", got)
	}

	share := 0.4 / 6
	neighbours := make(map[hex.Cube]bool)
	for _, n := range center.Neighbours() {
		if !sim.Contains(n) {
			t.Fatalf("neighbour %v of 3x3 center should be live", n)
		}
		neighbours[n] = true
		if got := sim.EnergyOf(n); !nearly(got, share) {
			t.Errorf("neighbour %v energy = %.15f, want %.15f", n, got, share)
		}
	}

	for c, e := range sim.AllCells() {
		if c != center && !neighbours[c] && e != 0 {
			t.Errorf("non-adjacent cell %v energy = %g, want 0", c, e)
		}
	}
	if sim.Len() != 9 {
		t.Errorf("tick changed live count to %d, want 9", sim.Len())
	}
}

func TestAdvanceLockStep(t *testing.T) {
	// Two adjacent charged cells must exchange using pre-tick values only.
	sim := New(DefaultConfig())
	a := hex.Origin()
	b := a.Step(hex.E)
	sim.Initialize([]hex.Offset{a.ToOffset(), b.ToOffset()})
	sim.ApplyStimulus(a, 2)
	sim.ApplyStimulus(b, 1)

	const k = 0.3
	sim.Advance(1, k)

	wantA := 2 - 1.1*k*2 + k*1/6
	wantB := 1 - 1.1*k*1 + k*2/6
	if got := sim.EnergyOf(a); !nearly(got, wantA) {
		t.Errorf("a = %.15f, want %.15f", got, wantA)
	}
	if got := sim.EnergyOf(b); !nearly(got, wantB) {
		t.Errorf("b = %.15f, want %.15f", got, wantB)
	}
}

func TestAdvanceZeroDispersal(t *testing.T) {
	sim := New(DefaultConfig())
	sim.Initialize(rect(-3, 3, -3, 3))
	sim.ApplyStimulus(hex.Origin(), 5)
	sim.ApplyStimulus(hex.NewOffset(2, -1).ToCube(), 0.25)
	before := sim.Snapshot()

	sim.Advance(1.0, 0)

	if diff := cmp.Diff(before, sim.Snapshot()); diff != "" {
		t.Errorf("zero dispersal changed the field (-before +after):\n%s", diff)
	}
	if sim.Tick() != 1 {
		t.Errorf("Tick() = %d, want 1", sim.Tick())
	}
}

func TestAdvanceDecays(t *testing.T) {
	sim := New(DefaultConfig())
	sim.Initialize(rect(-6, 6, -6, 6))
	sim.ApplyStimulus(hex.Origin(), 10)

	prev := sim.Stats().Total
	for i := 0; i < 200; i++ {
		sim.Step()
		total := sim.Stats().Total
		if total > prev+eps {
			t.Fatalf("tick %d: total energy grew from %g to %g", i, prev, total)
		}
		prev = total
	}
}

func TestStimulusAbsentCell(t *testing.T) {
	sim := New(DefaultConfig())
	sim.Initialize(rect(0, 1, 0, 1))

	outside := hex.NewAxial(40, 40).ToCube()
	if sim.ApplyStimulus(outside, 1) {
		t.Errorf("stimulus on absent cell reported success")
	}
	if sim.Contains(outside) || sim.Len() != 4 {
		t.Errorf("stimulus on absent cell created it")
	}
	if e := sim.EnergyOf(outside); e != 0 {
		t.Errorf("EnergyOf(absent) = %g, want 0", e)
	}

	corner := hex.NewOffset(0, 0).ToCube()
	if !sim.Stimulate(corner) || sim.EnergyOf(corner) != DefaultConfig().StimulusAmount {
		t.Errorf("Stimulate did not add the configured amount")
	}
	sim.Step()
	if sim.Len() != 4 {
		t.Errorf("boundary outflow created cells: live = %d", sim.Len())
	}
}

func TestApplyStimulusRadius(t *testing.T) {
	sim := New(DefaultConfig())
	sim.Initialize(rect(-5, 5, -5, 5))

	center := hex.Origin()
	if n := sim.ApplyStimulusRadius(center, 2, 3); n != 19 {
		t.Fatalf("touched %d cells, want 19", n)
	}
	if got := sim.EnergyOf(center); !nearly(got, 3) {
		t.Errorf("center = %g, want 3", got)
	}
	for _, c := range center.Ring(2) {
		if got := sim.EnergyOf(c); !nearly(got, 1) {
			t.Errorf("ring-2 cell %v = %g, want 1", c, got)
		}
	}
}

func TestAllCellsRestartable(t *testing.T) {
	sim := New(DefaultConfig())
	sim.Initialize(rect(-2, 2, -2, 2))

	count := func() int {
		n := 0
		for range sim.AllCells() {
			n++
		}
		return n
	}
	if a, b := count(), count(); a != 25 || b != 25 {
		t.Errorf("AllCells yielded %d then %d, want 25 twice", a, b)
	}

	n := 0
	for range sim.AllCells() {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Errorf("early break yielded %d cells", n)
	}
}

func TestStats(t *testing.T) {
	sim := New(DefaultConfig())
	if st := sim.Stats(); st.Live != 0 || st.Total != 0 {
		t.Errorf("empty Stats() = %+v", st)
	}

	sim.Initialize(rect(0, 2, 0, 0))
	sim.ApplyStimulus(hex.NewOffset(0, 0).ToCube(), 2)
	sim.ApplyStimulus(hex.NewOffset(2, 0).ToCube(), 0.5)

	want := Stats{Tick: 0, Live: 3, Total: 2.5, Max: 2, Min: 0}
	if diff := cmp.Diff(want, sim.Stats(), cmpopts.EquateApprox(0, eps)); diff != "" {
		t.Errorf("Stats() mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	cfg := DefaultConfig()
	cfg.DispersalFactor = -0.1
	if err := cfg.Validate(); !errors.Is(err, ErrNegative) {
		t.Errorf("negative dispersal error = %v, want ErrNegative", err)
	}

	cfg = DefaultConfig()
	cfg.Dt = math.NaN()
	if err := cfg.Validate(); !errors.Is(err, ErrNotFinite) {
		t.Errorf("NaN dt error = %v, want ErrNotFinite", err)
	}
}
