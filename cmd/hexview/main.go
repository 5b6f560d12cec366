// Command hexview renders the diffusion field in a window. Clicking a cell
// stimulates it.
//
// Controls: WASD or arrows pan (shift for fast), Q/E zoom, space pauses,
// R toggles the idle ripple.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/talgya/hexfield/internal/diffusion"
	"github.com/talgya/hexfield/internal/engine"
	"github.com/talgya/hexfield/internal/entropy"
	"github.com/talgya/hexfield/internal/hex"
	"github.com/talgya/hexfield/internal/layout"
	"github.com/talgya/hexfield/internal/world"
)

const (
	panSpeed     = 4.0 // world units per second
	fastMultiple = 4
	minZoom      = 4
	maxZoom      = 200
)

var gridColor = color.RGBA{R: 90, G: 90, B: 110, A: 255}

type viewer struct {
	sim    *engine.Simulation
	eng    *engine.Engine
	layout layout.Layout

	camera mgl32.Vec2 // world XZ at the screen center
	zoom   float32    // pixels per world unit
	width  int
	height int

	amount  float64
	radius  int
	paused  bool
	ripple  bool
	started time.Time
	hovered hex.Cube
}

func (v *viewer) Layout(outsideW, outsideH int) (int, int) {
	v.width, v.height = outsideW, outsideH
	return outsideW, outsideH
}

// screenToWorld maps a pixel to the ground plane.
func (v *viewer) screenToWorld(x, y int) mgl32.Vec3 {
	wx := v.camera.X() + (float32(x)-float32(v.width)/2)/v.zoom
	wz := v.camera.Y() + (float32(y)-float32(v.height)/2)/v.zoom
	return mgl32.Vec3{wx, 0, wz}
}

func (v *viewer) worldToScreen(p mgl32.Vec3) (float32, float32) {
	return (p.X()-v.camera.X())*v.zoom + float32(v.width)/2,
		(p.Z()-v.camera.Y())*v.zoom + float32(v.height)/2
}

func (v *viewer) Update() error {
	dt := float32(1) / float32(ebiten.TPS())
	step := panSpeed * dt
	if ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight) {
		step *= fastMultiple
	}
	var pan mgl32.Vec2
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		pan[1] -= step
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		pan[1] += step
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		pan[0] -= step
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		pan[0] += step
	}
	v.camera = v.camera.Add(pan)

	if ebiten.IsKeyPressed(ebiten.KeyQ) {
		v.zoom = max(v.zoom*(1-2*dt), minZoom)
	}
	if ebiten.IsKeyPressed(ebiten.KeyE) {
		v.zoom = min(v.zoom*(1+2*dt), maxZoom)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		v.paused = !v.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		v.ripple = !v.ripple
	}

	v.hovered = v.layout.Pick(v.screenToWorld(ebiten.CursorPosition()))
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		target := v.hovered
		v.eng.Do(func() {
			if v.radius > 0 {
				v.sim.StimulateRadius(target, v.radius, v.amount, engine.SourceViewer)
			} else {
				v.sim.Stimulate(target, v.amount, engine.SourceViewer)
			}
		})
	}

	if !v.paused {
		v.eng.Advance(1)
	}
	return nil
}

// energyColor runs from blue at zero to orange at the field maximum.
func energyColor(e, maxEnergy float64) color.RGBA {
	t := 0.0
	if maxEnergy > 0 {
		t = min(max(e/maxEnergy, 0), 1)
	}
	return color.RGBA{
		R: uint8(40 + 215*t),
		G: uint8(60 + 100*t),
		B: uint8(200 * (1 - t)),
		A: 255,
	}
}

func (v *viewer) Draw(screen *ebiten.Image) {
	seconds := time.Since(v.started).Seconds()

	var (
		stats   diffusion.Stats
		tick    uint64
		hovered float64
	)
	v.eng.Do(func() {
		stats = v.sim.Stats
		tick = v.eng.Tick
		hovered = v.sim.Field.EnergyOf(v.hovered)

		for c, e := range v.sim.Field.AllCells() {
			corners := v.layout.Corners(c.ToAxial())
			for i := range corners {
				x1, y1 := v.worldToScreen(corners[i])
				x2, y2 := v.worldToScreen(corners[(i+1)%len(corners)])
				vector.StrokeLine(screen, x1, y1, x2, y2, 1, gridColor, false)
			}

			p := v.layout.Placement(c, e)
			cx, cy := v.worldToScreen(p)
			// Lift shows as dot size: a resting cell fills ~40% of its hexagon.
			r := v.layout.Size * v.zoom * 0.4 * p.Y() / v.layout.BaseHeight
			if v.ripple {
				r *= layout.Ripple(c.DistanceTo(hex.Origin()), seconds)
			}
			r = min(max(r, 1), v.layout.Size*v.zoom)
			vector.FillCircle(screen, cx, cy, r, energyColor(e, stats.Max), false)
		}
	})

	state := "running"
	if v.paused {
		state = "paused"
	}
	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"%s  %s  cells %d\ntotal %.3f  max %.3f\n%s %s energy %.3f\nTPS %.0f",
		engine.FrameTime(tick), state, stats.Live,
		stats.Total, stats.Max,
		v.hovered, v.hovered.ToOffset(), hovered,
		ebiten.ActualTPS(),
	))
}

func main() {
	radius := flag.Int("radius", 12, "grid half-extent in columns and rows")
	seed := flag.Int64("seed", 42, "noise seed (0 = random)")
	noise := flag.Float64("noise", 0.5, "initial noise amplitude")
	dispersal := flag.Float64("dispersal", diffusion.DefaultConfig().DispersalFactor, "dispersal factor k")
	loss := flag.Float64("loss", diffusion.DefaultConfig().LossFactor, "loss factor")
	amount := flag.Float64("amount", diffusion.DefaultConfig().StimulusAmount, "energy added per click")
	spread := flag.Int("spread", 0, "stimulus radius in cells (0 = single cell)")
	zoom := flag.Float64("zoom", 32, "initial pixels per world unit")
	drizzle := flag.Uint64("drizzle", 0, "ticks between autonomous stimuli (0 = off)")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	simCfg := diffusion.DefaultConfig()
	simCfg.DispersalFactor = *dispersal
	simCfg.LossFactor = *loss
	simCfg.StimulusAmount = *amount
	if err := simCfg.Validate(); err != nil {
		slog.Error("invalid diffusion config", "error", err)
		os.Exit(1)
	}

	if *seed == 0 {
		*seed = entropy.CryptoSeed()
	}
	genCfg := world.GenConfig{
		MinCol: -*radius, MaxCol: *radius,
		MinRow: -*radius, MaxRow: *radius,
		Seed:           *seed,
		NoiseAmplitude: *noise,
	}
	field := world.Generate(genCfg, simCfg)

	sim := engine.NewSimulation(field)
	if *drizzle > 0 {
		sim.Drizzle = world.NewDrizzle(field, *seed+1, *drizzle, *amount, 2)
	}
	eng := engine.NewEngine()
	eng.OnTick = sim.TickFrame
	eng.OnSecond = sim.TickSecond

	v := &viewer{
		sim:     sim,
		eng:     eng,
		layout:  layout.Default(),
		zoom:    float32(*zoom),
		amount:  *amount,
		radius:  *spread,
		ripple:  true,
		started: time.Now(),
	}

	ebiten.SetWindowTitle("hexview")
	ebiten.SetWindowSize(1280, 800)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(engine.TicksPerSecond)

	if err := ebiten.RunGame(v); err != nil {
		slog.Error("viewer exited", "error", err)
		os.Exit(1)
	}
}
