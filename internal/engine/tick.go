// Package engine drives a simulation forward at a fixed frame rate and
// serializes every outside access with the tick in progress.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// TicksPerSecond is the frame rate the engine targets at speed 1.
const TicksPerSecond = 60

// Engine drives the simulation forward.
type Engine struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Speed    float64       // Multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // Base tick interval (default 1/60 s)

	// Callbacks are set during setup and invoked with the engine lock held.
	OnTick   func(tick uint64) // Every tick (one frame)
	OnSecond func(tick uint64) // Every TicksPerSecond ticks

	mu      sync.Mutex
	running atomic.Bool
	stop    chan struct{}
	once    sync.Once
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		Speed:    1.0,
		Interval: time.Second / TicksPerSecond,
		stop:     make(chan struct{}),
	}
}

// Do runs fn between ticks. No tick starts until fn returns, and fn never
// observes a half-finished tick. fn must not call Do.
func (e *Engine) Do(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn()
}

// SetSpeed changes the speed multiplier. Negative values pause.
func (e *Engine) SetSpeed(speed float64) {
	e.Do(func() { e.Speed = max(speed, 0) })
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run starts the simulation loop. Blocks until ctx is done or Stop is called.
func (e *Engine) Run(ctx context.Context) {
	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("simulation engine started", "tick", e.currentTick(), "speed", e.currentSpeed())

	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation engine stopped", "tick", e.currentTick(), "reason", ctx.Err())
			return
		case <-e.stop:
			slog.Info("simulation engine stopped", "tick", e.currentTick())
			return
		default:
		}

		speed := e.currentSpeed()
		if speed <= 0 {
			// Paused: sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		e.Do(e.step)

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}
}

// Stop halts the simulation loop. Safe to call more than once.
func (e *Engine) Stop() {
	e.once.Do(func() { close(e.stop) })
}

// Advance runs n ticks synchronously without sleeping. Used by tests and
// turn-based hosts.
func (e *Engine) Advance(n int) {
	for i := 0; i < n; i++ {
		e.Do(e.step)
	}
}

// step advances one tick. Caller holds e.mu.
func (e *Engine) step() {
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}

	if e.Tick%TicksPerSecond == 0 && e.OnSecond != nil {
		e.OnSecond(e.Tick)
	}
}

func (e *Engine) currentTick() uint64 {
	var t uint64
	e.Do(func() { t = e.Tick })
	return t
}

func (e *Engine) currentSpeed() float64 {
	var s float64
	e.Do(func() { s = e.Speed })
	return s
}

// FrameTime returns a human-readable simulated time for a tick number.
func FrameTime(tick uint64) string {
	frames := tick % TicksPerSecond
	totalSeconds := tick / TicksPerSecond
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60

	return fmt.Sprintf("%d:%02d:%02d+%02d", hours, minutes, seconds, frames)
}
