package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/talgya/hexfield/internal/diffusion"
	"github.com/talgya/hexfield/internal/engine"
	"github.com/talgya/hexfield/internal/hex"
	"github.com/talgya/hexfield/internal/mesh"
	"github.com/talgya/hexfield/internal/persistence"
)

// cellEntry is the wire form of one live cell.
type cellEntry struct {
	Q      int     `json:"q"`
	R      int     `json:"r"`
	S      int     `json:"s"`
	Col    int     `json:"col"`
	Row    int     `json:"row"`
	Energy float64 `json:"energy"`
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Z      float32 `json:"z"`
}

func (s *Server) cellEntry(c hex.Cube, energy float64) cellEntry {
	o := c.ToOffset()
	p := s.Layout.Placement(c, energy)
	return cellEntry{
		Q: c.Q, R: c.R, S: c.S,
		Col: o.Col, Row: o.Row,
		Energy: energy,
		X:      p.X(), Y: p.Y(), Z: p.Z(),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var (
		tick    uint64
		speed   float64
		stats   diffusion.Stats
		cfg     diffusion.Config
		stimuli int
	)
	s.Eng.Do(func() {
		tick = s.Eng.Tick
		speed = s.Eng.Speed
		stats = s.Sim.Stats
		cfg = s.Sim.Field.Config
		stimuli = len(s.Sim.Events)
	})

	status := map[string]any{
		"name":          "hexfield",
		"tick":          tick,
		"ticks":         humanize.Comma(int64(tick)),
		"frame_time":    engine.FrameTime(tick),
		"speed":         speed,
		"running":       s.Eng.Running(),
		"live":          stats.Live,
		"total_energy":  stats.Total,
		"max_energy":    stats.Max,
		"config":        cfg,
		"recent_events": stimuli,
		"started":       humanize.Time(s.StartedAt),
		"uptime":        time.Since(s.StartedAt).Round(time.Second).String(),
	}
	if s.DB != nil {
		status["run"] = s.DB.Run().String()
	}
	writeJSON(w, status)
}

// handleCells returns every live cell. ?min= filters out cells below an energy.
func (s *Server) handleCells(w http.ResponseWriter, r *http.Request) {
	minEnergy := math.Inf(-1)
	if m := r.URL.Query().Get("min"); m != "" {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			http.Error(w, "invalid min", http.StatusBadRequest)
			return
		}
		minEnergy = v
	}

	var (
		tick  uint64
		cells []cellEntry
	)
	s.Eng.Do(func() {
		tick = s.Sim.Field.Tick()
		cells = make([]cellEntry, 0, s.Sim.Field.Len())
		for c, e := range s.Sim.Field.AllCells() {
			if e >= minEnergy {
				cells = append(cells, s.cellEntry(c, e))
			}
		}
	})

	writeJSON(w, map[string]any{
		"tick":  tick,
		"cells": cells,
	})
}

// parseAxial reads the {q}/{r} path values.
func parseAxial(r *http.Request) (hex.Axial, error) {
	q, err := strconv.Atoi(r.PathValue("q"))
	if err != nil {
		return hex.Axial{}, fmt.Errorf("invalid q: %w", err)
	}
	rr, err := strconv.Atoi(r.PathValue("r"))
	if err != nil {
		return hex.Axial{}, fmt.Errorf("invalid r: %w", err)
	}
	return hex.NewAxial(q, rr), nil
}

func (s *Server) handleCellDetail(w http.ResponseWriter, r *http.Request) {
	a, err := parseAxial(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c := a.ToCube()

	type neighbourEntry struct {
		Direction string  `json:"direction"`
		Q         int     `json:"q"`
		R         int     `json:"r"`
		S         int     `json:"s"`
		Live      bool    `json:"live"`
		Energy    float64 `json:"energy"`
	}

	var (
		live       bool
		entry      cellEntry
		neighbours []neighbourEntry
	)
	s.Eng.Do(func() {
		live = s.Sim.Field.Contains(c)
		if !live {
			return
		}
		entry = s.cellEntry(c, s.Sim.Field.EnergyOf(c))
		for _, d := range hex.Directions() {
			n := c.Step(d)
			neighbours = append(neighbours, neighbourEntry{
				Direction: d.String(),
				Q:         n.Q, R: n.R, S: n.S,
				Live:   s.Sim.Field.Contains(n),
				Energy: s.Sim.Field.EnergyOf(n),
			})
		}
	})

	if !live {
		http.Error(w, "cell not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"cell":       entry,
		"neighbours": neighbours,
	})
}

// handleRegion returns live cells within ?radius= (default 2, max 25) steps.
func (s *Server) handleRegion(w http.ResponseWriter, r *http.Request) {
	a, err := parseAxial(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	radius := 2
	if v := r.URL.Query().Get("radius"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 25 {
			http.Error(w, "radius must be 0-25", http.StatusBadRequest)
			return
		}
		radius = n
	}

	center := a.ToCube()
	var cells []cellEntry
	s.Eng.Do(func() {
		for _, c := range center.Within(radius) {
			if s.Sim.Field.Contains(c) {
				cells = append(cells, s.cellEntry(c, s.Sim.Field.EnergyOf(c)))
			}
		}
	})
	if cells == nil {
		cells = []cellEntry{}
	}
	writeJSON(w, map[string]any{
		"center": center,
		"radius": radius,
		"cells":  cells,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	var events []engine.Event
	s.Eng.Do(func() {
		start := max(len(s.Sim.Events)-limit, 0)
		events = append([]engine.Event{}, s.Sim.Events[start:]...)
	})
	writeJSON(w, events)
}

func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	limit := 60
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 1000 {
			limit = v
		}
	}

	rows, err := s.DB.RecentStats(s.DB.Run(), limit)
	if err != nil {
		slog.Error("stats history query failed", "error", err)
		// Empty rather than 500; the table may not have data yet.
		writeJSON(w, []persistence.StatsRow{})
		return
	}
	if rows == nil {
		rows = []persistence.StatsRow{}
	}
	writeJSON(w, rows)
}

// handleStimulusHistory returns recorded stimuli for the current run, newest first.
func (s *Server) handleStimulusHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 1000 {
			limit = v
		}
	}

	rows, err := s.DB.RecentStimuli(s.DB.Run(), limit)
	if err != nil {
		slog.Error("stimulus history query failed", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []persistence.StimulusRow{}
	}
	writeJSON(w, rows)
}

// handleMesh returns prism geometry for external renderers.
// ?size= and ?height= default to the layout's cell size and a quarter unit.
func (s *Server) handleMesh(w http.ResponseWriter, r *http.Request) {
	size := s.Layout.Size * 0.98
	height := float32(0.25)
	for name, dst := range map[string]*float32{"size": &size, "height": &height} {
		v := r.URL.Query().Get(name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 32)
		if err != nil || f <= 0 || f > 100 {
			http.Error(w, "invalid "+name, http.StatusBadRequest)
			return
		}
		*dst = float32(f)
	}

	m := mesh.Prism(size, height)
	positions, indices := m.Flatten()
	normals := make([]float32, 0, len(positions))
	for _, v := range m.Vertices {
		normals = append(normals, v.Normal[:]...)
	}
	writeJSON(w, map[string]any{
		"size":      size,
		"height":    height,
		"positions": positions,
		"normals":   normals,
		"indices":   indices,
	})
}

// stimulusRequest names its target one of three ways, checked in order:
// axial (q, r), offset (col, row), or a world position (x, z) resolved by picking.
type stimulusRequest struct {
	Q      *int     `json:"q"`
	R      *int     `json:"r"`
	Col    *int     `json:"col"`
	Row    *int     `json:"row"`
	X      *float32 `json:"x"`
	Z      *float32 `json:"z"`
	Amount *float64 `json:"amount"`
	Radius int      `json:"radius"`
}

func (req stimulusRequest) target(s *Server) (hex.Cube, error) {
	switch {
	case req.Q != nil && req.R != nil:
		return hex.NewAxial(*req.Q, *req.R).ToCube(), nil
	case req.Col != nil && req.Row != nil:
		return hex.NewOffset(*req.Col, *req.Row).ToCube(), nil
	case req.X != nil && req.Z != nil:
		return s.Layout.Pick(mgl32.Vec3{*req.X, 0, *req.Z}), nil
	default:
		return hex.Cube{}, fmt.Errorf("target required: q/r, col/row, or x/z")
	}
}

func (s *Server) handleStimulus(w http.ResponseWriter, r *http.Request) {
	var req stimulusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	target, err := req.target(s)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Radius < 0 || req.Radius > 10 {
		http.Error(w, "radius must be 0-10", http.StatusBadRequest)
		return
	}
	if req.Amount != nil && (math.IsNaN(*req.Amount) || math.IsInf(*req.Amount, 0) || math.Abs(*req.Amount) > 1000) {
		http.Error(w, "amount must be finite and within ±1000", http.StatusBadRequest)
		return
	}

	var (
		applied bool
		touched int
		energy  float64
		tick    uint64
	)
	s.Eng.Do(func() {
		amount := s.Sim.Field.Config.StimulusAmount
		if req.Amount != nil {
			amount = *req.Amount
		}
		if req.Radius > 0 {
			touched = s.Sim.StimulateRadius(target, req.Radius, amount, engine.SourceAPI)
			applied = touched > 0
		} else {
			applied = s.Sim.Stimulate(target, amount, engine.SourceAPI)
			if applied {
				touched = 1
			}
		}
		energy = s.Sim.Field.EnergyOf(target)
		tick = s.Sim.LastTick
	})

	slog.Info("stimulus", "coord", target.String(), "applied", applied, "touched", touched, "tick", tick)
	writeJSON(w, map[string]any{
		"coord":   target,
		"offset":  target.ToOffset(),
		"applied": applied,
		"touched": touched,
		"energy":  energy,
		"tick":    tick,
	})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	var speed float64
	s.Eng.Do(func() { speed = s.Eng.Speed })
	writeJSON(w, map[string]float64{"speed": speed})
}
