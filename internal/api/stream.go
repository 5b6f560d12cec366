package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/hexfield/internal/engine"
)

// frame is one snapshot pushed over /api/v1/stream.
type frame struct {
	Tick      uint64      `json:"tick"`
	FrameTime string      `json:"frame_time"`
	Total     float64     `json:"total_energy"`
	Max       float64     `json:"max_energy"`
	Cells     []cellEntry `json:"cells"`
}

func (s *Server) snapshot() frame {
	var f frame
	s.Eng.Do(func() {
		f.Tick = s.Sim.Field.Tick()
		f.Total = s.Sim.Stats.Total
		f.Max = s.Sim.Stats.Max
		f.Cells = make([]cellEntry, 0, s.Sim.Field.Len())
		for c, e := range s.Sim.Field.AllCells() {
			f.Cells = append(f.Cells, s.cellEntry(c, e))
		}
	})
	f.FrameTime = engine.FrameTime(f.Tick)
	return f
}

// handleStream upgrades to a websocket and pushes a snapshot every
// StreamInterval. Snapshots are skipped while the field has not advanced.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	select {
	case s.streamConns <- struct{}{}:
		defer func() { <-s.streamConns }()
	default:
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Drain client frames so close messages are seen.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.StreamInterval)
	defer ticker.Stop()

	sent := false
	var last uint64
	for {
		f := s.snapshot()
		if !sent || f.Tick != last {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(f); err != nil {
				slog.Debug("stream write failed", "error", err)
				return
			}
			sent, last = true, f.Tick
		}

		select {
		case <-closed:
			return
		case <-r.Context().Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(time.Second))
			return
		case <-ticker.C:
		}
	}
}
