// Package gardener implements an external steward for a running field.
// It observes the field via the public API, decides with fixed rules
// whether the field needs energy, and acts via the admin stimulus endpoint.
package gardener

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Snapshot holds all data collected during an observation cycle.
type Snapshot struct {
	Status  FieldStatus  `json:"status"`
	History []HistoryRow `json:"history"` // newest first; empty when the server has no database
	Cells   []Cell       `json:"cells"`
}

// FieldStatus mirrors GET /api/v1/status.
type FieldStatus struct {
	Name      string  `json:"name"`
	Tick      uint64  `json:"tick"`
	FrameTime string  `json:"frame_time"`
	Speed     float64 `json:"speed"`
	Running   bool    `json:"running"`
	Live      int     `json:"live"`
	Total     float64 `json:"total_energy"`
	Max       float64 `json:"max_energy"`
	Run       string  `json:"run"`
}

// HistoryRow mirrors items from GET /api/v1/stats/history.
type HistoryRow struct {
	Tick  uint64  `json:"tick"`
	Live  int     `json:"live"`
	Total float64 `json:"total"`
	Max   float64 `json:"max"`
	Min   float64 `json:"min"`
}

// Cell mirrors items from GET /api/v1/cells.
type Cell struct {
	Q      int     `json:"q"`
	R      int     `json:"r"`
	Energy float64 `json:"energy"`
}

// Observer fetches field state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Observe fetches status, cells, and recent history. A 503 from the history
// endpoint leaves History empty instead of failing the cycle.
func (o *Observer) Observe() (*Snapshot, error) {
	snap := &Snapshot{}

	if err := o.fetchJSON("/api/v1/status", &snap.Status); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	var cells struct {
		Cells []Cell `json:"cells"`
	}
	if err := o.fetchJSON("/api/v1/cells", &cells); err != nil {
		return nil, fmt.Errorf("fetch cells: %w", err)
	}
	snap.Cells = cells.Cells

	if err := o.fetchJSON("/api/v1/stats/history?limit=10", &snap.History); err != nil {
		var se *statusError
		if !errors.As(err, &se) || se.code != http.StatusServiceUnavailable {
			return nil, fmt.Errorf("fetch stats history: %w", err)
		}
	}

	return snap, nil
}

type statusError struct {
	path string
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s returned %d: %s", e.path, e.code, e.body)
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(path string, target any) error {
	resp, err := o.HTTPClient.Get(o.BaseURL + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &statusError{path: path, code: resp.StatusCode, body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
