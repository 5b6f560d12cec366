// Command gardener keeps a running hexsim field from decaying to nothing.
// It observes the field, decides with fixed rules whether to feed it, and
// acts via the admin stimulus API.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/hexfield/internal/gardener"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	apiURL := envOrDefault("HEXSIM_API_URL", "http://localhost:8080")
	adminKey := os.Getenv("HEXSIM_ADMIN_KEY")
	interval := time.Duration(envIntOrDefault("GARDENER_INTERVAL", 30)) * time.Second
	memoryPath := envOrDefault("GARDENER_MEMORY", "gardener_memory.json")

	if adminKey == "" {
		slog.Error("HEXSIM_ADMIN_KEY is required")
		os.Exit(1)
	}

	policy := gardener.DefaultPolicy()
	policy.Floor = envFloatOrDefault("GARDENER_FLOOR", policy.Floor)
	policy.Amount = envFloatOrDefault("GARDENER_AMOUNT", policy.Amount)

	slog.Info("gardener starting",
		"api_url", apiURL,
		"interval", interval,
		"floor", fmt.Sprintf("%.3f", policy.Floor),
	)

	observer := gardener.NewObserver(apiURL)
	actor := gardener.NewActor(apiURL, adminKey)
	mem := gardener.LoadMemory(memoryPath)

	slog.Info("waiting for hexsim API...")
	waitForAPI(apiURL)

	runCycle(observer, actor, policy, mem, memoryPath)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			runCycle(observer, actor, policy, mem, memoryPath)
		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig)
			fmt.Println("Gardener stopped.")
			return
		}
	}
}

// runCycle executes one observe, decide, act cycle.
func runCycle(observer *gardener.Observer, actor *gardener.Actor, policy gardener.Policy, mem *gardener.CycleMemory, memoryPath string) {
	snap, err := observer.Observe()
	if err != nil {
		slog.Error("observation failed", "error", err)
		return
	}
	health := gardener.Triage(snap, policy.Floor)
	slog.Info("observation complete",
		"tick", snap.Status.Tick,
		"live", snap.Status.Live,
		"mean", fmt.Sprintf("%.4f", health.MeanEnergy),
		"trend", fmt.Sprintf("%.4f", health.Trend),
		"level", health.Level,
	)

	decision := gardener.Decide(policy, snap, health, mem)
	slog.Info("decision made", "action", decision.Action, "rationale", decision.Rationale)

	record := gardener.CycleRecord{
		Tick:       snap.Status.Tick,
		Run:        snap.Status.Run,
		Action:     decision.Action,
		Level:      health.Level,
		MeanEnergy: health.MeanEnergy,
		Rationale:  decision.Rationale,
	}
	defer func() {
		mem.Record(record)
		if err := mem.Save(memoryPath); err != nil {
			slog.Error("failed to save gardener memory", "error", err)
		}
	}()

	if decision.Stimulus == nil {
		return
	}
	result, err := actor.Act(decision.Stimulus)
	if err != nil {
		slog.Error("stimulus failed", "error", err)
		record.Action = "failed"
		return
	}
	slog.Info("stimulus executed",
		"q", decision.Stimulus.Q,
		"r", decision.Stimulus.R,
		"touched", result.Touched,
		"tick", result.Tick,
	)
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envFloatOrDefault(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// waitForAPI polls the status endpoint with exponential backoff until it
// responds. Exits after 5 minutes if the API never becomes ready.
func waitForAPI(apiURL string) {
	backoff := 2 * time.Second
	maxBackoff := 30 * time.Second
	deadline := time.Now().Add(5 * time.Minute)

	for {
		resp, err := http.Get(apiURL + "/api/v1/status")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				slog.Info("hexsim API is ready")
				return
			}
		}
		if time.Now().After(deadline) {
			slog.Error("hexsim API did not become ready within 5 minutes")
			os.Exit(1)
		}
		slog.Info("hexsim not ready, retrying...", "backoff", backoff)
		time.Sleep(backoff)
		backoff = min(backoff*2, maxBackoff)
	}
}
