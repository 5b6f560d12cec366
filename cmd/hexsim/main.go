// Command hexsim runs the hex diffusion field as a headless service with an
// HTTP API and optional SQLite telemetry.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/talgya/hexfield/internal/api"
	"github.com/talgya/hexfield/internal/diffusion"
	"github.com/talgya/hexfield/internal/engine"
	"github.com/talgya/hexfield/internal/entropy"
	"github.com/talgya/hexfield/internal/layout"
	"github.com/talgya/hexfield/internal/persistence"
	"github.com/talgya/hexfield/internal/world"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("HEXSIM_DEBUG") != "" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("hexsim: hex lattice diffusion field")

	dbPath := envOrDefault("HEXSIM_DB", "data/hexsim.db")
	apiPort := envIntOrDefault("HEXSIM_PORT", 8080)

	simCfg := diffusion.DefaultConfig()
	simCfg.DispersalFactor = envFloatOrDefault("HEXSIM_DISPERSAL", simCfg.DispersalFactor)
	simCfg.Dt = envFloatOrDefault("HEXSIM_DT", simCfg.Dt)
	simCfg.LossFactor = envFloatOrDefault("HEXSIM_LOSS", simCfg.LossFactor)
	simCfg.StimulusAmount = envFloatOrDefault("HEXSIM_STIMULUS", simCfg.StimulusAmount)
	if err := simCfg.Validate(); err != nil {
		slog.Error("invalid diffusion config", "error", err)
		os.Exit(1)
	}

	genCfg := world.DefaultGenConfig()
	genCfg.Seed = int64(envIntOrDefault("HEXSIM_SEED", 42))
	genCfg.NoiseAmplitude = envFloatOrDefault("HEXSIM_NOISE", 0.5)
	if genCfg.Seed == 0 {
		rng := entropy.NewClient(os.Getenv("RANDOM_ORG_API_KEY"))
		genCfg.Seed = entropy.Resolve(rng, 0)
		slog.Info("random seed drawn", "seed", genCfg.Seed, "random_org", rng != nil)
	}

	// ── Database (telemetry only; every run starts fresh) ─────────────
	var db *persistence.DB
	if dbPath != "" && dbPath != "off" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			slog.Error("failed to create data directory", "error", err)
			os.Exit(1)
		}
		var err error
		db, err = persistence.Open(dbPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if prev, err := db.GetMeta("last_run"); err == nil {
			slog.Info("previous run on record", "run", prev)
		}
		run, err := db.BeginRun(simCfg)
		if err != nil {
			slog.Error("failed to begin run", "error", err)
			os.Exit(1)
		}
		slog.Info("database opened", "path", dbPath, "run", run.String())
	} else {
		slog.Warn("HEXSIM_DB=off; telemetry disabled")
	}

	// ── Field ─────────────────────────────────────────────────────────
	field := world.Generate(genCfg, simCfg)
	stats := field.Stats()
	slog.Info("field ready",
		"cells", humanize.Comma(int64(stats.Live)),
		"total", fmt.Sprintf("%.3f", stats.Total),
		"max", fmt.Sprintf("%.3f", stats.Max),
		"seed", genCfg.Seed,
	)

	sim := engine.NewSimulation(field)
	if db != nil {
		sim.Recorder = db
	}
	if every := envIntOrDefault("HEXSIM_DRIZZLE", 90); every > 0 {
		sim.Drizzle = world.NewDrizzle(field, genCfg.Seed+1, uint64(every),
			envFloatOrDefault("HEXSIM_DRIZZLE_AMOUNT", 0.75), envIntOrDefault("HEXSIM_DRIZZLE_RADIUS", 2))
		slog.Info("drizzle enabled", "every_ticks", every)
	}

	eng := engine.NewEngine()
	eng.Speed = envFloatOrDefault("HEXSIM_SPEED", 1)
	eng.OnTick = sim.TickFrame
	eng.OnSecond = sim.TickSecond

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv("HEXSIM_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("HEXSIM_ADMIN_KEY not set; admin POST endpoints will be disabled")
	}

	apiServer := &api.Server{
		Sim:             sim,
		Eng:             eng,
		DB:              db,
		Layout:          layout.Default(),
		Port:            apiPort,
		AdminKey:        adminKey,
		StimulusLimiter: api.NewRateLimiter(envIntOrDefault("HEXSIM_STIMULUS_RATE", 30), time.Minute),
	}
	srv := apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\nField is live: %s cells.\n", humanize.Comma(int64(stats.Live)))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", apiPort)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}

	var (
		tick  uint64
		final diffusion.Stats
	)
	eng.Do(func() {
		tick = eng.Tick
		final = sim.Stats
	})
	slog.Info("simulation stopped",
		"tick", tick,
		"time", engine.FrameTime(tick),
		"total", fmt.Sprintf("%.3f", final.Total),
	)
}

func envOrDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("ignoring invalid integer", "key", key, "value", v)
		return def
	}
	return n
}

func envFloatOrDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("ignoring invalid number", "key", key, "value", v)
		return def
	}
	return f
}
