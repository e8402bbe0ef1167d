// Command coresim runs the empire simulation server: it restores the saved
// empire, advances it every tick, serves the HTTP API and saves on shutdown.
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

	"github.com/talgya/core-protocol/internal/api"
	"github.com/talgya/core-protocol/internal/config"
	"github.com/talgya/core-protocol/internal/empire"
	"github.com/talgya/core-protocol/internal/engine"
	"github.com/talgya/core-protocol/internal/entropy"
	"github.com/talgya/core-protocol/internal/persistence"
	"github.com/talgya/core-protocol/internal/registry"
	"github.com/talgya/core-protocol/internal/world"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("CORESIM_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Environment ───────────────────────────────────────────────────
	var rng entropy.Source = entropy.Crypto()
	if cfg.Seed != 0 {
		rng = entropy.NewSeeded(cfg.Seed)
		slog.Info("deterministic random source", "seed", cfg.Seed)
	}

	// The galaxy seed sticks to the database so NPC outposts do not move
	// between restarts.
	galaxySeed := cfg.GalaxySeed
	if v, err := db.GetMeta("galaxy_seed"); err == nil {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			galaxySeed = n
		}
	} else if err := db.SaveMeta("galaxy_seed", strconv.FormatInt(galaxySeed, 10)); err != nil {
		slog.Warn("failed to record galaxy seed", "error", err)
	}

	env := engine.Env{
		Registry: registry.Default(),
		Rand:     rng,
		Catalog:  world.NewCatalog(galaxySeed),
		Rules:    cfg.Rules,
		NewID:    empire.NewID,
	}

	// ── Load or create the empire ─────────────────────────────────────
	state, restored := db.LoadState(time.Now(), rng)
	if !restored {
		if err := db.SaveState(state, time.Now()); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}
	slog.Info("empire ready",
		"player", state.PlayerName,
		"colonies", len(state.Colonies),
		"missions", len(state.Missions),
		"queued", len(state.Events),
		"restored", restored,
	)

	sim := engine.NewSimulation(state, env)

	// Catch up on everything that finished while the server was down.
	sum := sim.Tick(time.Now())
	if sum.EventsCompleted > 0 || sum.MissionsResolved > 0 {
		slog.Info("offline progress applied",
			"events", sum.EventsCompleted,
			"missions", sum.MissionsResolved,
			"battles", sum.Battles,
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Live updates ──────────────────────────────────────────────────
	hub := api.NewHub()
	go hub.Run(ctx)

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.Interval = cfg.TickInterval
	eng.AutosaveEvery = uint64(cfg.AutosaveTicks)
	eng.OnTick = func(_ uint64, now time.Time) {
		sum := sim.Tick(now)
		if sum.EventsCompleted > 0 || sum.MissionsResolved > 0 || sum.NewLogs > 0 {
			hub.Publish("tick", sum)
		}
	}
	eng.OnAutosave = func(tick uint64) {
		if err := db.SaveState(sim.Snapshot(), sim.Now()); err != nil {
			slog.Error("autosave failed", "tick", tick, "error", err)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("CORESIM_ADMIN_KEY not set, command endpoints will be disabled")
	}
	limiter := api.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
	go func() {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				limiter.Cleanup(now)
			}
		}
	}()

	apiServer := &api.Server{
		Sim:      sim,
		DB:       db,
		Hub:      hub,
		Port:     cfg.Port,
		AdminKey: cfg.AdminKey,
		Limiter:  limiter,
		Interval: cfg.TickInterval,
	}
	apiServer.Start()

	fmt.Printf("\n%s commands %d colonies.\n", state.PlayerName, len(state.Colonies))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Port)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown incomplete", "error", err)
	}

	// Final save on shutdown.
	slog.Info("final save...")
	sim.Tick(time.Now())
	if err := db.SaveState(sim.Snapshot(), sim.Now()); err != nil {
		slog.Error("final save failed", "error", err)
	}

	fmt.Println("Simulation stopped. Empire state saved.")
}
