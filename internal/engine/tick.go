package engine

import (
	"context"
	"log/slog"
	"time"
)

// Engine drives a simulation on a fixed wall-clock cadence.
type Engine struct {
	Tick          uint64        // Ticks run since start (monotonic)
	Interval      time.Duration // Default 1 second
	AutosaveEvery uint64        // Ticks between autosaves; 0 disables

	// Callbacks, populated during setup.
	OnTick     func(tick uint64, now time.Time) // Every tick
	OnAutosave func(tick uint64)                // Every AutosaveEvery ticks

	Clock func() time.Time
}

// NewEngine creates an engine with a 1s interval and autosave every minute.
func NewEngine() *Engine {
	return &Engine{
		Interval:      time.Second,
		AutosaveEvery: 60,
		Clock:         time.Now,
	}
}

// Run ticks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	interval := e.Interval
	if interval <= 0 {
		interval = time.Second
	}
	slog.Info("simulation engine started", "tick", e.Tick, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation engine stopped", "tick", e.Tick)
			return
		case <-ticker.C:
			e.step()
		}
	}
}

// step runs one tick and any due autosave.
func (e *Engine) step() {
	e.Tick++

	now := time.Now()
	if e.Clock != nil {
		now = e.Clock()
	}

	if e.OnTick != nil {
		e.OnTick(e.Tick, now)
	}
	if e.AutosaveEvery > 0 && e.Tick%e.AutosaveEvery == 0 && e.OnAutosave != nil {
		e.OnAutosave(e.Tick)
	}
}
