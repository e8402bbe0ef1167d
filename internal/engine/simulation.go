package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/talgya/core-protocol/internal/empire"
)

// Simulation holds the live empire state. Ticks and commands take the write
// lock and run to completion, so no reader ever sees a half-applied tick.
type Simulation struct {
	mu       sync.RWMutex
	state    *empire.State
	env      Env
	lastTick TickSummary
	ticks    uint64

	// Clock supplies "now" for Execute and status reads. Defaults to time.Now.
	Clock func() time.Time
}

// NewSimulation wraps an existing state.
func NewSimulation(state *empire.State, env Env) *Simulation {
	env = env.withDefaults()
	state.Normalize()
	return &Simulation{state: state, env: env, Clock: time.Now}
}

// Env returns the environment transitions run with.
func (s *Simulation) Env() Env {
	return s.env
}

// Now reads the simulation clock.
func (s *Simulation) Now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}

// Tick advances the state to now.
func (s *Simulation) Tick(now time.Time) TickSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, sum := advance(s.state, now, s.env)
	s.state = next
	s.lastTick = sum
	s.ticks++

	if sum.EventsCompleted > 0 || sum.MissionsResolved > 0 {
		slog.Debug("tick",
			"events", sum.EventsCompleted,
			"missions", sum.MissionsResolved,
			"battles", sum.Battles,
		)
	}
	return sum
}

// Execute advances to now, then admits cmd. The returned error is the
// rejection reason; the state is unchanged when it is non-nil.
func (s *Simulation) Execute(cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	current, _ := advance(s.state, now, s.env)
	if err := Validate(current, cmd, now, s.env); err != nil {
		s.state = current
		return err
	}
	next, _ := Apply(current, cmd, now, s.env)
	s.state = next
	return nil
}

// Snapshot returns a deep copy of the current state.
func (s *Simulation) Snapshot() *empire.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// View runs fn under the read lock. fn must not keep or modify the state.
func (s *Simulation) View(fn func(*empire.State)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.state)
}

// LastTick returns the summary of the most recent tick and the tick count.
func (s *Simulation) LastTick() (TickSummary, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTick, s.ticks
}

// Replace swaps in a new state, as after a reset.
func (s *Simulation) Replace(state *empire.State) {
	state.Normalize()
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
