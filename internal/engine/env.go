// Package engine advances the empire through time. Advance is the pure state
// transition run once per tick; Apply admits player commands between ticks.
// Simulation holds the live state behind a mutex and Engine drives it on a
// wall-clock cadence.
package engine

import (
	"errors"

	"github.com/talgya/core-protocol/internal/config"
	"github.com/talgya/core-protocol/internal/empire"
	"github.com/talgya/core-protocol/internal/entropy"
	"github.com/talgya/core-protocol/internal/registry"
	"github.com/talgya/core-protocol/internal/world"
)

// Env is everything a state transition reads besides the state itself.
type Env struct {
	Registry *registry.Registry
	Rand     entropy.Source
	Catalog  *world.Catalog
	Rules    config.Rules
	NewID    func() string
}

// DefaultEnv uses the embedded registry, a crypto random source, and the
// default rules.
func DefaultEnv() Env {
	return Env{}.withDefaults()
}

func (e Env) withDefaults() Env {
	if e.Registry == nil {
		e.Registry = registry.Default()
	}
	if e.Rand == nil {
		e.Rand = entropy.Crypto()
	}
	if e.NewID == nil {
		e.NewID = empire.NewID
	}
	if e.Rules == (config.Rules{}) {
		e.Rules = config.DefaultRules()
	}
	return e
}

// Command rejection reasons. Apply stays silent on rejection; Validate
// reports which of these applied.
var (
	ErrQueueFull     = errors.New("queue is full")
	ErrUnaffordable  = errors.New("insufficient resources")
	ErrUnknownColony = errors.New("unknown colony")
	ErrNoShips       = errors.New("ships not available")
	ErrUnknownEntity = errors.New("unknown entity")
	ErrRequirements  = errors.New("requirements not met")
	ErrCargo         = errors.New("cargo exceeds fleet capacity")
	ErrInvalid       = errors.New("invalid command")
	ErrNameLocked    = errors.New("name change already used")
)
