// Package world provides the coordinate space: distances, flight times,
// planet generation by orbital slot, and the survey of NPC outposts.
package world

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/talgya/core-protocol/internal/registry"
)

const (
	MaxSlot    = 16 // Slots per system
	BanditSlot = 16 // Reserved for NPC-garrisoned outposts

	// DefaultSpeed is used when a fleet has no unit with a speed rating.
	DefaultSpeed = 2500.0

	minDistance = 5
)

// Coord addresses a planet slot in the galaxy.
type Coord struct {
	Galaxy int `json:"galaxy"`
	System int `json:"system"`
	Slot   int `json:"slot"`
}

// Key returns the "G:S:Sl" form used to index debris fields.
func (c Coord) Key() string {
	return fmt.Sprintf("%d:%d:%d", c.Galaxy, c.System, c.Slot)
}

func (c Coord) String() string { return c.Key() }

// IsBanditSlot reports whether the coordinate is the reserved NPC slot.
func (c Coord) IsBanditSlot() bool {
	return c.Slot == BanditSlot
}

// Valid reports whether every component is in range.
func (c Coord) Valid() bool {
	return c.Galaxy >= 1 && c.System >= 1 && c.Slot >= 1 && c.Slot <= MaxSlot
}

// ParseCoord parses the "G:S:Sl" form.
func ParseCoord(s string) (Coord, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Coord{}, fmt.Errorf("coordinate %q: want G:S:Sl", s)
	}
	var vals [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Coord{}, fmt.Errorf("coordinate %q: %w", s, err)
		}
		vals[i] = v
	}
	c := Coord{Galaxy: vals[0], System: vals[1], Slot: vals[2]}
	if c.Slot < 1 || c.Slot > MaxSlot {
		return Coord{}, fmt.Errorf("coordinate %q: slot out of range 1..%d", s, MaxSlot)
	}
	return c, nil
}

// Distance between two coordinates. Galaxies dominate systems, systems
// dominate slots; the same coordinate is still 5 units away.
func Distance(from, to Coord) float64 {
	if from.Galaxy != to.Galaxy {
		return 20000 * float64(abs(from.Galaxy-to.Galaxy))
	}
	if from.System != to.System {
		return 2700 + 95*float64(abs(from.System-to.System))
	}
	if from.Slot != to.Slot {
		return 1000 + 5*float64(abs(from.Slot-to.Slot))
	}
	return minDistance
}

// FlightSeconds returns floor((35000/percentage) * sqrt(distance*10/speed) + 10).
// A non-positive speed yields 0; a non-positive percentage is treated as 100.
func FlightSeconds(distance, speed, percentage float64) int64 {
	if speed <= 0 {
		return 0
	}
	if percentage <= 0 {
		percentage = 100
	}
	return int64(math.Floor((35000/percentage)*math.Sqrt(distance*10/speed) + 10))
}

// FleetSpeed is the slowest nonzero speed among the ships present in the
// composition. Speed-0 and unknown units do not slow the fleet.
func FleetSpeed(reg *registry.Registry, ships map[string]int) float64 {
	slowest := math.Inf(1)
	for id, n := range ships {
		if n <= 0 {
			continue
		}
		s, ok := reg.Ship(id)
		if !ok || s.Stats.Speed <= 0 {
			continue
		}
		slowest = math.Min(slowest, s.Stats.Speed)
	}
	if math.IsInf(slowest, 1) {
		return DefaultSpeed
	}
	return slowest
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
