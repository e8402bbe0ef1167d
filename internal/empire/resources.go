// Package empire provides the player's state document: colonies, moons,
// queued events, fleet missions, combat reports, system logs, and debris.
// The engine package is the only writer.
package empire

import (
	"math"

	"github.com/talgya/core-protocol/internal/registry"
)

// Resources is a stockpile or a carried load. Energy is a reported net balance
// and is never stockpiled.
type Resources struct {
	Metal     float64 `json:"metal"`
	Crystal   float64 `json:"crystal"`
	Deuterium float64 `json:"deuterium"`
	Energy    float64 `json:"energy"`
}

// Add returns r plus o for the three stockpiled resources. Energy is kept
// from r.
func (r Resources) Add(o Resources) Resources {
	return Resources{
		Metal:     r.Metal + o.Metal,
		Crystal:   r.Crystal + o.Crystal,
		Deuterium: r.Deuterium + o.Deuterium,
		Energy:    r.Energy,
	}
}

// Sub returns r minus o, floored at zero per resource.
func (r Resources) Sub(o Resources) Resources {
	return Resources{
		Metal:     math.Max(0, r.Metal-o.Metal),
		Crystal:   math.Max(0, r.Crystal-o.Crystal),
		Deuterium: math.Max(0, r.Deuterium-o.Deuterium),
		Energy:    r.Energy,
	}
}

// Total is metal + crystal + deuterium.
func (r Resources) Total() float64 {
	return r.Metal + r.Crystal + r.Deuterium
}

// Covers reports whether the stockpile can pay c. Energy costs are checked
// against the net energy balance.
func (r Resources) Covers(c registry.Cost) bool {
	if r.Metal < c.Metal || r.Crystal < c.Crystal || r.Deuterium < c.Deuterium {
		return false
	}
	return c.Energy <= 0 || r.Energy >= c.Energy
}

// FromCost converts a price into a resource bundle (energy excluded).
func FromCost(c registry.Cost) Resources {
	return Resources{Metal: c.Metal, Crystal: c.Crystal, Deuterium: c.Deuterium}
}

// Debris is salvageable metal and crystal at a coordinate.
type Debris struct {
	Metal   float64 `json:"metal"`
	Crystal float64 `json:"crystal"`
}

// Empty reports whether nothing is left to salvage.
func (d Debris) Empty() bool {
	return d.Metal <= 0 && d.Crystal <= 0
}

// Total is metal + crystal.
func (d Debris) Total() float64 {
	return d.Metal + d.Crystal
}
