package empire

import (
	"maps"
	"time"

	"github.com/talgya/core-protocol/internal/world"
)

// Moon is a secondary holding attached to a colony. It has no coordinate of
// its own.
type Moon struct {
	Size       int            `json:"size"`
	Resources  Resources      `json:"resources"`
	LastUpdate time.Time      `json:"last_update"`
	Buildings  map[string]int `json:"buildings"`
	Ships      map[string]int `json:"ships"`
	Defense    map[string]int `json:"defense"`
}

// Colony is a player-owned planet.
type Colony struct {
	ID         string         `json:"id"`
	OwnerID    string         `json:"owner_id"`
	Name       string         `json:"name"`
	Coord      world.Coord    `json:"coord"`
	Resources  Resources      `json:"resources"`
	LastUpdate time.Time      `json:"last_update"`
	Buildings  map[string]int `json:"buildings"`
	Ships      map[string]int `json:"ships"`
	Defense    map[string]int `json:"defense"`
	MaxTemp    int            `json:"max_temp"`
	MaxFields  int            `json:"max_fields,omitempty"`
	Moon       *Moon          `json:"moon,omitempty"`
}

// Clone returns a deep copy.
func (c *Colony) Clone() *Colony {
	if c == nil {
		return nil
	}
	out := *c
	out.Buildings = cloneCounts(c.Buildings)
	out.Ships = cloneCounts(c.Ships)
	out.Defense = cloneCounts(c.Defense)
	if c.Moon != nil {
		m := *c.Moon
		m.Buildings = cloneCounts(c.Moon.Buildings)
		m.Ships = cloneCounts(c.Moon.Ships)
		m.Defense = cloneCounts(c.Moon.Defense)
		out.Moon = &m
	}
	return &out
}

// Level returns a building level (0 if never built).
func (c *Colony) Level(id string) int {
	return c.Buildings[id]
}

// cloneCounts copies a count map, always returning a non-nil map.
func cloneCounts(m map[string]int) map[string]int {
	if m == nil {
		return make(map[string]int)
	}
	return maps.Clone(m)
}

// AddCounts adds every positive count in delta to dst, creating dst if needed.
func AddCounts(dst, delta map[string]int) map[string]int {
	if dst == nil {
		dst = make(map[string]int)
	}
	for id, n := range delta {
		if n > 0 {
			dst[id] += n
		}
	}
	return dst
}

// SubCounts removes delta from dst, deleting entries that reach zero.
func SubCounts(dst, delta map[string]int) {
	for id, n := range delta {
		dst[id] -= n
		if dst[id] <= 0 {
			delete(dst, id)
		}
	}
}

// Prune drops zero and negative entries.
func Prune(m map[string]int) map[string]int {
	for id, n := range m {
		if n <= 0 {
			delete(m, id)
		}
	}
	return m
}
