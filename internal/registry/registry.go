// Package registry provides the static game content: buildings, research,
// ships, and defense definitions with their costs, stats, and formulas.
// The simulation core only ever reads from it.
package registry

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed entities.yaml
var defaultEntities []byte

// Class tags every entity with what kind of thing it is.
type Class uint8

const (
	ClassBuilding Class = iota
	ClassResearch
	ClassShip
	ClassDefense
)

// String returns the lower-case class name.
func (c Class) String() string {
	switch c {
	case ClassBuilding:
		return "building"
	case ClassResearch:
		return "research"
	case ClassShip:
		return "ship"
	case ClassDefense:
		return "defense"
	}
	return "unknown"
}

// Cost is a resource bundle used for prices.
type Cost struct {
	Metal     float64 `yaml:"metal" json:"metal"`
	Crystal   float64 `yaml:"crystal" json:"crystal"`
	Deuterium float64 `yaml:"deuterium" json:"deuterium"`
	Energy    float64 `yaml:"energy" json:"energy"`
}

// Scale multiplies every priced resource by n. Energy is a requirement, not a
// consumable, so it is left as is.
func (c Cost) Scale(n float64) Cost {
	return Cost{
		Metal:     c.Metal * n,
		Crystal:   c.Crystal * n,
		Deuterium: c.Deuterium * n,
		Energy:    c.Energy,
	}
}

// Stats are the combat and logistics attributes of a ship or defense unit.
type Stats struct {
	Hull   float64 `yaml:"hull" json:"hull"`
	Shield float64 `yaml:"shield" json:"shield"`
	Attack float64 `yaml:"attack" json:"attack"`
	Cargo  float64 `yaml:"cargo" json:"cargo"`
	Speed  float64 `yaml:"speed" json:"speed"`
}

// Tuning holds content-level constants that travel with the entity tables.
type Tuning struct {
	DebrisRatio   float64 `yaml:"debris_ratio" json:"debris_ratio"`
	MoonMaxChance float64 `yaml:"moon_max_chance" json:"moon_max_chance"`
}

// Entity is one definition from the content tables.
type Entity struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	Class        Class              `json:"class"`
	BaseCost     Cost               `json:"base_cost"`
	Multiplier   float64            `json:"multiplier"`
	Requirements map[string]int     `json:"requirements,omitempty"`
	Stats        Stats              `json:"stats"`
	RapidFire    map[string]float64 `json:"rapid_fire,omitempty"`
	Formula      Formula            `json:"-"`
}

// IsUnit reports whether the entity fights in combat.
func (e *Entity) IsUnit() bool {
	return e.Class == ClassShip || e.Class == ClassDefense
}

// RapidFireAgainst returns the rapid-fire multiplier against targetID, or 0.
func (e *Entity) RapidFireAgainst(targetID string) float64 {
	if e == nil || e.RapidFire == nil {
		return 0
	}
	return e.RapidFire[targetID]
}

// Registry is a read-only lookup of entities by id.
type Registry struct {
	Tuning   Tuning
	entities map[string]*Entity
	byClass  map[Class][]string
}

type rawEntity struct {
	ID           string             `yaml:"id"`
	Name         string             `yaml:"name"`
	Description  string             `yaml:"description"`
	Cost         Cost               `yaml:"cost"`
	Multiplier   float64            `yaml:"multiplier"`
	Requirements map[string]int     `yaml:"requirements"`
	Stats        Stats              `yaml:"stats"`
	RapidFire    map[string]float64 `yaml:"rapid_fire"`
	Formula      *rawFormula        `yaml:"formula"`
}

type rawTables struct {
	Game      Tuning      `yaml:"game"`
	Buildings []rawEntity `yaml:"buildings"`
	Research  []rawEntity `yaml:"research"`
	Ships     []rawEntity `yaml:"ships"`
	Defense   []rawEntity `yaml:"defense"`
}

// Load parses entity tables from YAML.
func Load(r io.Reader) (*Registry, error) {
	var raw rawTables
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}

	reg := &Registry{
		Tuning:   raw.Game,
		entities: make(map[string]*Entity),
		byClass:  make(map[Class][]string),
	}

	groups := []struct {
		class Class
		list  []rawEntity
	}{
		{ClassBuilding, raw.Buildings},
		{ClassResearch, raw.Research},
		{ClassShip, raw.Ships},
		{ClassDefense, raw.Defense},
	}
	for _, g := range groups {
		for _, re := range g.list {
			if err := reg.add(g.class, re); err != nil {
				return nil, err
			}
		}
	}

	if err := reg.validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *Registry) add(class Class, re rawEntity) error {
	if re.ID == "" {
		return fmt.Errorf("%s entity without id", class)
	}
	if _, dup := r.entities[re.ID]; dup {
		return fmt.Errorf("duplicate entity id %q", re.ID)
	}

	formula, err := re.Formula.build()
	if err != nil {
		return fmt.Errorf("entity %q: %w", re.ID, err)
	}

	mult := re.Multiplier
	if mult <= 0 {
		mult = 1
	}

	r.entities[re.ID] = &Entity{
		ID:           re.ID,
		Name:         re.Name,
		Description:  re.Description,
		Class:        class,
		BaseCost:     re.Cost,
		Multiplier:   mult,
		Requirements: re.Requirements,
		Stats:        re.Stats,
		RapidFire:    re.RapidFire,
		Formula:      formula,
	}
	r.byClass[class] = append(r.byClass[class], re.ID)
	return nil
}

// validate checks cross references between entities.
func (r *Registry) validate() error {
	for _, e := range r.entities {
		for id := range e.Requirements {
			req, ok := r.entities[id]
			if !ok {
				return fmt.Errorf("entity %q requires unknown %q", e.ID, id)
			}
			if req.Class != ClassBuilding && req.Class != ClassResearch {
				return fmt.Errorf("entity %q requires %s %q", e.ID, req.Class, id)
			}
		}
		for id := range e.RapidFire {
			target, ok := r.entities[id]
			if !ok || !target.IsUnit() {
				return fmt.Errorf("entity %q has rapid fire against unknown unit %q", e.ID, id)
			}
		}
	}
	return nil
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the registry built from the embedded content tables.
// It panics if the embedded tables are malformed.
func Default() *Registry {
	defaultOnce.Do(func() {
		reg, err := Load(bytes.NewReader(defaultEntities))
		if err != nil {
			panic(fmt.Sprintf("registry: embedded entities: %v", err))
		}
		defaultReg = reg
	})
	return defaultReg
}

// Get returns any entity by id.
func (r *Registry) Get(id string) (*Entity, bool) {
	e, ok := r.entities[id]
	return e, ok
}

func (r *Registry) getClass(id string, class Class) (*Entity, bool) {
	e, ok := r.entities[id]
	if !ok || e.Class != class {
		return nil, false
	}
	return e, true
}

// Building returns a building definition.
func (r *Registry) Building(id string) (*Entity, bool) { return r.getClass(id, ClassBuilding) }

// Research returns a research definition.
func (r *Registry) Research(id string) (*Entity, bool) { return r.getClass(id, ClassResearch) }

// Ship returns a ship definition.
func (r *Registry) Ship(id string) (*Entity, bool) { return r.getClass(id, ClassShip) }

// Defense returns a static defense definition.
func (r *Registry) Defense(id string) (*Entity, bool) { return r.getClass(id, ClassDefense) }

// Unit returns a ship or defense definition.
func (r *Registry) Unit(id string) (*Entity, bool) {
	e, ok := r.entities[id]
	if !ok || !e.IsUnit() {
		return nil, false
	}
	return e, true
}

// IDs returns the entity ids of a class in declaration order.
func (r *Registry) IDs(class Class) []string {
	out := make([]string, len(r.byClass[class]))
	copy(out, r.byClass[class])
	return out
}

// All returns every entity sorted by id.
func (r *Registry) All() []*Entity {
	out := make([]*Entity, 0, len(r.entities))
	for _, e := range r.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CostAt returns the price of the given level (0 = first purchase) of an entity:
// floor(base * multiplier^level) per resource, energy flat.
func (r *Registry) CostAt(id string, level int) Cost {
	e, ok := r.entities[id]
	if !ok {
		return Cost{}
	}
	factor := math.Pow(e.Multiplier, float64(level))
	return Cost{
		Metal:     math.Floor(e.BaseCost.Metal * factor),
		Crystal:   math.Floor(e.BaseCost.Crystal * factor),
		Deuterium: math.Floor(e.BaseCost.Deuterium * factor),
		Energy:    e.BaseCost.Energy,
	}
}
