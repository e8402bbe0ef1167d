package combat

import (
	"math"

	"github.com/talgya/core-protocol/internal/entropy"
	"github.com/talgya/core-protocol/internal/registry"
)

// Evasion and catastrophic-failure tuning.
const (
	MaxDodge        = 0.15
	DodgeSpeedScale = 250000.0
	ExplosionFloor  = 0.7
	FallbackSpeed   = 2500.0
)

// DodgeChance is the probability that a unit moving at speed evades a shot.
func DodgeChance(speed float64) float64 {
	if speed <= 0 {
		return 0
	}
	return math.Min(MaxDodge, speed/DodgeSpeedScale)
}

// ExplosionRisk is the chance a damaged unit breaks apart. It is zero until
// hull drops below 70% of maxHull.
func ExplosionRisk(hull, maxHull float64) float64 {
	if maxHull <= 0 || hull >= maxHull*ExplosionFloor {
		return 0
	}
	return 1 - hull/maxHull
}

// unit is one ship or defense instance in a battle.
type unit struct {
	entity    *registry.Entity
	hull      float64
	maxHull   float64
	shield    float64
	maxShield float64
	dead      bool
}

func newUnit(e *registry.Entity) *unit {
	return &unit{
		entity:    e,
		hull:      e.Stats.Hull,
		maxHull:   e.Stats.Hull,
		shield:    e.Stats.Shield,
		maxShield: e.Stats.Shield,
	}
}

type hit struct {
	shield float64
	hull   float64
	dodged bool
}

// takeHit applies one shot. The explosion roll runs on every landed shot once
// the hull is under the threshold, even when the shield absorbed it.
func (u *unit) takeHit(damage float64, rng entropy.Source) hit {
	if u.dead || damage <= 0 {
		return hit{}
	}

	if p := DodgeChance(u.entity.Stats.Speed); p > 0 && rng.Float64() < p {
		return hit{dodged: true}
	}

	var h hit
	if damage > u.shield {
		h.shield = u.shield
		h.hull = damage - u.shield
		u.shield = 0
		u.hull -= h.hull
	} else {
		h.shield = damage
		u.shield -= damage
	}

	if risk := ExplosionRisk(u.hull, u.maxHull); risk > 0 && rng.Float64() < risk {
		u.dead = true
	}
	if u.hull <= 0 {
		u.dead = true
		u.hull = 0
	}
	return h
}

func (u *unit) recharge() {
	if !u.dead {
		u.shield = u.maxShield
	}
}

// force is one side of a battle.
type force struct {
	units []*unit
}

// newForce expands count maps into unit instances. Ids that are not combat
// units are skipped. Map iteration order does not matter because targeting is
// uniform over the whole living set.
func newForce(reg *registry.Registry, groups ...map[string]int) *force {
	f := &force{}
	for _, g := range groups {
		for _, id := range sortedIDs(g) {
			e, ok := reg.Unit(id)
			if !ok {
				continue
			}
			for range g[id] {
				f.units = append(f.units, newUnit(e))
			}
		}
	}
	return f
}

func (f *force) alive() []*unit {
	out := make([]*unit, 0, len(f.units))
	for _, u := range f.units {
		if !u.dead {
			out = append(out, u)
		}
	}
	return out
}

func (f *force) count() int {
	n := 0
	for _, u := range f.units {
		if !u.dead {
			n++
		}
	}
	return n
}

func (f *force) totals() (hull, shield, cargo float64) {
	for _, u := range f.units {
		if u.dead {
			continue
		}
		hull += u.hull
		shield += u.shield
		cargo += u.entity.Stats.Cargo
	}
	return hull, shield, cargo
}

// slowestSpeed is the lowest nonzero speed among survivors.
func (f *force) slowestSpeed() float64 {
	slowest := 0.0
	for _, u := range f.units {
		s := u.entity.Stats.Speed
		if u.dead || s <= 0 {
			continue
		}
		if slowest == 0 || s < slowest {
			slowest = s
		}
	}
	if slowest == 0 {
		return FallbackSpeed
	}
	return slowest
}

// fireAt resolves one salvo. Both the shooters and the targets are fixed at
// the start of the salvo; a shot that lands on a unit killed earlier in the
// salvo ends that shooter's chain.
func (f *force) fireAt(target *force, stats *SideStats, rng entropy.Source) {
	shooters := f.alive()
	targets := target.alive()
	if len(shooters) == 0 || len(targets) == 0 {
		return
	}

	for _, s := range shooters {
		for {
			t := targets[rng.Intn(len(targets))]
			if t.dead {
				break
			}

			dmg := s.entity.Stats.Attack
			h := t.takeHit(dmg, rng)
			if h.dodged {
				stats.Dodges++
				break
			}
			stats.Damage += dmg
			stats.ShieldDamage += h.shield
			stats.HullDamage += h.hull

			rf := s.entity.RapidFireAgainst(t.entity.ID)
			if rf <= 1 || rng.Float64() >= (rf-1)/rf {
				break
			}
			stats.RapidFires++
		}
	}
}

func (f *force) recharge() {
	for _, u := range f.units {
		u.recharge()
	}
}

// survivors splits the living units back into ship and defense counts.
func (f *force) survivors() (ships, defense map[string]int) {
	ships = make(map[string]int)
	defense = make(map[string]int)
	for _, u := range f.units {
		if u.dead {
			continue
		}
		if u.entity.Class == registry.ClassDefense {
			defense[u.entity.ID]++
		} else {
			ships[u.entity.ID]++
		}
	}
	return ships, defense
}
