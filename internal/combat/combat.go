// Package combat resolves battles between an attacking fleet and a defended
// position. Units are simulated individually for up to six rounds with
// evasion, rapid fire, and catastrophic hull failure.
package combat

import (
	"math"
	"sort"

	"github.com/talgya/core-protocol/internal/entropy"
	"github.com/talgya/core-protocol/internal/registry"
)

// Battle limits and recovery ratios.
const (
	MaxRounds    = 6
	LootShare    = 0.5
	RepairRatio  = 0.7
	BanditFodder = "light_fighter"
)

// Winner is the outcome of a battle.
type Winner string

const (
	AttackerWins Winner = "attacker"
	DefenderWins Winner = "defender"
	Draw         Winner = "draw"
)

// SideStats is what one side dealt during a round.
type SideStats struct {
	Damage       float64
	ShieldDamage float64
	HullDamage   float64
	RapidFires   int
	Dodges       int // Shots fired by this side that were evaded
}

// Round is the breakdown of one exchange. Dodges are credited to the side
// whose units evaded.
type Round struct {
	AttackerUnits        int     `json:"attacker_units"`
	DefenderUnits        int     `json:"defender_units"`
	AttackerDamage       float64 `json:"attacker_damage"`
	AttackerShieldDamage float64 `json:"attacker_shield_damage"`
	AttackerHullDamage   float64 `json:"attacker_hull_damage"`
	AttackerRapidFires   int     `json:"attacker_rapid_fires"`
	AttackerDodges       int     `json:"attacker_dodges"`
	DefenderDamage       float64 `json:"defender_damage"`
	DefenderShieldDamage float64 `json:"defender_shield_damage"`
	DefenderHullDamage   float64 `json:"defender_hull_damage"`
	DefenderRapidFires   int     `json:"defender_rapid_fires"`
	DefenderDodges       int     `json:"defender_dodges"`
}

// Stockpile is a metal/crystal/deuterium amount. Combat keeps its own type so
// it does not depend on the state model.
type Stockpile struct {
	Metal     float64
	Crystal   float64
	Deuterium float64
}

// Input describes one battle.
type Input struct {
	AttackerShips   map[string]int
	DefenderShips   map[string]int
	DefenderDefense map[string]int
	Resources       Stockpile // Defender's stock before the battle
	Protected       Stockpile // Amounts that cannot be looted
	Bandit          bool      // Undefended bandit outposts field one light fighter
	DebrisRatio     float64   // Share of a destroyed unit's metal and crystal left behind
	MaxRounds       int       // 0 means MaxRounds
}

// Result is the full outcome of a battle.
type Result struct {
	Winner                 Winner
	Rounds                 []Round
	TotalAttackerDamage    float64
	TotalDefenderDamage    float64
	InitialAttackerHull    float64
	InitialDefenderHull    float64
	FinalAttackerHull      float64
	FinalDefenderHull      float64
	AttackerShieldsLeft    float64
	DefenderShieldsLeft    float64
	Loot                   Stockpile
	DebrisMetal            float64
	DebrisCrystal          float64
	RepairedDefense        map[string]int
	InitialCargoCapacity   float64
	SurvivingCargoCapacity float64
	AttackerSurvivors      map[string]int
	DefenderShipSurvivors  map[string]int
	DefenderDefenseLeft    map[string]int // Survivors only; add RepairedDefense for the post-battle garrison
	MissionSpeed           float64
}

// Simulate runs a battle to completion.
func Simulate(in Input, reg *registry.Registry, rng entropy.Source) Result {
	limit := in.MaxRounds
	if limit <= 0 {
		limit = MaxRounds
	}

	attackers := newForce(reg, in.AttackerShips)
	aHull, _, aCargo := attackers.totals()

	defShips := in.DefenderShips
	if in.Bandit && len(defShips) == 0 {
		defShips = map[string]int{BanditFodder: 1}
	}
	defenders := newForce(reg, defShips, in.DefenderDefense)
	dHull, _, _ := defenders.totals()

	res := Result{
		Winner:               Draw,
		Rounds:               []Round{},
		InitialAttackerHull:  aHull,
		InitialDefenderHull:  dHull,
		InitialCargoCapacity: aCargo,
	}

	for range limit {
		aCount, dCount := attackers.count(), defenders.count()
		if aCount == 0 || dCount == 0 {
			break
		}

		var aStats, dStats SideStats
		attackers.fireAt(defenders, &aStats, rng)
		defenders.fireAt(attackers, &dStats, rng)

		attackers.recharge()
		defenders.recharge()

		res.TotalAttackerDamage += aStats.Damage
		res.TotalDefenderDamage += dStats.Damage
		res.Rounds = append(res.Rounds, Round{
			AttackerUnits:        aCount,
			DefenderUnits:        dCount,
			AttackerDamage:       aStats.Damage,
			AttackerShieldDamage: aStats.ShieldDamage,
			AttackerHullDamage:   aStats.HullDamage,
			AttackerRapidFires:   aStats.RapidFires,
			AttackerDodges:       dStats.Dodges,
			DefenderDamage:       dStats.Damage,
			DefenderShieldDamage: dStats.ShieldDamage,
			DefenderHullDamage:   dStats.HullDamage,
			DefenderRapidFires:   dStats.RapidFires,
			DefenderDodges:       aStats.Dodges,
		})
	}

	aLeft, dLeft := attackers.count(), defenders.count()
	switch {
	case aLeft > 0 && dLeft == 0:
		res.Winner = AttackerWins
	case dLeft > 0 && aLeft == 0:
		res.Winner = DefenderWins
	}

	res.FinalAttackerHull, res.AttackerShieldsLeft, res.SurvivingCargoCapacity = attackers.totals()
	res.FinalDefenderHull, res.DefenderShieldsLeft, _ = defenders.totals()

	if res.Winner == AttackerWins {
		res.Loot = loot(in.Resources, in.Protected, res.SurvivingCargoCapacity)
	}

	res.DebrisMetal, res.DebrisCrystal = debris(in.DebrisRatio, attackers, defenders)

	res.AttackerSurvivors, _ = attackers.survivors()
	res.DefenderShipSurvivors, res.DefenderDefenseLeft = defenders.survivors()
	res.RepairedDefense = repairs(in.DefenderDefense, res.DefenderDefenseLeft)
	res.MissionSpeed = attackers.slowestSpeed()
	return res
}

// loot is half of every unprotected resource, scaled down uniformly when the
// surviving cargo cannot carry it all.
func loot(stock, protected Stockpile, capacity float64) Stockpile {
	if capacity <= 0 {
		return Stockpile{}
	}
	m := math.Max(0, (stock.Metal-protected.Metal)*LootShare)
	c := math.Max(0, (stock.Crystal-protected.Crystal)*LootShare)
	d := math.Max(0, (stock.Deuterium-protected.Deuterium)*LootShare)

	ratio := 1.0
	if total := m + c + d; total > capacity {
		ratio = capacity / total
	}
	return Stockpile{
		Metal:     math.Floor(m * ratio),
		Crystal:   math.Floor(c * ratio),
		Deuterium: math.Floor(d * ratio),
	}
}

func debris(ratio float64, forces ...*force) (metal, crystal float64) {
	for _, f := range forces {
		for _, u := range f.units {
			if !u.dead {
				continue
			}
			metal += u.entity.BaseCost.Metal * ratio
			crystal += u.entity.BaseCost.Crystal * ratio
		}
	}
	return metal, crystal
}

// repairs returns floor(destroyed * 0.7) per defense type that lost units.
func repairs(before, after map[string]int) map[string]int {
	out := make(map[string]int)
	for id, n := range before {
		lost := n - after[id]
		if lost <= 0 {
			continue
		}
		if r := int(math.Floor(float64(lost) * RepairRatio)); r > 0 {
			out[id] = r
		}
	}
	return out
}

func sortedIDs(m map[string]int) []string {
	ids := make([]string, 0, len(m))
	for id, n := range m {
		if n > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
