package combat

import (
	"testing"

	"github.com/talgya/core-protocol/internal/entropy"
	"github.com/talgya/core-protocol/internal/registry"
)

func TestDodgeChance(t *testing.T) {
	tests := []struct {
		speed float64
		want  float64
	}{
		{0, 0},
		{-10, 0},
		{12500, 0.05},
		{375000, 0.15},
		{100000000, 0.15},
	}
	for _, tt := range tests {
		if got := DodgeChance(tt.speed); got != tt.want {
			t.Errorf("DodgeChance(%v) = %v, want %v", tt.speed, got, tt.want)
		}
	}
}

func TestExplosionRisk(t *testing.T) {
	if got := ExplosionRisk(300, 400); got != 0 {
		t.Errorf("risk above threshold = %v, want 0", got)
	}
	if got := ExplosionRisk(200, 400); got != 0.5 {
		t.Errorf("risk at half hull = %v, want 0.5", got)
	}
	if got := ExplosionRisk(0, 0); got != 0 {
		t.Errorf("risk with zero max hull = %v, want 0", got)
	}
}

func TestEmptyDefenderNoRounds(t *testing.T) {
	res := Simulate(Input{
		AttackerShips: map[string]int{"light_fighter": 10},
		Resources:     Stockpile{Metal: 2050},
		Protected:     Stockpile{Metal: 1250},
		DebrisRatio:   0.3,
	}, registry.Default(), entropy.Fixed(0.5))

	if res.Winner != AttackerWins {
		t.Fatalf("winner = %s, want attacker", res.Winner)
	}
	if len(res.Rounds) != 0 {
		t.Errorf("rounds = %d, want 0", len(res.Rounds))
	}
	if res.InitialCargoCapacity != 500 || res.SurvivingCargoCapacity != 500 {
		t.Errorf("cargo = %v/%v, want 500/500", res.InitialCargoCapacity, res.SurvivingCargoCapacity)
	}
	if res.Loot != (Stockpile{Metal: 400}) {
		t.Errorf("loot = %+v, want 400 metal", res.Loot)
	}
	if res.DebrisMetal != 0 || res.DebrisCrystal != 0 {
		t.Errorf("debris = %v/%v, want none", res.DebrisMetal, res.DebrisCrystal)
	}
	if res.AttackerSurvivors["light_fighter"] != 10 {
		t.Errorf("survivors = %v, want 10 light fighters", res.AttackerSurvivors)
	}
	if res.MissionSpeed != 12500 {
		t.Errorf("mission speed = %v, want 12500", res.MissionSpeed)
	}
}

func TestZeroCargoTakesNoLoot(t *testing.T) {
	res := Simulate(Input{
		AttackerShips: map[string]int{"solar_satellite": 3},
		Resources:     Stockpile{Metal: 1e6, Crystal: 1e6, Deuterium: 1e6},
	}, registry.Default(), entropy.Fixed(0.5))

	if res.Winner != AttackerWins {
		t.Fatalf("winner = %s, want attacker", res.Winner)
	}
	if res.Loot != (Stockpile{}) {
		t.Errorf("loot = %+v, want zero", res.Loot)
	}
	if res.MissionSpeed != FallbackSpeed {
		t.Errorf("mission speed = %v, want fallback %v", res.MissionSpeed, FallbackSpeed)
	}
}

func TestBanditGarrison(t *testing.T) {
	res := Simulate(Input{Bandit: true}, registry.Default(), entropy.Fixed(0.5))
	if res.Winner != DefenderWins {
		t.Errorf("winner = %s, want defender", res.Winner)
	}
	if res.InitialDefenderHull != 400 {
		t.Errorf("defender hull = %v, want one light fighter (400)", res.InitialDefenderHull)
	}
}

func TestRoundLimit(t *testing.T) {
	// Neither side can get through the other's shields.
	res := Simulate(Input{
		AttackerShips: map[string]int{"solar_satellite": 1},
		DefenderShips: map[string]int{"recycler": 1},
	}, registry.Default(), entropy.Fixed(0.99))

	if len(res.Rounds) != MaxRounds {
		t.Fatalf("rounds = %d, want %d", len(res.Rounds), MaxRounds)
	}
	if res.Winner != Draw {
		t.Errorf("winner = %s, want draw", res.Winner)
	}
	if res.FinalAttackerHull != 200 || res.FinalDefenderHull != 1600 {
		t.Errorf("hulls = %v/%v, want untouched", res.FinalAttackerHull, res.FinalDefenderHull)
	}
	if res.AttackerShieldsLeft != 1 || res.DefenderShieldsLeft != 10 {
		t.Errorf("shields = %v/%v, want recharged", res.AttackerShieldsLeft, res.DefenderShieldsLeft)
	}

	short := Simulate(Input{
		AttackerShips: map[string]int{"solar_satellite": 1},
		DefenderShips: map[string]int{"recycler": 1},
		MaxRounds:     2,
	}, registry.Default(), entropy.Fixed(0.99))
	if len(short.Rounds) != 2 {
		t.Errorf("rounds with limit 2 = %d", len(short.Rounds))
	}
}

func TestDefenseDestroyed(t *testing.T) {
	res := Simulate(Input{
		AttackerShips:   map[string]int{"light_fighter": 10},
		DefenderDefense: map[string]int{"rocket_launcher": 1},
		DebrisRatio:     0.3,
	}, registry.Default(), entropy.Fixed(0.99))

	if res.Winner != AttackerWins {
		t.Fatalf("winner = %s, want attacker", res.Winner)
	}
	if len(res.Rounds) != 1 {
		t.Fatalf("rounds = %d, want 1", len(res.Rounds))
	}
	r := res.Rounds[0]
	if r.AttackerDamage != 250 || r.AttackerShieldDamage != 20 || r.AttackerHullDamage != 230 {
		t.Errorf("round = %+v, want 250 damage split 20/230", r)
	}
	if r.DefenderDamage != 0 {
		t.Errorf("destroyed defense fired back: %+v", r)
	}
	if res.DebrisMetal != 600 || res.DebrisCrystal != 0 {
		t.Errorf("debris = %v/%v, want 600/0", res.DebrisMetal, res.DebrisCrystal)
	}
	if len(res.RepairedDefense) != 0 {
		t.Errorf("repaired = %v, want none for a single loss", res.RepairedDefense)
	}
	if len(res.DefenderDefenseLeft) != 0 {
		t.Errorf("defense left = %v", res.DefenderDefenseLeft)
	}
}

func TestRapidFireChainsWithinRound(t *testing.T) {
	// 0.5 always picks the second target and always re-fires against rocket launchers.
	res := Simulate(Input{
		AttackerShips:   map[string]int{"cruiser": 1},
		DefenderDefense: map[string]int{"rocket_launcher": 2},
	}, registry.Default(), entropy.Fixed(0.5))

	if res.Winner != AttackerWins {
		t.Fatalf("winner = %s, want attacker", res.Winner)
	}
	if len(res.Rounds) != 2 {
		t.Fatalf("rounds = %d, want 2", len(res.Rounds))
	}
	first := res.Rounds[0]
	if first.AttackerRapidFires != 1 {
		t.Errorf("rapid fires = %d, want 1", first.AttackerRapidFires)
	}
	if first.DefenderDamage != 80 || first.DefenderShieldDamage != 50 || first.DefenderHullDamage != 30 {
		t.Errorf("defender fire = %+v, want 80 split 50/30", first)
	}
	if res.FinalAttackerHull != 2670 {
		t.Errorf("cruiser hull = %v, want 2670", res.FinalAttackerHull)
	}
	if res.RepairedDefense["rocket_launcher"] != 1 {
		t.Errorf("repaired = %v, want 1 rocket launcher", res.RepairedDefense)
	}
}

func TestLootScalesToCargo(t *testing.T) {
	got := loot(Stockpile{Metal: 10000, Crystal: 10000}, Stockpile{}, 5000)
	want := Stockpile{Metal: 2500, Crystal: 2500}
	if got != want {
		t.Errorf("loot = %+v, want %+v", got, want)
	}

	got = loot(Stockpile{Metal: 1000}, Stockpile{Metal: 5000}, 5000)
	if got != (Stockpile{}) {
		t.Errorf("loot below protection = %+v, want zero", got)
	}
}
