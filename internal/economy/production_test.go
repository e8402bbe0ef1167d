package economy

import (
	"math"
	"testing"
	"time"

	"github.com/talgya/core-protocol/internal/registry"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCapacityAndProtection(t *testing.T) {
	tests := []struct {
		level      int
		capacity   float64
		protection float64
	}{
		{0, 12500, 1250},
		{1, 22914, 4499},
		{2, 42007, 7290},
		{3, 77008, 11990},
	}
	for _, tt := range tests {
		if got := Capacity(tt.level); got != tt.capacity {
			t.Errorf("Capacity(%d) = %v, want %v", tt.level, got, tt.capacity)
		}
		if got := Protection(tt.level); got != tt.protection {
			t.Errorf("Protection(%d) = %v, want %v", tt.level, got, tt.protection)
		}
	}
}

func TestStorageMonotonic(t *testing.T) {
	for l := 0; l < 30; l++ {
		if Capacity(l+1) <= Capacity(l) {
			t.Fatalf("Capacity(%d) = %v not above Capacity(%d) = %v", l+1, Capacity(l+1), l, Capacity(l))
		}
		if Protection(l+1) < Protection(l) {
			t.Fatalf("Protection(%d) = %v below Protection(%d) = %v", l+1, Protection(l+1), l, Protection(l))
		}
	}
}

func TestProductionRates(t *testing.T) {
	reg := registry.Default()

	tests := []struct {
		name      string
		buildings map[string]int
		ships     map[string]int
		maxTemp   float64
		want      Rates
	}{
		{
			name: "bare colony",
			want: Rates{Metal: 30, Crystal: 20, Deuterium: 10, Efficiency: 1},
		},
		{
			name:      "mine without power stalls everything",
			buildings: map[string]int{"metal_mine": 1},
			want:      Rates{Energy: -11, EnergyConsumption: 11, Efficiency: 0},
		},
		{
			name:      "powered metal mine",
			buildings: map[string]int{"metal_mine": 1, "solar_plant": 1},
			want: Rates{
				Metal: 63, Crystal: 20, Deuterium: 10,
				Energy: 11, EnergyProduction: 22, EnergyConsumption: 11, Efficiency: 1,
			},
		},
		{
			name:      "synthesizer scales with temperature",
			buildings: map[string]int{"deut_synthesizer": 1, "solar_plant": 2},
			maxTemp:   40,
			want: Rates{
				Metal: 30, Crystal: 20, Deuterium: 10 + 11*1.2,
				Energy: 48 - 22, EnergyProduction: 48, EnergyConsumption: 22, Efficiency: 1,
			},
		},
		{
			name:      "synthesizer level 2 yield and draw",
			buildings: map[string]int{"deut_synthesizer": 2, "solar_plant": 3},
			maxTemp:   40,
			want: Rates{
				Metal: 30, Crystal: 20, Deuterium: 10 + 24*1.2,
				Energy: 79 - 48, EnergyProduction: 79, EnergyConsumption: 48, Efficiency: 1,
			},
		},
		{
			name:      "energy deficit scales yields",
			buildings: map[string]int{"metal_mine": 2, "crystal_mine": 2},
			ships:     map[string]int{"solar_satellite": 1},
			maxTemp:   40,
			want: Rates{
				Metal: 102 * 0.625, Crystal: 68 * 0.625, Deuterium: 10 * 0.625,
				Energy: 30 - 48, EnergyProduction: 30, EnergyConsumption: 48, Efficiency: 0.625,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProductionRates(reg, tt.buildings, tt.ships, tt.maxTemp, 1)
			fields := []struct {
				name      string
				got, want float64
			}{
				{"metal", got.Metal, tt.want.Metal},
				{"crystal", got.Crystal, tt.want.Crystal},
				{"deuterium", got.Deuterium, tt.want.Deuterium},
				{"energy", got.Energy, tt.want.Energy},
				{"energy production", got.EnergyProduction, tt.want.EnergyProduction},
				{"energy consumption", got.EnergyConsumption, tt.want.EnergyConsumption},
				{"efficiency", got.Efficiency, tt.want.Efficiency},
			}
			for _, f := range fields {
				if !almostEqual(f.got, f.want) {
					t.Errorf("%s = %v, want %v", f.name, f.got, f.want)
				}
			}
		})
	}
}

func TestColdWorldsYieldMoreDeuterium(t *testing.T) {
	reg := registry.Default()
	b := map[string]int{"deut_synthesizer": 5, "solar_plant": 10}

	cold := ProductionRates(reg, b, nil, -100, 15)
	hot := ProductionRates(reg, b, nil, 120, 2)
	if cold.Deuterium <= hot.Deuterium {
		t.Errorf("cold deuterium %v not above hot %v", cold.Deuterium, hot.Deuterium)
	}
}

func TestSatelliteEnergy(t *testing.T) {
	if got := SatelliteEnergy(40); got != 30 {
		t.Errorf("SatelliteEnergy(40) = %v, want 30", got)
	}
	if got := SatelliteEnergy(-140); got != 0 {
		t.Errorf("SatelliteEnergy(-140) = %v, want 0", got)
	}
}

func TestAccrue(t *testing.T) {
	tests := []struct {
		name                            string
		current, cap, rate, secs, boost float64
		want                             float64
	}{
		{"one hour", 0, 12500, 30, 3600, 1, 30},
		{"boosted", 0, 12500, 30, 3600, 15, 450},
		{"clamped to cap", 12400, 12500, 3000, 3600, 1, 12500},
		{"already over cap", 13000, 12500, 30, 3600, 1, 13000},
		{"no time", 100, 12500, 30, 0, 1, 100},
	}
	for _, tt := range tests {
		if got := Accrue(tt.current, tt.cap, tt.rate, tt.secs, tt.boost); !almostEqual(got, tt.want) {
			t.Errorf("%s: Accrue = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestBuildTime(t *testing.T) {
	cost := registry.Cost{Metal: 60, Crystal: 15}

	tests := []struct {
		name             string
		robotics, nanite int
		boost            float64
		want             time.Duration
	}{
		{"base", 0, 0, 1, 108 * time.Second},
		{"robotics", 1, 0, 1, 54 * time.Second},
		{"nanite", 0, 1, 1, 54 * time.Second},
		{"boosted", 0, 0, 0.25, 27 * time.Second},
	}
	for _, tt := range tests {
		if got := BuildTime(cost, tt.robotics, tt.nanite, tt.boost); got != tt.want {
			t.Errorf("%s: BuildTime = %v, want %v", tt.name, got, tt.want)
		}
	}

	if got := BuildTime(registry.Cost{}, 0, 0, 1); got != time.Second {
		t.Errorf("free build = %v, want 1s minimum", got)
	}
}

func TestScore(t *testing.T) {
	planet := Holdings{
		Buildings: map[string]int{"metal_mine": 3, "solar_plant": 2},
		Ships:     map[string]int{"light_fighter": 4},
		Defense:   map[string]int{"rocket_launcher": 2},
	}
	moon := Holdings{Ships: map[string]int{"recycler": 1}}
	research := map[string]int{"energy_tech": 2}

	// 5*100 + 4*50 + 2*50 + 1*50 + 2*150
	if got := Score(research, planet, moon); got != 1150 {
		t.Errorf("Score = %d, want 1150", got)
	}
}
