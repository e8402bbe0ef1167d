package world

import (
	"testing"

	"github.com/talgya/core-protocol/internal/entropy"
	"github.com/talgya/core-protocol/internal/registry"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		from, to Coord
		want     float64
	}{
		{"same coordinate", Coord{1, 1, 1}, Coord{1, 1, 1}, 5},
		{"same system", Coord{1, 1, 1}, Coord{1, 1, 3}, 1010},
		{"other system", Coord{1, 10, 1}, Coord{1, 12, 9}, 2890},
		{"other galaxy", Coord{3, 10, 1}, Coord{1, 400, 9}, 40000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.from, tt.to); got != tt.want {
				t.Errorf("Distance(%v, %v) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
			if got := Distance(tt.to, tt.from); got != tt.want {
				t.Errorf("Distance is not symmetric: %v", got)
			}
		})
	}
}

func TestFlightSeconds(t *testing.T) {
	tests := []struct {
		distance, speed, pct float64
		want                 int64
	}{
		{1010, 0, 100, 0},
		{1010, -5, 100, 0},
		{5, 12500, 100, 32},     // 350*sqrt(0.004)+10
		{2500, 2500, 100, 1116}, // 350*sqrt(10)+10
	}
	for _, tt := range tests {
		if got := FlightSeconds(tt.distance, tt.speed, tt.pct); got != tt.want {
			t.Errorf("FlightSeconds(%v, %v, %v) = %d, want %d", tt.distance, tt.speed, tt.pct, got, tt.want)
		}
	}
	if FlightSeconds(1000, 2500, 50) <= FlightSeconds(1000, 2500, 100) {
		t.Error("lower speed percentage should lengthen the flight")
	}
}

func TestFleetSpeed(t *testing.T) {
	reg := registry.Default()

	tests := []struct {
		name  string
		ships map[string]int
		want  float64
	}{
		{"empty fleet", map[string]int{}, DefaultSpeed},
		{"satellites only", map[string]int{"solar_satellite": 4}, DefaultSpeed},
		{"slowest wins", map[string]int{"light_fighter": 3, "recycler": 1}, 2000},
		{"speed-0 ignored", map[string]int{"light_fighter": 3, "solar_satellite": 1}, 12500},
		{"zero count ignored", map[string]int{"light_fighter": 3, "recycler": 0}, 12500},
	}
	for _, tt := range tests {
		if got := FleetSpeed(reg, tt.ships); got != tt.want {
			t.Errorf("%s: FleetSpeed = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseCoord(t *testing.T) {
	c, err := ParseCoord("2:130:16")
	if err != nil {
		t.Fatalf("ParseCoord: %v", err)
	}
	if c != (Coord{2, 130, 16}) || !c.IsBanditSlot() {
		t.Errorf("got %+v", c)
	}
	if c.Key() != "2:130:16" {
		t.Errorf("Key = %q", c.Key())
	}
	for _, bad := range []string{"", "1:2", "1:x:3", "1:2:17", "1:2:0"} {
		if _, err := ParseCoord(bad); err == nil {
			t.Errorf("ParseCoord(%q) accepted", bad)
		}
	}
}

func TestGeneratePlanetBands(t *testing.T) {
	rng := entropy.NewSeeded(3)
	for i := 0; i < 200; i++ {
		for slot := 1; slot <= MaxSlot; slot++ {
			p := GeneratePlanet(slot, rng)
			switch {
			case slot <= 3:
				if p.MaxTemp < 80 || p.MaxTemp >= 140 {
					t.Fatalf("slot %d temp %d outside hot band", slot, p.MaxTemp)
				}
			case slot <= 12:
				if p.MaxTemp < 20 || p.MaxTemp >= 60 {
					t.Fatalf("slot %d temp %d outside temperate band", slot, p.MaxTemp)
				}
			case slot <= 15:
				if p.MaxTemp < -120 || p.MaxTemp >= -10 {
					t.Fatalf("slot %d temp %d outside cold band", slot, p.MaxTemp)
				}
			default:
				if p.MaxTemp != 40 {
					t.Fatalf("slot %d temp %d, want default 40", slot, p.MaxTemp)
				}
			}
			if slot >= 7 && slot <= 9 && (p.MaxFields < 200 || p.MaxFields >= 250) {
				t.Fatalf("slot %d fields %d outside 200..249", slot, p.MaxFields)
			}
		}
	}
}

func TestCatalogOutpost(t *testing.T) {
	cat := NewCatalog(11)

	if _, ok := cat.Outpost(Coord{1, 1, 4}); ok {
		t.Error("non-bandit slot reported an outpost")
	}

	c := Coord{1, 42, BanditSlot}
	a, ok := cat.Outpost(c)
	if !ok {
		t.Fatal("bandit slot has no outpost")
	}
	b, _ := NewCatalog(11).Outpost(c)
	if a != b {
		t.Errorf("same seed gave different outposts: %+v vs %+v", a, b)
	}
	if a.Metal < outpostMetal*0.5 || a.Metal > outpostMetal*1.5 {
		t.Errorf("metal %v outside richness band", a.Metal)
	}

	var nilCat *Catalog
	base, ok := nilCat.Outpost(c)
	if !ok || base.Metal != outpostMetal || base.Deuterium != outpostDeuterium {
		t.Errorf("nil catalog outpost = %+v", base)
	}
}
