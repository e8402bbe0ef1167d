package world

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Base stockpile of an NPC outpost before survey noise is applied.
const (
	outpostMetal     = 25000
	outpostCrystal   = 15000
	outpostDeuterium = 5000
)

// Outpost is a read-only snapshot of an NPC holding at a bandit slot.
type Outpost struct {
	Name      string  `json:"name"`
	Metal     float64 `json:"metal"`
	Crystal   float64 `json:"crystal"`
	Deuterium float64 `json:"deuterium"`
}

// Catalog surveys coordinates that no empire owns. Outposts are derived from
// layered simplex noise so the same seed always describes the same galaxy.
type Catalog struct {
	noise opensimplex.Noise
}

// NewCatalog creates a catalog for the given galaxy seed.
func NewCatalog(seed int64) *Catalog {
	return &Catalog{noise: opensimplex.NewNormalized(seed)}
}

// Outpost returns the NPC outpost at c, if c is a bandit slot.
func (cat *Catalog) Outpost(c Coord) (Outpost, bool) {
	if !c.IsBanditSlot() {
		return Outpost{}, false
	}
	richness := 1.0
	if cat != nil && cat.noise != nil {
		// Galaxies sit far apart in noise space; systems are neighbours.
		x := float64(c.Galaxy)*97.0 + float64(c.System)*0.35
		y := float64(c.Slot) * 0.5
		richness = 0.5 + octaveNoise(cat.noise, x, y, 3, 0.6, 0.5)
	}
	return Outpost{
		Name:      "Bandit Outpost",
		Metal:     float64(int(outpostMetal * richness)),
		Crystal:   float64(int(outpostCrystal * richness)),
		Deuterium: float64(int(outpostDeuterium * richness)),
	}, true
}

// octaveNoise generates fractal noise by layering multiple frequencies.
// With a normalized generator the result stays in [0, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
