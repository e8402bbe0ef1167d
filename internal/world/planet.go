package world

import (
	"math"

	"github.com/talgya/core-protocol/internal/entropy"
)

// PlanetProfile is the environment of a newly founded colony.
type PlanetProfile struct {
	MaxTemp   int `json:"max_temp"`
	MaxFields int `json:"max_fields"`
}

// GeneratePlanet derives temperature and field count from the orbital slot.
// Inner slots run hot, outer slots run cold; each band is jittered.
func GeneratePlanet(slot int, rng entropy.Source) PlanetProfile {
	p := PlanetProfile{MaxTemp: 40, MaxFields: 160}

	switch {
	case slot >= 1 && slot <= 3:
		p.MaxTemp = jitter(80, 60, rng)
	case slot >= 4 && slot <= 12:
		p.MaxTemp = jitter(20, 40, rng)
	case slot >= 13 && slot <= 15:
		p.MaxTemp = jitter(-120, 110, rng)
	}

	switch {
	case slot >= 7 && slot <= 9:
		p.MaxFields = jitter(200, 50, rng)
	case slot >= 1 && slot <= 3, slot >= 13 && slot <= 15:
		p.MaxFields = jitter(120, 40, rng)
	default:
		p.MaxFields = jitter(160, 40, rng)
	}

	return p
}

// jitter returns floor(base + r*span) with r drawn from [0, 1).
func jitter(base, span float64, rng entropy.Source) int {
	return int(math.Floor(base + rng.Float64()*span))
}
