package economy

import "math"

// Storage building ids, one per stockpiled resource.
const (
	MetalStorage   = "metal_storage"
	CrystalStorage = "crystal_storage"
	DeuteriumTank  = "deut_tank"
)

const baseProtection = 1250

// Capacity is floor(12500 * e^(20*level/33)).
func Capacity(level int) float64 {
	return math.Floor(5000 * 2.5 * math.Exp(20*float64(level)/33))
}

// Protection is the stock that raiders cannot loot at a storage level.
func Protection(level int) float64 {
	if level <= 0 {
		return baseProtection
	}
	return math.Floor(baseProtection + Capacity(level)*0.12 + float64(level)*500)
}

// Limits holds one value per stockpiled resource.
type Limits struct {
	Metal     float64 `json:"metal"`
	Crystal   float64 `json:"crystal"`
	Deuterium float64 `json:"deuterium"`
}

// Caps returns the storage capacity for each resource.
func Caps(buildings map[string]int) Limits {
	return Limits{
		Metal:     Capacity(buildings[MetalStorage]),
		Crystal:   Capacity(buildings[CrystalStorage]),
		Deuterium: Capacity(buildings[DeuteriumTank]),
	}
}

// Protections returns the unlootable amount for each resource.
func Protections(buildings map[string]int) Limits {
	return Limits{
		Metal:     Protection(buildings[MetalStorage]),
		Crystal:   Protection(buildings[CrystalStorage]),
		Deuterium: Protection(buildings[DeuteriumTank]),
	}
}
