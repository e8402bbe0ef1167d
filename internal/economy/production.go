// Package economy provides the production model: hourly yields, energy
// balance, storage capacity, loot protection, build times, and score.
// Every function here is pure.
package economy

import (
	"math"

	"github.com/talgya/core-protocol/internal/registry"
)

// Passive hourly yield every colony gets before building bonuses.
const (
	BaseMetal     = 30
	BaseCrystal   = 20
	BaseDeuterium = 10
)

// SolarSatellite is the ship id that contributes orbital energy.
const SolarSatellite = "solar_satellite"

// Rates is a colony's hourly output and energy balance.
type Rates struct {
	Metal             float64 `json:"metal"`
	Crystal           float64 `json:"crystal"`
	Deuterium         float64 `json:"deuterium"`
	Energy            float64 `json:"energy"` // Net balance, may be negative
	EnergyProduction  float64 `json:"energy_production"`
	EnergyConsumption float64 `json:"energy_consumption"`
	Efficiency        float64 `json:"efficiency"` // 0..1, scales mined resources only
}

// DeuteriumModifier scales synthesizer output by temperature: colder worlds
// yield more.
func DeuteriumModifier(maxTemp float64) float64 {
	return 1.28 - 0.002*maxTemp
}

// SatelliteEnergy is the output of one solar satellite at maxTemp.
func SatelliteEnergy(maxTemp float64) float64 {
	return math.Floor((maxTemp + 140) / 6)
}

// ProductionRates computes hourly yields from building levels and the
// solar-satellite count. slot is accepted for future orbital modifiers.
func ProductionRates(reg *registry.Registry, buildings, ships map[string]int, maxTemp float64, slot int) Rates {
	var mined registry.Output
	var energyProd, energyCons float64

	for id, level := range buildings {
		if level <= 0 {
			continue
		}
		b, ok := reg.Building(id)
		if !ok || b.Formula == nil {
			continue
		}
		out := b.Formula.Evaluate(level)
		mined.Metal += out.Metal
		mined.Crystal += out.Crystal
		mined.Deuterium += out.Deuterium * DeuteriumModifier(maxTemp)
		energyProd += out.EnergyProduction
		energyCons += out.EnergyConsumption
	}

	if sats := ships[SolarSatellite]; sats > 0 {
		energyProd += float64(sats) * SatelliteEnergy(maxTemp)
	}

	eff := Efficiency(energyProd, energyCons)

	return Rates{
		Metal:             (BaseMetal + mined.Metal) * eff,
		Crystal:           (BaseCrystal + mined.Crystal) * eff,
		Deuterium:         (BaseDeuterium + mined.Deuterium) * eff,
		Energy:            energyProd - energyCons,
		EnergyProduction:  energyProd,
		EnergyConsumption: energyCons,
		Efficiency:        eff,
	}
}

// Efficiency is 1 while production covers consumption, otherwise the
// covered fraction.
func Efficiency(production, consumption float64) float64 {
	if consumption <= production {
		return 1
	}
	if production <= 0 {
		return 0
	}
	return math.Max(0, production/consumption)
}

// Accrue advances a stockpile by rate*boost over seconds, never past cap.
// A stockpile already at or over cap is left untouched.
func Accrue(current, cap, ratePerHour, seconds, boost float64) float64 {
	if current >= cap || seconds <= 0 {
		return current
	}
	added := ratePerHour * boost * seconds / 3600
	return math.Min(cap, current+added)
}
