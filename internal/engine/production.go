package engine

import (
	"time"

	"github.com/talgya/core-protocol/internal/economy"
	"github.com/talgya/core-protocol/internal/empire"
)

// ColonyRates returns a colony's current hourly output and energy balance.
func ColonyRates(c *empire.Colony, env Env) economy.Rates {
	return economy.ProductionRates(env.Registry, c.Buildings, c.Ships, float64(c.MaxTemp), c.Coord.Slot)
}

// boostMultiplier is the accrual multiplier in effect at now.
func boostMultiplier(s *empire.State, now time.Time, env Env) float64 {
	if s.BoostActive(now) && env.Rules.BoostMultiplier > 0 {
		return env.Rules.BoostMultiplier
	}
	return 1
}

// accrue advances every colony's stockpile from its own LastUpdate to now.
// Elapsed time is capped per colony, and time lost past the cap is not
// carried over. A colony whose LastUpdate lies in the future is not rewound.
func accrue(s *empire.State, now time.Time, env Env) {
	boost := boostMultiplier(s, now, env)
	limit := env.Rules.CatchUpCap.Seconds()

	for _, c := range s.Colonies {
		elapsed := now.Sub(c.LastUpdate).Seconds()
		if elapsed < 0 {
			elapsed = 0
		}
		if limit > 0 && elapsed > limit {
			elapsed = limit
		}

		rates := ColonyRates(c, env)
		caps := economy.Caps(c.Buildings)

		c.Resources.Metal = economy.Accrue(c.Resources.Metal, caps.Metal, rates.Metal, elapsed, boost)
		c.Resources.Crystal = economy.Accrue(c.Resources.Crystal, caps.Crystal, rates.Crystal, elapsed, boost)
		c.Resources.Deuterium = economy.Accrue(c.Resources.Deuterium, caps.Deuterium, rates.Deuterium, elapsed, boost)
		c.Resources.Energy = rates.Energy

		if now.After(c.LastUpdate) {
			c.LastUpdate = now
		}
	}
}
