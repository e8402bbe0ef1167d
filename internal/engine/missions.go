package engine

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/talgya/core-protocol/internal/combat"
	"github.com/talgya/core-protocol/internal/economy"
	"github.com/talgya/core-protocol/internal/empire"
	"github.com/talgya/core-protocol/internal/world"
)

// Mission tuning.
const (
	ColonyShip       = "colony_ship"
	Astrophysics     = "astrophysics"
	NewColonyName    = "Colony"
	MoonDebrisScale  = 100000.0
	MoonMinSize      = 4000
	MoonSizeSpread   = 5000
	DeepSpace        = "Deep Space"
	NPCDefender      = "NPC"
	fullSpeedPercent = 100
	MinSpeedPercent  = 10
)

// MaxColonies is the empire size allowed by an astrophysics level.
func MaxColonies(astrophysics int) int {
	return astrophysics/2 + 2
}

// LaunchMission sends ships and cargo from a colony toward a coordinate.
type LaunchMission struct {
	Type      empire.MissionType `json:"type"`
	OriginID  string             `json:"origin_id"` // Empty means the active colony
	Target    world.Coord        `json:"target"`
	Ships     map[string]int     `json:"ships"`
	Resources empire.Resources   `json:"resources"`
	Speed     float64            `json:"speed_percent,omitempty"` // MinSpeedPercent..100, 0 means 100
}

func (l LaunchMission) originID(s *empire.State) string {
	if l.OriginID == "" {
		return s.ActiveColonyID
	}
	return l.OriginID
}

func (l LaunchMission) validate(s *empire.State, _ time.Time, env Env) error {
	origin := s.ColonyByID(l.originID(s))
	if origin == nil {
		return ErrUnknownColony
	}
	if !l.Type.Valid() {
		return fmt.Errorf("%w: mission type %q", ErrInvalid, l.Type)
	}
	if !l.Target.Valid() {
		return fmt.Errorf("%w: target %s", ErrInvalid, l.Target)
	}
	if l.Speed != 0 && (l.Speed < MinSpeedPercent || l.Speed > fullSpeedPercent) {
		return fmt.Errorf("%w: speed %v%%", ErrInvalid, l.Speed)
	}

	total := 0
	cargo := 0.0
	for id, n := range l.Ships {
		if n < 0 {
			return fmt.Errorf("%w: negative count for %s", ErrInvalid, id)
		}
		if n == 0 {
			continue
		}
		ship, ok := env.Registry.Ship(id)
		if !ok {
			return fmt.Errorf("%w: ship %q", ErrUnknownEntity, id)
		}
		if origin.Ships[id] < n {
			return fmt.Errorf("%w: %s", ErrNoShips, id)
		}
		total += n
		cargo += ship.Stats.Cargo * float64(n)
	}
	if total == 0 {
		return ErrNoShips
	}
	if l.Type == empire.MissionColonize && l.Ships[ColonyShip] < 1 {
		return fmt.Errorf("%w: colonization needs a colony ship", ErrNoShips)
	}

	r := l.Resources
	if r.Metal < 0 || r.Crystal < 0 || r.Deuterium < 0 {
		return fmt.Errorf("%w: negative cargo", ErrInvalid)
	}
	if origin.Resources.Metal < r.Metal || origin.Resources.Crystal < r.Crystal || origin.Resources.Deuterium < r.Deuterium {
		return ErrUnaffordable
	}
	if r.Total() > cargo {
		return ErrCargo
	}
	return nil
}

func (l LaunchMission) apply(s *empire.State, now time.Time, env Env) {
	origin := s.ColonyByID(l.originID(s))
	if origin == nil {
		return
	}
	ships := empire.Prune(empire.AddCounts(nil, l.Ships))
	cargo := empire.Resources{Metal: l.Resources.Metal, Crystal: l.Resources.Crystal, Deuterium: l.Resources.Deuterium}

	empire.SubCounts(origin.Ships, ships)
	origin.Resources = origin.Resources.Sub(cargo)

	dist := world.Distance(origin.Coord, l.Target)
	secs := world.FlightSeconds(dist, world.FleetSpeed(env.Registry, ships), l.Speed)

	s.Missions = append(s.Missions, empire.Mission{
		ID:          env.NewID(),
		Type:        l.Type,
		OriginID:    origin.ID,
		Target:      l.Target,
		Ships:       ships,
		Resources:   cargo,
		StartTime:   now,
		ArrivalTime: now.Add(time.Duration(secs) * time.Second),
	})
}

// missionReport counts what a mission drain did.
type missionReport struct {
	resolved int
	battles  int
}

// drainMissions resolves every mission due at now. A mission whose return leg
// is already due after arrival is resolved in the same pass, so a repeated
// call with the same now changes nothing.
func drainMissions(s *empire.State, now time.Time, env Env) missionReport {
	var rep missionReport
	for {
		var due []empire.Mission
		pending := make([]empire.Mission, 0, len(s.Missions))
		for _, m := range s.Missions {
			if m.Due(now) {
				due = append(due, m)
			} else {
				pending = append(pending, m)
			}
		}
		if len(due) == 0 {
			return rep
		}
		s.Missions = pending

		for _, m := range due {
			rep.resolved++
			if m.Returning {
				returnHome(s, m, now, env)
				continue
			}
			if m.Type == empire.MissionAttack {
				rep.battles++
			}
			if next, ok := arrive(s, m, now, env); ok {
				s.Missions = append(s.Missions, next)
			}
		}
	}
}

func returnHome(s *empire.State, m empire.Mission, now time.Time, env Env) {
	origin := s.ColonyByID(m.OriginID)
	if origin == nil {
		slog.Warn("returning fleet has no origin", "mission", m.ID, "origin", m.OriginID)
		return
	}
	origin.Ships = empire.AddCounts(origin.Ships, m.Ships)
	origin.Resources = origin.Resources.Add(m.Resources)

	notice(s, now, env, empire.LogMission, origin.Name,
		"Fleet returned from %s carrying %s metal, %s crystal, %s deuterium",
		m.Target, empire.FormatAmount(m.Resources.Metal),
		empire.FormatAmount(m.Resources.Crystal), empire.FormatAmount(m.Resources.Deuterium))
}

// arrive resolves an outbound mission. It returns the return leg, or false
// when the fleet does not come back.
func arrive(s *empire.State, m empire.Mission, now time.Time, env Env) (empire.Mission, bool) {
	switch m.Type {
	case empire.MissionColonize:
		return colonize(s, m, now, env)
	case empire.MissionAttack:
		return attack(s, m, now, env)
	case empire.MissionRecycle:
		return recycle(s, m, now, env)
	}

	m.Returning = true
	m.ReturnTime = now.Add(m.OutboundDuration())
	notice(s, now, env, empire.LogMission, originName(s, m),
		"%s fleet reached %s", m.Type, m.Target)
	return m, true
}

func colonize(s *empire.State, m empire.Mission, now time.Time, env Env) (empire.Mission, bool) {
	reason := ""
	switch {
	case len(s.Colonies) >= MaxColonies(s.Research[Astrophysics]):
		reason = "empire cap reached"
	case s.ColonyAt(m.Target) != nil:
		reason = "target already settled"
	case m.Target.IsBanditSlot():
		reason = "target is a bandit outpost"
	}
	if reason != "" {
		m.Returning = true
		m.ReturnTime = now.Add(m.OutboundDuration())
		notice(s, now, env, empire.LogMission, originName(s, m),
			"Colonization of %s aborted: %s. Fleet returning", m.Target, reason)
		return m, true
	}

	profile := world.GeneratePlanet(m.Target.Slot, env.Rand)
	ships := empire.AddCounts(nil, m.Ships)
	ships[ColonyShip]--
	empire.Prune(ships)

	s.Colonies = append(s.Colonies, &empire.Colony{
		ID:         env.NewID(),
		OwnerID:    s.PlayerID,
		Name:       NewColonyName,
		Coord:      m.Target,
		Resources:  empire.Resources{Metal: m.Resources.Metal, Crystal: m.Resources.Crystal, Deuterium: m.Resources.Deuterium},
		LastUpdate: now,
		Buildings:  make(map[string]int),
		Ships:      ships,
		Defense:    make(map[string]int),
		MaxTemp:    profile.MaxTemp,
		MaxFields:  profile.MaxFields,
	})
	notice(s, now, env, empire.LogMission, "Expansion Command", "New colony founded at %s", m.Target)
	slog.Info("colony founded", "coord", m.Target.Key(), "max_temp", profile.MaxTemp)
	return empire.Mission{}, false
}

func attack(s *empire.State, m empire.Mission, now time.Time, env Env) (empire.Mission, bool) {
	target := s.ColonyAt(m.Target)
	in := combat.Input{
		AttackerShips: m.Ships,
		Bandit:        m.Target.IsBanditSlot(),
		DebrisRatio:   env.Registry.Tuning.DebrisRatio,
		MaxRounds:     env.Rules.MaxCombatRounds,
	}
	defenderID, defenderName := NPCDefender, DeepSpace

	if target != nil {
		prot := economy.Protections(target.Buildings)
		in.DefenderShips = target.Ships
		in.DefenderDefense = target.Defense
		in.Resources = combat.Stockpile{Metal: target.Resources.Metal, Crystal: target.Resources.Crystal, Deuterium: target.Resources.Deuterium}
		in.Protected = combat.Stockpile{Metal: prot.Metal, Crystal: prot.Crystal, Deuterium: prot.Deuterium}
		defenderID, defenderName = target.OwnerID, target.Name
	} else if outpost, ok := env.Catalog.Outpost(m.Target); ok {
		in.Resources = combat.Stockpile{Metal: outpost.Metal, Crystal: outpost.Crystal, Deuterium: outpost.Deuterium}
		defenderName = outpost.Name
	}

	res := combat.Simulate(in, env.Registry, env.Rand)
	loot := empire.Resources{Metal: res.Loot.Metal, Crystal: res.Loot.Crystal, Deuterium: res.Loot.Deuterium}

	key := m.Target.Key()
	field := s.Debris[key]
	field.Metal += res.DebrisMetal
	field.Crystal += res.DebrisCrystal
	if !field.Empty() {
		s.Debris[key] = field
	}

	moonFormed := false
	if fresh := res.DebrisMetal + res.DebrisCrystal; target != nil && target.Moon == nil && fresh > 0 {
		chance := math.Min(env.Registry.Tuning.MoonMaxChance, fresh/MoonDebrisScale)
		if env.Rand.Float64() < chance {
			target.Moon = &empire.Moon{
				Size:       int(math.Floor(MoonMinSize + env.Rand.Float64()*MoonSizeSpread)),
				LastUpdate: now,
				Buildings:  make(map[string]int),
				Ships:      make(map[string]int),
				Defense:    make(map[string]int),
			}
			moonFormed = true
			notice(s, now, env, empire.LogMission, target.Name,
				"A moon has formed from the debris above %s", target.Name)
		}
	}

	if target != nil {
		target.Ships = res.DefenderShipSurvivors
		target.Defense = empire.AddCounts(res.DefenderDefenseLeft, res.RepairedDefense)
		target.Resources = target.Resources.Sub(loot)
	}

	s.AppendReport(empire.CombatReport{
		ID:                     env.NewID(),
		Time:                   now,
		AttackerID:             s.PlayerID,
		DefenderID:             defenderID,
		DefenderName:           defenderName,
		Target:                 m.Target,
		Winner:                 res.Winner,
		Rounds:                 res.Rounds,
		TotalAttackerDamage:    res.TotalAttackerDamage,
		TotalDefenderDamage:    res.TotalDefenderDamage,
		InitialAttackerHull:    res.InitialAttackerHull,
		InitialDefenderHull:    res.InitialDefenderHull,
		FinalAttackerHull:      res.FinalAttackerHull,
		FinalDefenderHull:      res.FinalDefenderHull,
		AttackerShieldsLeft:    res.AttackerShieldsLeft,
		DefenderShieldsLeft:    res.DefenderShieldsLeft,
		Loot:                   loot,
		Debris:                 empire.Debris{Metal: res.DebrisMetal, Crystal: res.DebrisCrystal},
		InitialCargoCapacity:   res.InitialCargoCapacity,
		SurvivingCargoCapacity: res.SurvivingCargoCapacity,
		RepairedDefense:        res.RepairedDefense,
		MoonFormed:             moonFormed,
	}, env.Rules.ReportCap)

	notice(s, now, env, empire.LogMission, originName(s, m),
		"Combat at %s finished: %s", m.Target, res.Winner)
	slog.Debug("battle resolved", "target", key, "winner", res.Winner, "rounds", len(res.Rounds))

	if len(res.AttackerSurvivors) == 0 {
		return empire.Mission{}, false
	}
	m.Ships = res.AttackerSurvivors
	m.Resources = loot
	m.Returning = true
	m.ReturnTime = now.Add(legDuration(s, m, res.MissionSpeed))
	return m, true
}

func recycle(s *empire.State, m empire.Mission, now time.Time, env Env) (empire.Mission, bool) {
	key := m.Target.Key()
	var got empire.Debris

	if field, ok := s.Debris[key]; ok {
		capacity := 0.0
		for id, n := range m.Ships {
			if ship, ok := env.Registry.Ship(id); ok {
				capacity += ship.Stats.Cargo * float64(n)
			}
		}
		total := field.Total()
		if total <= 0 {
			total = 1
		}
		ratio := math.Min(1, capacity/total)
		got.Metal = math.Floor(field.Metal * ratio)
		got.Crystal = math.Floor(field.Crystal * ratio)

		field.Metal = math.Max(0, field.Metal-got.Metal)
		field.Crystal = math.Max(0, field.Crystal-got.Crystal)
		if field.Empty() {
			delete(s.Debris, key)
		} else {
			s.Debris[key] = field
		}
	}

	m.Resources = empire.Resources{Metal: got.Metal, Crystal: got.Crystal}
	m.Returning = true
	m.ReturnTime = now.Add(legDuration(s, m, world.FleetSpeed(env.Registry, m.Ships)))

	notice(s, now, env, empire.LogMission, originName(s, m),
		"Salvaged %s metal and %s crystal at %s",
		empire.FormatAmount(got.Metal), empire.FormatAmount(got.Crystal), key)
	return m, true
}

// legDuration is the flight time from the target back to the origin at full
// speed. A vanished origin is treated as the target itself.
func legDuration(s *empire.State, m empire.Mission, speed float64) time.Duration {
	from := m.Target
	if origin := s.ColonyByID(m.OriginID); origin != nil {
		from = origin.Coord
	}
	if speed <= 0 {
		speed = world.DefaultSpeed
	}
	secs := world.FlightSeconds(world.Distance(from, m.Target), speed, fullSpeedPercent)
	return time.Duration(secs) * time.Second
}

func originName(s *empire.State, m empire.Mission) string {
	if c := s.ColonyByID(m.OriginID); c != nil {
		return c.Name
	}
	return ""
}
