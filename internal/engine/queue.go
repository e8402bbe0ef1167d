package engine

import (
	"fmt"
	"time"

	"github.com/talgya/core-protocol/internal/economy"
	"github.com/talgya/core-protocol/internal/empire"
	"github.com/talgya/core-protocol/internal/registry"
)

// Quote is the price and duration of a task before it is queued.
type Quote struct {
	Cost     registry.Cost `json:"cost"`
	Duration time.Duration `json:"duration"`
	Level    int           `json:"level"` // Level reached on completion; 0 for shipyard batches
}

// QuoteTask prices a task at a colony. Buildings and research are priced at
// the level they will reach after anything already queued for the same
// target. Shipyard batches scale cost and time by count.
func QuoteTask(s *empire.State, colonyID string, kind empire.EventKind, targetID string, count int, now time.Time, env Env) (Quote, error) {
	env = env.withDefaults()
	c := s.ColonyByID(colonyID)
	if c == nil {
		return Quote{}, ErrUnknownColony
	}
	ent, err := entityFor(env.Registry, kind, targetID)
	if err != nil {
		return Quote{}, err
	}

	boost := 1.0
	if s.BoostActive(now) {
		boost = env.Rules.BuildBoostFactor
	}
	robotics := c.Level(economy.RoboticsFactory)
	nanite := c.Level(economy.NaniteFactory)

	switch kind {
	case empire.EventBuilding:
		level := c.Level(ent.ID) + queued(s, kind, c.ID, ent.ID)
		cost := env.Registry.CostAt(ent.ID, level)
		return Quote{Cost: cost, Duration: economy.BuildTime(cost, robotics, nanite, boost), Level: level + 1}, nil
	case empire.EventResearch:
		level := s.Research[ent.ID] + queued(s, kind, "", ent.ID)
		cost := env.Registry.CostAt(ent.ID, level)
		return Quote{Cost: cost, Duration: economy.BuildTime(cost, robotics, nanite, boost), Level: level + 1}, nil
	default:
		if count < 1 {
			count = 1
		}
		unit := env.Registry.CostAt(ent.ID, 0)
		per := economy.BuildTime(unit, robotics, nanite, boost)
		return Quote{Cost: unit.Scale(float64(count)), Duration: per * time.Duration(count)}, nil
	}
}

// entityFor resolves targetID against the class a queue accepts.
func entityFor(reg *registry.Registry, kind empire.EventKind, targetID string) (*registry.Entity, error) {
	var (
		ent *registry.Entity
		ok  bool
	)
	switch kind {
	case empire.EventBuilding:
		ent, ok = reg.Building(targetID)
	case empire.EventResearch:
		ent, ok = reg.Research(targetID)
	case empire.EventShipyard:
		ent, ok = reg.Unit(targetID)
	default:
		return nil, fmt.Errorf("%w: event kind %q", ErrInvalid, kind)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", ErrUnknownEntity, kind, targetID)
	}
	return ent, nil
}

func queued(s *empire.State, kind empire.EventKind, colonyID, targetID string) int {
	n := 0
	for _, e := range s.Events {
		if e.Kind == kind && e.TargetID == targetID && (colonyID == "" || e.ColonyID == colonyID) {
			n++
		}
	}
	return n
}

// meetsRequirements checks building requirements against the colony and
// research requirements against the empire.
func meetsRequirements(s *empire.State, c *empire.Colony, ent *registry.Entity, reg *registry.Registry) bool {
	for id, need := range ent.Requirements {
		have := 0
		if _, ok := reg.Research(id); ok {
			have = s.Research[id]
		} else {
			have = c.Level(id)
		}
		if have < need {
			return false
		}
	}
	return true
}

// AdmitEvent queues a building, research, or shipyard task and deducts its
// cost from the colony. Cost and Duration default to QuoteTask's values.
type AdmitEvent struct {
	ColonyID string           `json:"colony_id"` // Empty means the active colony
	Kind     empire.EventKind `json:"kind"`
	TargetID string           `json:"target_id"`
	Count    int              `json:"count,omitempty"`
	Cost     *registry.Cost   `json:"cost,omitempty"`
	Duration time.Duration    `json:"duration,omitempty"`
}

func (a AdmitEvent) colonyID(s *empire.State) string {
	if a.ColonyID == "" {
		return s.ActiveColonyID
	}
	return a.ColonyID
}

// terms returns the effective cost and duration.
func (a AdmitEvent) terms(s *empire.State, now time.Time, env Env) (registry.Cost, time.Duration, error) {
	q, err := QuoteTask(s, a.colonyID(s), a.Kind, a.TargetID, a.Count, now, env)
	if err != nil {
		return registry.Cost{}, 0, err
	}
	cost, dur := q.Cost, q.Duration
	if a.Cost != nil {
		cost = *a.Cost
	}
	if a.Duration > 0 {
		dur = a.Duration
	}
	return cost, dur, nil
}

func (a AdmitEvent) validate(s *empire.State, now time.Time, env Env) error {
	c := s.ColonyByID(a.colonyID(s))
	if c == nil {
		return ErrUnknownColony
	}
	ent, err := entityFor(env.Registry, a.Kind, a.TargetID)
	if err != nil {
		return err
	}

	switch a.Kind {
	case empire.EventBuilding:
		if s.CountEvents(empire.EventBuilding, c.ID) >= env.Rules.BuildingQueueLimit {
			return ErrQueueFull
		}
	case empire.EventResearch:
		if s.CountEvents(empire.EventResearch, "") >= env.Rules.ResearchQueueLimit {
			return ErrQueueFull
		}
	case empire.EventShipyard:
		if a.Count < 0 {
			return fmt.Errorf("%w: negative count", ErrInvalid)
		}
	}

	if !meetsRequirements(s, c, ent, env.Registry) {
		return ErrRequirements
	}

	cost, _, err := a.terms(s, now, env)
	if err != nil {
		return err
	}
	if !c.Resources.Covers(cost) {
		return ErrUnaffordable
	}
	return nil
}

func (a AdmitEvent) apply(s *empire.State, now time.Time, env Env) {
	c := s.ColonyByID(a.colonyID(s))
	cost, dur, err := a.terms(s, now, env)
	if c == nil || err != nil {
		return
	}
	c.Resources = c.Resources.Sub(empire.FromCost(cost))

	count := 0
	if a.Kind != empire.EventBuilding {
		count = max(a.Count, 1)
	}
	s.Events = append(s.Events, empire.Event{
		ID:         env.NewID(),
		Kind:       a.Kind,
		TargetID:   a.TargetID,
		ColonyID:   c.ID,
		StartTime:  now,
		FinishTime: now.Add(dur),
		Count:      count,
	})
}

// drainEvents resolves every event finished by now, in queue order.
func drainEvents(s *empire.State, now time.Time, env Env) int {
	var pending []empire.Event
	done := 0
	for _, e := range s.Events {
		if e.FinishTime.After(now) {
			pending = append(pending, e)
			continue
		}
		completeEvent(s, e, now, env)
		done++
	}
	s.Events = pending
	return done
}

func completeEvent(s *empire.State, e empire.Event, now time.Time, env Env) {
	name := entityName(env.Registry, e.TargetID)

	switch e.Kind {
	case empire.EventBuilding:
		c := s.ColonyByID(e.ColonyID)
		if c == nil {
			return
		}
		c.Buildings[e.TargetID]++
		notice(s, now, env, empire.LogConstruction, c.Name,
			"%s upgraded to level %d", name, c.Buildings[e.TargetID])

	case empire.EventResearch:
		s.Research[e.TargetID] += e.Amount()
		notice(s, now, env, empire.LogResearch, "Empire Hub",
			"%s research complete (level %d)", name, s.Research[e.TargetID])

	case empire.EventShipyard:
		c := s.ColonyByID(e.ColonyID)
		if c == nil {
			return
		}
		ent, ok := env.Registry.Unit(e.TargetID)
		if !ok {
			return
		}
		if ent.Class == registry.ClassDefense {
			c.Defense[e.TargetID] += e.Amount()
		} else {
			c.Ships[e.TargetID] += e.Amount()
		}
		notice(s, now, env, empire.LogProduction, c.Name, "Fabricated %dx %s", e.Amount(), name)
	}
}

func entityName(reg *registry.Registry, id string) string {
	if e, ok := reg.Get(id); ok && e.Name != "" {
		return e.Name
	}
	return id
}

// notice appends a system log entry.
func notice(s *empire.State, now time.Time, env Env, kind empire.LogKind, colony, format string, args ...any) {
	s.AppendLog(empire.LogEntry{
		ID:         env.NewID(),
		Time:       now,
		Kind:       kind,
		Message:    fmt.Sprintf(format, args...),
		ColonyName: colony,
	}, env.Rules.LogCap)
}
