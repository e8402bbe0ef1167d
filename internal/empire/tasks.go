package empire

import (
	"maps"
	"time"

	"github.com/talgya/core-protocol/internal/combat"
	"github.com/talgya/core-protocol/internal/world"
)

// EventKind is the queue an event belongs to.
type EventKind string

const (
	EventBuilding EventKind = "BUILDING"
	EventResearch EventKind = "RESEARCH"
	EventShipyard EventKind = "SHIPYARD"
)

// Event is a queued construction, research, or production task.
type Event struct {
	ID         string    `json:"id"`
	Kind       EventKind `json:"kind"`
	TargetID   string    `json:"target_id"`
	ColonyID   string    `json:"colony_id"` // Research is empire-wide; kept for the lab that started it
	StartTime  time.Time `json:"start_time"`
	FinishTime time.Time `json:"finish_time"`
	Count      int       `json:"count,omitempty"`
}

// Amount is the event's batch size, at least 1.
func (e Event) Amount() int {
	if e.Count < 1 {
		return 1
	}
	return e.Count
}

// MissionType is what a fleet does on arrival.
type MissionType string

const (
	MissionAttack    MissionType = "ATTACK"
	MissionColonize  MissionType = "COLONIZE"
	MissionRecycle   MissionType = "RECYCLE"
	MissionTransport MissionType = "TRANSPORT"
	MissionDeploy    MissionType = "DEPLOY"
	MissionDestroy   MissionType = "DESTROY"
	MissionEspionage MissionType = "ESPIONAGE"
)

// Valid reports whether t is a known mission type.
func (t MissionType) Valid() bool {
	switch t {
	case MissionAttack, MissionColonize, MissionRecycle, MissionTransport,
		MissionDeploy, MissionDestroy, MissionEspionage:
		return true
	}
	return false
}

// Mission is a fleet in flight, either outbound or returning.
type Mission struct {
	ID          string         `json:"id"`
	Type        MissionType    `json:"type"`
	OriginID    string         `json:"origin_id"`
	Target      world.Coord    `json:"target"`
	Ships       map[string]int `json:"ships"`
	Resources   Resources      `json:"resources"`
	StartTime   time.Time      `json:"start_time"`
	ArrivalTime time.Time      `json:"arrival_time"`
	ReturnTime  time.Time      `json:"return_time,omitzero"`
	Returning   bool           `json:"is_returning"`
}

// Due reports whether the mission's next transition has been reached.
func (m Mission) Due(now time.Time) bool {
	if m.Returning {
		return !m.ReturnTime.IsZero() && !now.Before(m.ReturnTime)
	}
	return !now.Before(m.ArrivalTime)
}

// OutboundDuration is the length of the outbound leg.
func (m Mission) OutboundDuration() time.Duration {
	return m.ArrivalTime.Sub(m.StartTime)
}

func (m Mission) clone() Mission {
	m.Ships = maps.Clone(m.Ships)
	return m
}

// CombatReport is the immutable record of one resolved attack.
type CombatReport struct {
	ID                     string         `json:"id"`
	Time                   time.Time      `json:"time"`
	AttackerID             string         `json:"attacker_id"`
	DefenderID             string         `json:"defender_id"`
	DefenderName           string         `json:"defender_name"`
	Target                 world.Coord    `json:"target"`
	Winner                 combat.Winner  `json:"winner"`
	Rounds                 []combat.Round `json:"rounds"`
	TotalAttackerDamage    float64        `json:"total_attacker_damage"`
	TotalDefenderDamage    float64        `json:"total_defender_damage"`
	InitialAttackerHull    float64        `json:"initial_attacker_hull"`
	InitialDefenderHull    float64        `json:"initial_defender_hull"`
	FinalAttackerHull      float64        `json:"final_attacker_hull"`
	FinalDefenderHull      float64        `json:"final_defender_hull"`
	AttackerShieldsLeft    float64        `json:"attacker_shields_remaining"`
	DefenderShieldsLeft    float64        `json:"defender_shields_remaining"`
	Loot                   Resources      `json:"loot"`
	Debris                 Debris         `json:"debris"`
	InitialCargoCapacity   float64        `json:"initial_cargo_capacity"`
	SurvivingCargoCapacity float64        `json:"surviving_cargo_capacity"`
	RepairedDefense        map[string]int `json:"repaired_defense,omitempty"`
	MoonFormed             bool           `json:"moon_formed,omitempty"`
}

func (r CombatReport) clone() CombatReport {
	r.Rounds = append([]combat.Round(nil), r.Rounds...)
	r.RepairedDefense = maps.Clone(r.RepairedDefense)
	return r
}
