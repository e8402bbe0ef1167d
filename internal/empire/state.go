package empire

import (
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/core-protocol/internal/entropy"
	"github.com/talgya/core-protocol/internal/world"
)

// Defaults for a freshly initialized empire.
const (
	DefaultPlayerID = "u1-player"
	HomeColonyID    = "p1"
	HomeColonyName  = "Prime Core"
	DefaultBio      = "Status: Active. Protocol: Core. Log entry #0: Awakening in the prime sector."
	DefaultBoost    = 24 * time.Hour
)

var HomeCoord = world.Coord{Galaxy: 1, System: 42, Slot: 1}

var namePrefixes = []string{"Apex", "Delta", "Sigma", "Xenon", "Omega", "Vortex", "Echo", "Nebula"}

// State is the whole empire document. It is serialized as one snapshot.
type State struct {
	PlayerID            string            `json:"player_id"`
	PlayerName          string            `json:"player_name"`
	Bio                 string            `json:"bio"`
	NameChangeAvailable bool              `json:"name_change_available"`
	Research            map[string]int    `json:"research"`
	Colonies            []*Colony         `json:"colonies"`
	ActiveColonyID      string            `json:"active_colony_id"`
	Events              []Event           `json:"events"`
	Missions            []Mission         `json:"missions"`
	Reports             []CombatReport    `json:"reports"` // Newest first
	Logs                []LogEntry        `json:"logs"`    // Newest first
	Debris              map[string]Debris `json:"debris"`  // Keyed by Coord.Key()
	LogsSeenAt          time.Time         `json:"logs_seen_at"`
	BoostEndsAt         time.Time         `json:"boost_ends_at"`
}

// NewID returns a fresh random identifier.
func NewID() string {
	return uuid.NewString()
}

// NewState returns the default empire: one home colony and a 24h boost.
func NewState(now time.Time, rng entropy.Source) *State {
	if rng == nil {
		rng = entropy.Crypto()
	}
	home := &Colony{
		ID:         HomeColonyID,
		OwnerID:    DefaultPlayerID,
		Name:       HomeColonyName,
		Coord:      HomeCoord,
		Resources:  Resources{Metal: 10000, Crystal: 8000, Deuterium: 5000},
		LastUpdate: now,
		Buildings:  make(map[string]int),
		Ships:      make(map[string]int),
		Defense:    make(map[string]int),
		MaxTemp:    140,
	}
	return &State{
		PlayerID:            DefaultPlayerID,
		PlayerName:          namePrefixes[rng.Intn(len(namePrefixes))],
		Bio:                 DefaultBio,
		NameChangeAvailable: true,
		Research:            make(map[string]int),
		Colonies:            []*Colony{home},
		ActiveColonyID:      home.ID,
		Debris:              make(map[string]Debris),
		LogsSeenAt:          now,
		BoostEndsAt:         now.Add(DefaultBoost),
	}
}

// Clone returns a deep copy that shares no mutable data with s.
func (s *State) Clone() *State {
	out := *s
	out.Research = cloneCounts(s.Research)

	out.Colonies = make([]*Colony, len(s.Colonies))
	for i, c := range s.Colonies {
		out.Colonies[i] = c.Clone()
	}

	out.Events = append([]Event(nil), s.Events...)

	out.Missions = make([]Mission, len(s.Missions))
	for i, m := range s.Missions {
		out.Missions[i] = m.clone()
	}

	out.Reports = make([]CombatReport, len(s.Reports))
	for i, r := range s.Reports {
		out.Reports[i] = r.clone()
	}

	out.Logs = append([]LogEntry(nil), s.Logs...)

	out.Debris = maps.Clone(s.Debris)
	if out.Debris == nil {
		out.Debris = make(map[string]Debris)
	}
	return &out
}

// Normalize fills nil maps left behind by a decoded snapshot and repairs the
// active colony pointer.
func (s *State) Normalize() {
	if s.Research == nil {
		s.Research = make(map[string]int)
	}
	if s.Debris == nil {
		s.Debris = make(map[string]Debris)
	}
	for _, c := range s.Colonies {
		if c.Buildings == nil {
			c.Buildings = make(map[string]int)
		}
		if c.Ships == nil {
			c.Ships = make(map[string]int)
		}
		if c.Defense == nil {
			c.Defense = make(map[string]int)
		}
	}
	if s.ColonyByID(s.ActiveColonyID) == nil && len(s.Colonies) > 0 {
		s.ActiveColonyID = s.Colonies[0].ID
	}
}

// ColonyByID returns the colony with id, or nil.
func (s *State) ColonyByID(id string) *Colony {
	for _, c := range s.Colonies {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// ColonyAt returns the colony at coord, or nil.
func (s *State) ColonyAt(coord world.Coord) *Colony {
	for _, c := range s.Colonies {
		if c.Coord == coord {
			return c
		}
	}
	return nil
}

// ActiveColony returns the colony commands default to.
func (s *State) ActiveColony() *Colony {
	return s.ColonyByID(s.ActiveColonyID)
}

// BoostActive reports whether now falls inside the boost window.
func (s *State) BoostActive(now time.Time) bool {
	return now.Before(s.BoostEndsAt)
}

// CountEvents counts queued events of a kind; colonyID "" matches every colony.
func (s *State) CountEvents(kind EventKind, colonyID string) int {
	n := 0
	for _, e := range s.Events {
		if e.Kind == kind && (colonyID == "" || e.ColonyID == colonyID) {
			n++
		}
	}
	return n
}

// AppendReport records a combat report, newest first, keeping at most limit.
func (s *State) AppendReport(r CombatReport, limit int) {
	s.Reports = append([]CombatReport{r}, s.Reports...)
	if limit > 0 && len(s.Reports) > limit {
		s.Reports = s.Reports[:limit]
	}
}

// UnreadCount is the number of logs and reports newer than LogsSeenAt.
func (s *State) UnreadCount() int {
	n := 0
	for _, l := range s.Logs {
		if l.Time.After(s.LogsSeenAt) {
			n++
		}
	}
	for _, r := range s.Reports {
		if r.Time.After(s.LogsSeenAt) {
			n++
		}
	}
	return n
}
