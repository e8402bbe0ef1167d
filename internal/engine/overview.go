package engine

import (
	"cmp"
	"slices"
	"time"

	"github.com/talgya/core-protocol/internal/economy"
	"github.com/talgya/core-protocol/internal/empire"
	"github.com/talgya/core-protocol/internal/world"
)

// QueueItem is a queued event with its remaining time.
type QueueItem struct {
	empire.Event
	Name      string `json:"name"`
	Remaining int64  `json:"remaining_seconds"`
}

// MissionStatus is a fleet in flight with a live countdown to its next
// transition.
type MissionStatus struct {
	empire.Mission
	Phase     string `json:"phase"` // "outbound" or "returning"
	Countdown int64  `json:"countdown_seconds"`
}

// ColonyStatus is the consumer view of one colony.
type ColonyStatus struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Coord     world.Coord      `json:"coord"`
	Resources empire.Resources `json:"resources"`
	Rates     economy.Rates    `json:"rates"`
	Caps      economy.Limits   `json:"caps"`
	Protected economy.Limits   `json:"protected"`
	MaxTemp   int              `json:"max_temp"`
	Buildings map[string]int   `json:"buildings"`
	Ships     map[string]int   `json:"ships"`
	Defense   map[string]int   `json:"defense"`
	Moon      *empire.Moon     `json:"moon,omitempty"`
	Queue     []QueueItem      `json:"queue"`
	Active    bool             `json:"active"`
}

// Status is the empire-wide consumer view.
type Status struct {
	PlayerID       string          `json:"player_id"`
	PlayerName     string          `json:"player_name"`
	Bio            string          `json:"bio"`
	Score          int64           `json:"score"`
	Unread         int             `json:"unread"`
	BoostActive    bool            `json:"boost_active"`
	BoostRemaining int64           `json:"boost_remaining_seconds"`
	MaxColonies    int             `json:"max_colonies"`
	Research       map[string]int  `json:"research"`
	ResearchQueue  []QueueItem     `json:"research_queue"`
	Colonies       []ColonyStatus  `json:"colonies"`
	Missions       []MissionStatus `json:"missions"`
	DebrisFields   int             `json:"debris_fields"`
}

// Overview summarizes the empire at now.
func Overview(s *empire.State, now time.Time, env Env) Status {
	env = env.withDefaults()
	st := Status{
		PlayerID:     s.PlayerID,
		PlayerName:   s.PlayerName,
		Bio:          s.Bio,
		Unread:       s.UnreadCount(),
		BoostActive:  s.BoostActive(now),
		MaxColonies:  MaxColonies(s.Research[Astrophysics]),
		Research:     s.Research,
		Missions:     Missions(s, now),
		DebrisFields: len(s.Debris),
	}
	if st.BoostActive {
		st.BoostRemaining = secondsUntil(now, s.BoostEndsAt)
	}

	holdings := make([]economy.Holdings, 0, len(s.Colonies)*2)
	for _, c := range s.Colonies {
		cs, _ := ColonyView(s, c.ID, now, env)
		st.Colonies = append(st.Colonies, cs)
		holdings = append(holdings, economy.Holdings{Buildings: c.Buildings, Ships: c.Ships, Defense: c.Defense})
		if c.Moon != nil {
			holdings = append(holdings, economy.Holdings{Buildings: c.Moon.Buildings, Ships: c.Moon.Ships, Defense: c.Moon.Defense})
		}
	}
	st.Score = economy.Score(s.Research, holdings...)

	for _, e := range s.Events {
		if e.Kind == empire.EventResearch {
			st.ResearchQueue = append(st.ResearchQueue, queueItem(e, now, env))
		}
	}
	return st
}

// ColonyView is the consumer view of one colony.
func ColonyView(s *empire.State, colonyID string, now time.Time, env Env) (ColonyStatus, bool) {
	env = env.withDefaults()
	c := s.ColonyByID(colonyID)
	if c == nil {
		return ColonyStatus{}, false
	}
	cs := ColonyStatus{
		ID:        c.ID,
		Name:      c.Name,
		Coord:     c.Coord,
		Resources: c.Resources,
		Rates:     ColonyRates(c, env),
		Caps:      economy.Caps(c.Buildings),
		Protected: economy.Protections(c.Buildings),
		MaxTemp:   c.MaxTemp,
		Buildings: c.Buildings,
		Ships:     c.Ships,
		Defense:   c.Defense,
		Moon:      c.Moon,
		Queue:     []QueueItem{},
		Active:    c.ID == s.ActiveColonyID,
	}
	for _, e := range s.Events {
		if e.ColonyID == c.ID && e.Kind != empire.EventResearch {
			cs.Queue = append(cs.Queue, queueItem(e, now, env))
		}
	}
	return cs, true
}

// Missions lists fleets in flight, soonest transition first.
func Missions(s *empire.State, now time.Time) []MissionStatus {
	out := make([]MissionStatus, 0, len(s.Missions))
	for _, m := range s.Missions {
		ms := MissionStatus{Mission: m, Phase: "outbound"}
		next := m.ArrivalTime
		if m.Returning {
			ms.Phase = "returning"
			next = m.ReturnTime
		}
		ms.Countdown = secondsUntil(now, next)
		out = append(out, ms)
	}
	slices.SortStableFunc(out, func(a, b MissionStatus) int { return cmp.Compare(a.Countdown, b.Countdown) })
	return out
}

// Queue lists every pending event across the empire, soonest finish first.
func Queue(s *empire.State, now time.Time, env Env) []QueueItem {
	env = env.withDefaults()
	out := make([]QueueItem, 0, len(s.Events))
	for _, e := range s.Events {
		out = append(out, queueItem(e, now, env))
	}
	slices.SortStableFunc(out, func(a, b QueueItem) int { return cmp.Compare(a.Remaining, b.Remaining) })
	return out
}

func queueItem(e empire.Event, now time.Time, env Env) QueueItem {
	return QueueItem{Event: e, Name: entityName(env.Registry, e.TargetID), Remaining: secondsUntil(now, e.FinishTime)}
}

func secondsUntil(now, t time.Time) int64 {
	if !t.After(now) {
		return 0
	}
	return int64(t.Sub(now).Seconds())
}

// PageOf is one page of a newest-first list.
type PageOf[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Page slices items into pages of size, 1-based. Out-of-range pages are
// empty; a non-positive size defaults to 10.
func Page[T any](items []T, page, size int) PageOf[T] {
	if size <= 0 {
		size = 10
	}
	if page < 1 {
		page = 1
	}
	p := PageOf[T]{Items: []T{}, Page: page, Size: size, Total: len(items)}
	p.Pages = len(items) / size
	if len(items)%size != 0 {
		p.Pages++
	}
	if page > p.Pages {
		return p
	}
	start := (page - 1) * size
	end := min(start+size, len(items))
	p.Items = items[start:end]
	return p
}
