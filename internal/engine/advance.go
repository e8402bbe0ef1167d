package engine

import (
	"time"

	"github.com/talgya/core-protocol/internal/empire"
)

// TickSummary describes what one Advance did.
type TickSummary struct {
	Time             time.Time `json:"time"`
	EventsCompleted  int       `json:"events_completed"`
	MissionsResolved int       `json:"missions_resolved"`
	Battles          int       `json:"battles"`
	NewLogs          int       `json:"new_logs"`
	Unread           int       `json:"unread"`
}

// Advance brings the empire up to now. prev is not modified. Calling it again
// with the same now returns an equal state.
func Advance(prev *empire.State, now time.Time, env Env) *empire.State {
	next, _ := advance(prev, now, env.withDefaults())
	return next
}

// advance runs accrual, then events, then missions, all against one now.
func advance(prev *empire.State, now time.Time, env Env) (*empire.State, TickSummary) {
	s := prev.Clone()
	lastLog := ""
	if len(s.Logs) > 0 {
		lastLog = s.Logs[0].ID
	}

	accrue(s, now, env)
	events := drainEvents(s, now, env)
	missions := drainMissions(s, now, env)
	refreshEnergy(s, env)

	sum := TickSummary{
		Time:             now,
		EventsCompleted:  events,
		MissionsResolved: missions.resolved,
		Battles:          missions.battles,
		Unread:           s.UnreadCount(),
	}
	for _, l := range s.Logs {
		if lastLog != "" && l.ID == lastLog {
			break
		}
		sum.NewLogs++
	}
	return s, sum
}

// refreshEnergy recomputes each colony's energy balance after the drains, so
// completed buildings and arriving satellites show up in this tick's state.
// Accrual above still ran on the rates in effect before the drains.
func refreshEnergy(s *empire.State, env Env) {
	for _, c := range s.Colonies {
		c.Resources.Energy = ColonyRates(c, env).Energy
	}
}
