package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/talgya/core-protocol/internal/empire"
)

// Command is a player action admitted between ticks.
type Command interface {
	validate(s *empire.State, now time.Time, env Env) error
	apply(s *empire.State, now time.Time, env Env)
}

// Apply admits cmd against prev. On rejection prev is returned untouched with
// ok false; on success the result is a new state and prev is not modified.
func Apply(prev *empire.State, cmd Command, now time.Time, env Env) (next *empire.State, ok bool) {
	env = env.withDefaults()
	if cmd == nil || cmd.validate(prev, now, env) != nil {
		return prev, false
	}
	next = prev.Clone()
	cmd.apply(next, now, env)
	return next, true
}

// Validate reports why Apply would reject cmd, or nil if it would be admitted.
func Validate(s *empire.State, cmd Command, now time.Time, env Env) error {
	if cmd == nil {
		return ErrInvalid
	}
	return cmd.validate(s, now, env.withDefaults())
}

// SetActiveColony switches the colony that commands default to.
type SetActiveColony struct {
	ColonyID string `json:"colony_id"`
}

func (c SetActiveColony) validate(s *empire.State, _ time.Time, _ Env) error {
	if s.ColonyByID(c.ColonyID) == nil {
		return ErrUnknownColony
	}
	return nil
}

func (c SetActiveColony) apply(s *empire.State, _ time.Time, _ Env) {
	s.ActiveColonyID = c.ColonyID
}

// ClearLogs empties the system log and the combat reports.
type ClearLogs struct{}

func (ClearLogs) validate(*empire.State, time.Time, Env) error { return nil }

func (ClearLogs) apply(s *empire.State, _ time.Time, _ Env) {
	s.Logs = nil
	s.Reports = nil
}

// MarkLogsSeen clears the unread count.
type MarkLogsSeen struct{}

func (MarkLogsSeen) validate(*empire.State, time.Time, Env) error { return nil }

func (MarkLogsSeen) apply(s *empire.State, now time.Time, _ Env) {
	s.LogsSeenAt = now
}

// Profile text limits.
const (
	MaxNameLength = 32
	MaxBioLength  = 500
)

// UpdateProfile changes the player's bio and, once, their name.
type UpdateProfile struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

func (u UpdateProfile) validate(s *empire.State, _ time.Time, _ Env) error {
	name := strings.TrimSpace(u.Name)
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", ErrInvalid)
	case len(name) > MaxNameLength:
		return fmt.Errorf("%w: name longer than %d", ErrInvalid, MaxNameLength)
	case len(u.Bio) > MaxBioLength:
		return fmt.Errorf("%w: bio longer than %d", ErrInvalid, MaxBioLength)
	case name != s.PlayerName && !s.NameChangeAvailable:
		return ErrNameLocked
	}
	return nil
}

func (u UpdateProfile) apply(s *empire.State, _ time.Time, _ Env) {
	name := strings.TrimSpace(u.Name)
	if name != s.PlayerName {
		s.PlayerName = name
		s.NameChangeAvailable = false
	}
	s.Bio = u.Bio
}
