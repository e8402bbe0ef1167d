package empire

import (
	"testing"
	"time"

	"github.com/talgya/core-protocol/internal/entropy"
	"github.com/talgya/core-protocol/internal/world"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNewState(t *testing.T) {
	s := NewState(t0, entropy.Fixed(0))

	if s.PlayerName != "Apex" {
		t.Errorf("player name = %q, want Apex", s.PlayerName)
	}
	if len(s.Colonies) != 1 {
		t.Fatalf("colonies = %d, want 1", len(s.Colonies))
	}
	home := s.ActiveColony()
	if home == nil || home.Name != HomeColonyName || home.Coord != HomeCoord {
		t.Fatalf("home colony = %+v", home)
	}
	if home.Resources != (Resources{Metal: 10000, Crystal: 8000, Deuterium: 5000}) {
		t.Errorf("home resources = %+v", home.Resources)
	}
	if !s.BoostActive(t0.Add(23*time.Hour)) || s.BoostActive(t0.Add(24*time.Hour)) {
		t.Error("boost window should last exactly 24h")
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := NewState(t0, entropy.Fixed(0))
	s.Missions = append(s.Missions, Mission{ID: "m1", Ships: map[string]int{"light_fighter": 3}})
	s.Debris["1:42:16"] = Debris{Metal: 100}

	c := s.Clone()
	c.Colonies[0].Ships["light_fighter"] = 5
	c.Colonies[0].Resources.Metal = 0
	c.Missions[0].Ships["light_fighter"] = 0
	c.Debris["1:42:16"] = Debris{}
	c.Research["energy_tech"] = 4

	if s.Colonies[0].Ships["light_fighter"] != 0 || s.Colonies[0].Resources.Metal != 10000 {
		t.Error("colony shared with clone")
	}
	if s.Missions[0].Ships["light_fighter"] != 3 {
		t.Error("mission ships shared with clone")
	}
	if s.Debris["1:42:16"].Metal != 100 {
		t.Error("debris shared with clone")
	}
	if s.Research["energy_tech"] != 0 {
		t.Error("research shared with clone")
	}
}

func TestAppendLogCap(t *testing.T) {
	s := NewState(t0, entropy.Fixed(0))
	for i := range 120 {
		s.AppendLog(LogEntry{ID: NewID(), Time: t0.Add(time.Duration(i) * time.Second)}, LogCap)
	}
	if len(s.Logs) != LogCap {
		t.Fatalf("logs = %d, want %d", len(s.Logs), LogCap)
	}
	if !s.Logs[0].Time.Equal(t0.Add(119 * time.Second)) {
		t.Errorf("newest log = %v, want the last appended", s.Logs[0].Time)
	}
}

func TestUnreadCount(t *testing.T) {
	s := NewState(t0, entropy.Fixed(0))
	s.AppendLog(LogEntry{Time: t0.Add(-time.Minute)}, LogCap)
	s.AppendLog(LogEntry{Time: t0.Add(time.Minute)}, LogCap)
	s.AppendReport(CombatReport{Time: t0.Add(2 * time.Minute)}, 100)

	if got := s.UnreadCount(); got != 2 {
		t.Errorf("unread = %d, want 2", got)
	}
	s.LogsSeenAt = t0.Add(time.Hour)
	if got := s.UnreadCount(); got != 0 {
		t.Errorf("unread after seen = %d, want 0", got)
	}
}

func TestColonyAt(t *testing.T) {
	s := NewState(t0, entropy.Fixed(0))
	if s.ColonyAt(world.Coord{Galaxy: 1, System: 42, Slot: 1}) == nil {
		t.Error("home colony not found by coordinate")
	}
	if s.ColonyAt(world.Coord{Galaxy: 1, System: 42, Slot: 2}) != nil {
		t.Error("found a colony at an empty coordinate")
	}
}

func TestNormalizeRepairsDecodedState(t *testing.T) {
	s := &State{Colonies: []*Colony{{ID: "p9"}}, ActiveColonyID: "gone"}
	s.Normalize()
	if s.ActiveColonyID != "p9" {
		t.Errorf("active colony = %q, want p9", s.ActiveColonyID)
	}
	if s.Colonies[0].Ships == nil || s.Research == nil || s.Debris == nil {
		t.Error("nil maps left after Normalize")
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{950.7, "950"},
		{9999, "9,999"},
		{25000, "25k"},
		{1500000, "1.50M"},
		{2e9, "2.00B"},
	}
	for _, tt := range tests {
		if got := FormatAmount(tt.in); got != tt.want {
			t.Errorf("FormatAmount(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResourcesSubFloorsAtZero(t *testing.T) {
	r := Resources{Metal: 100, Crystal: 50}.Sub(Resources{Metal: 150, Crystal: 20})
	if r.Metal != 0 || r.Crystal != 30 {
		t.Errorf("Sub = %+v", r)
	}
}
