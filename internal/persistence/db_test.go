package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/talgya/core-protocol/internal/combat"
	"github.com/talgya/core-protocol/internal/empire"
	"github.com/talgya/core-protocol/internal/entropy"
	"github.com/talgya/core-protocol/internal/world"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleState() *empire.State {
	s := empire.NewState(t0, entropy.Fixed(0))
	s.Research["energy_tech"] = 2
	s.Colonies[0].Buildings["metal_mine"] = 5
	s.Colonies[0].Ships["light_fighter"] = 12
	s.Debris["1:42:8"] = empire.Debris{Metal: 300, Crystal: 90}
	s.AppendLog(empire.LogEntry{ID: "l1", Time: t0, Kind: empire.LogConstruction, Message: "Metal Mine upgraded to level 5", ColonyName: "Prime Core"}, 0)
	s.AppendLog(empire.LogEntry{ID: "l2", Time: t0.Add(time.Minute), Kind: empire.LogMission, Message: "Fleet returned", ColonyName: "Prime Core"}, 0)
	s.AppendReport(empire.CombatReport{
		ID:           "r1",
		Time:         t0,
		DefenderName: "Bandit Outpost",
		Target:       world.Coord{Galaxy: 1, System: 42, Slot: 8},
		Winner:       combat.AttackerWins,
		Loot:         empire.Resources{Metal: 120},
	}, 0)
	return s
}

func TestEncodeDecode(t *testing.T) {
	s := sampleState()
	payload, sum, err := Encode(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(sum) != 64 {
		t.Errorf("checksum length = %d, want 64", len(sum))
	}

	got, err := Decode(payload, sum)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.PlayerName != s.PlayerName || got.Colonies[0].Buildings["metal_mine"] != 5 {
		t.Errorf("decoded state differs: %+v", got)
	}

	if _, err := Decode(payload, Checksum([]byte("other"))); err != ErrChecksum {
		t.Errorf("bad checksum err = %v, want ErrChecksum", err)
	}
}

func TestSaveAndLoadState(t *testing.T) {
	db := openTestDB(t)
	if db.HasState() {
		t.Fatal("fresh db reports saved state")
	}

	s := sampleState()
	if err := db.SaveState(s, t0); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !db.HasState() {
		t.Fatal("HasState false after save")
	}

	got, restored := db.LoadState(t0.Add(time.Hour), entropy.Fixed(0.5))
	if !restored {
		t.Fatal("state not restored")
	}
	if got.PlayerName != s.PlayerName {
		t.Errorf("player name = %q, want %q", got.PlayerName, s.PlayerName)
	}
	home := got.ColonyByID(empire.HomeColonyID)
	if home == nil {
		t.Fatal("home colony missing")
	}
	if home.Ships["light_fighter"] != 12 {
		t.Errorf("light fighters = %d, want 12", home.Ships["light_fighter"])
	}
	if !home.LastUpdate.Equal(t0) {
		t.Errorf("last update = %v, want %v", home.LastUpdate, t0)
	}
	if got.Research["energy_tech"] != 2 {
		t.Errorf("energy tech = %d, want 2", got.Research["energy_tech"])
	}
	if d := got.Debris["1:42:8"]; d.Metal != 300 || d.Crystal != 90 {
		t.Errorf("debris = %+v", d)
	}
	if len(got.Logs) != 2 || got.Logs[0].ID != "l2" {
		t.Errorf("logs = %+v", got.Logs)
	}
	if len(got.Reports) != 1 || got.Reports[0].Winner != combat.AttackerWins {
		t.Errorf("reports = %+v", got.Reports)
	}
}

func TestLoadStateFallsBack(t *testing.T) {
	db := openTestDB(t)

	s, restored := db.LoadState(t0, entropy.Fixed(0))
	if restored {
		t.Error("empty db reported restored")
	}
	if len(s.Colonies) != 1 || s.Colonies[0].Name != empire.HomeColonyName {
		t.Errorf("fallback state = %+v", s)
	}

	if err := db.SaveState(sampleState(), t0); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := db.conn.Exec("UPDATE snapshots SET payload = ?", []byte("garbage")); err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	s, restored = db.LoadState(t0, entropy.Fixed(0))
	if restored {
		t.Error("corrupt snapshot reported restored")
	}
	if !s.BoostEndsAt.Equal(t0.Add(empire.DefaultBoost)) {
		t.Errorf("fallback boost ends = %v", s.BoostEndsAt)
	}
}

func TestSnapshotPruning(t *testing.T) {
	db := openTestDB(t)
	s := sampleState()
	for i := range KeepSnapshots + 3 {
		if err := db.SaveState(s, t0.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	snaps, err := db.Snapshots()
	if err != nil {
		t.Fatalf("snapshots: %v", err)
	}
	if len(snaps) != KeepSnapshots {
		t.Fatalf("snapshots = %d, want %d", len(snaps), KeepSnapshots)
	}
	if !snaps[0].Time().Equal(t0.Add(time.Duration(KeepSnapshots+2) * time.Minute)) {
		t.Errorf("newest snapshot at %v", snaps[0].Time())
	}
	if snaps[0].Codec != Codec {
		t.Errorf("codec = %q", snaps[0].Codec)
	}
}

func TestArchive(t *testing.T) {
	db := openTestDB(t)
	s := sampleState()

	// Saving twice must not duplicate archived rows.
	for range 2 {
		if err := db.SaveState(s, t0); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	logs, err := db.RecentLogs(10, 0)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("logs = %d, want 2", len(logs))
	}
	if logs[0].ID != "l2" || logs[0].Kind != empire.LogMission {
		t.Errorf("newest log = %+v", logs[0])
	}

	page, err := db.RecentLogs(1, 1)
	if err != nil {
		t.Fatalf("logs page: %v", err)
	}
	if len(page) != 1 || page[0].ID != "l1" {
		t.Errorf("second page = %+v", page)
	}

	reports, err := db.RecentReports(10, 0)
	if err != nil {
		t.Fatalf("reports: %v", err)
	}
	if len(reports) != 1 || reports[0].Loot.Metal != 120 || reports[0].Target.Slot != 8 {
		t.Errorf("reports = %+v", reports)
	}
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.GetMeta("galaxy_seed"); err == nil {
		t.Error("missing key returned no error")
	}
	if err := db.SaveMeta("galaxy_seed", "42"); err != nil {
		t.Fatalf("save meta: %v", err)
	}
	if err := db.SaveMeta("galaxy_seed", "43"); err != nil {
		t.Fatalf("overwrite meta: %v", err)
	}
	v, err := db.GetMeta("galaxy_seed")
	if err != nil || v != "43" {
		t.Errorf("meta = %q, %v; want 43", v, err)
	}

	if err := db.SaveState(sampleState(), t0); err != nil {
		t.Fatalf("save: %v", err)
	}
	if v, _ := db.GetMeta("last_saved"); v != t0.Format(time.RFC3339) {
		t.Errorf("last_saved = %q", v)
	}
}
