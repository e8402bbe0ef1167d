// Command coreinspect prints a saved empire without starting the server.
// The state is advanced to the current time in memory only; the database is
// never written.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/core-protocol/internal/empire"
	"github.com/talgya/core-protocol/internal/engine"
	"github.com/talgya/core-protocol/internal/entropy"
	"github.com/talgya/core-protocol/internal/persistence"
	"github.com/talgya/core-protocol/internal/world"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	dbPath := envOrDefault("CORESIM_DB", "data/coresim.db")
	reportLimit := envIntOrDefault("COREINSPECT_REPORTS", 5)

	if _, err := os.Stat(dbPath); err != nil {
		slog.Error("database not found", "path", dbPath, "error", err)
		os.Exit(1)
	}
	db, err := persistence.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	snaps, err := db.Snapshots()
	if err != nil {
		slog.Error("failed to list snapshots", "error", err)
		os.Exit(1)
	}
	if len(snaps) == 0 {
		fmt.Println("No saved empire.")
		return
	}
	state, err := db.LatestState()
	if err != nil {
		slog.Error("latest snapshot unreadable", "error", err)
		os.Exit(1)
	}

	env := engine.DefaultEnv()
	env.Rand = entropy.NewSeeded(1)
	if v, err := db.GetMeta("galaxy_seed"); err == nil {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			env.Catalog = world.NewCatalog(n)
		}
	}

	now := time.Now()
	live := engine.Advance(state, now, env)

	out := os.Stdout
	printSnapshots(out, snaps)
	printEmpire(out, live, now, env)
	printReports(db, reportLimit)
}

func printSnapshots(out *os.File, snaps []persistence.SnapshotInfo) {
	fmt.Fprintln(out, "== Snapshots ==")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSAVED\tSIZE\tCHECKSUM")
	for _, s := range snaps {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.ID, humanize.Time(s.Time()), humanize.Bytes(uint64(s.Size)), s.Checksum[:12])
	}
	w.Flush()
	fmt.Fprintln(out)
}

func printEmpire(out *os.File, s *empire.State, now time.Time, env engine.Env) {
	st := engine.Overview(s, now, env)

	fmt.Fprintln(out, "== Empire ==")
	fmt.Fprintf(out, "Player:   %s (%s)\n", st.PlayerName, st.PlayerID)
	fmt.Fprintf(out, "Score:    %s\n", humanize.Comma(st.Score))
	fmt.Fprintf(out, "Colonies: %d / %d\n", len(st.Colonies), st.MaxColonies)
	if st.BoostActive {
		fmt.Fprintf(out, "Boost:    active, ends %s\n", humanize.Time(s.BoostEndsAt))
	}
	fmt.Fprintf(out, "Unread:   %d\n\n", st.Unread)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COLONY\tCOORD\tMETAL\tCRYSTAL\tDEUT\tMETAL/H\tCRYSTAL/H\tDEUT/H\tENERGY\tQUEUE")
	for _, c := range st.Colonies {
		name := c.Name
		if c.Active {
			name += " *"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%.0f\t%d\n",
			name, c.Coord,
			empire.FormatAmount(c.Resources.Metal),
			empire.FormatAmount(c.Resources.Crystal),
			empire.FormatAmount(c.Resources.Deuterium),
			empire.FormatAmount(c.Rates.Metal),
			empire.FormatAmount(c.Rates.Crystal),
			empire.FormatAmount(c.Rates.Deuterium),
			c.Rates.Energy,
			len(c.Queue),
		)
	}
	w.Flush()

	if len(st.Missions) > 0 {
		fmt.Fprintln(out, "\n== Fleets ==")
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tTARGET\tPHASE\tSHIPS\tNEXT")
		for _, m := range st.Missions {
			ships := 0
			for _, n := range m.Ships {
				ships += n
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				m.Type, m.Target, m.Phase, humanize.Comma(int64(ships)),
				(time.Duration(m.Countdown) * time.Second).String(),
			)
		}
		w.Flush()
	}
	fmt.Fprintln(out)
}

func printReports(db *persistence.DB, limit int) {
	reports, err := db.RecentReports(limit, 0)
	if err != nil {
		slog.Warn("report archive unreadable", "error", err)
		return
	}
	if len(reports) == 0 {
		return
	}
	fmt.Println("== Recent battles ==")
	for _, r := range reports {
		loot := []string{
			empire.FormatAmount(r.Loot.Metal) + " metal",
			empire.FormatAmount(r.Loot.Crystal) + " crystal",
			empire.FormatAmount(r.Loot.Deuterium) + " deuterium",
		}
		fmt.Printf("%s  %-16s %s  %s wins in %d rounds, loot %s\n",
			r.Time.Local().Format(time.DateTime), r.DefenderName, r.Target,
			r.Winner, len(r.Rounds), strings.Join(loot, ", "))
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
