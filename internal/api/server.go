// Package api serves the empire over HTTP.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token and run player commands.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/core-protocol/internal/empire"
	"github.com/talgya/core-protocol/internal/engine"
	"github.com/talgya/core-protocol/internal/persistence"
	"github.com/talgya/core-protocol/internal/world"
)

const maxBody = 64 << 10

// Server serves the empire state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	DB       *persistence.DB // Optional; archive and snapshot endpoints need it
	Hub      *Hub            // Optional; /ws needs it
	Port     int
	AdminKey string       // Bearer token for POST endpoints. Empty = POST disabled.
	Limiter  *RateLimiter // Nil = unlimited
	Interval time.Duration

	srv *http.Server
}

// Handler builds the routed, rate-limited handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/colonies", s.handleColonies)
	mux.HandleFunc("GET /api/v1/colonies/{id}", s.handleColonyDetail)
	mux.HandleFunc("GET /api/v1/queue", s.handleQueue)
	mux.HandleFunc("GET /api/v1/quote", s.handleQuote)
	mux.HandleFunc("GET /api/v1/missions", s.handleMissions)
	mux.HandleFunc("GET /api/v1/reports", s.handleReports)
	mux.HandleFunc("GET /api/v1/reports/{id}", s.handleReportDetail)
	mux.HandleFunc("GET /api/v1/logs", s.handleLogs)
	mux.HandleFunc("GET /api/v1/debris", s.handleDebris)
	mux.HandleFunc("GET /api/v1/entities", s.handleEntities)
	mux.HandleFunc("GET /api/v1/archive/reports", s.handleArchivedReports)
	mux.HandleFunc("GET /api/v1/archive/logs", s.handleArchivedLogs)
	mux.HandleFunc("GET /api/v1/ws", s.handleWS)

	// Commands (POST, require bearer token).
	mux.HandleFunc("POST /api/v1/events", s.adminOnly(s.handleAdmitEvent))
	mux.HandleFunc("POST /api/v1/missions", s.adminOnly(s.handleLaunchMission))
	mux.HandleFunc("POST /api/v1/active-colony", s.adminOnly(s.handleActiveColony))
	mux.HandleFunc("POST /api/v1/logs/clear", s.adminOnly(s.handleClearLogs))
	mux.HandleFunc("POST /api/v1/logs/seen", s.adminOnly(s.handleLogsSeen))
	mux.HandleFunc("POST /api/v1/profile", s.adminOnly(s.handleProfile))
	mux.HandleFunc("POST /api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	var h http.Handler = mux
	if s.Limiter != nil {
		h = RateLimitMiddleware(s.Limiter, h)
	}
	return corsMiddleware(h)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORESIM_CORS_ORIGINS to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORESIM_CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(token), []byte(s.AdminKey)) == 1
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no CORESIM_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// read runs fn against a private copy of the current state.
func (s *Server) read(fn func(st *empire.State, now time.Time, env engine.Env)) {
	st := s.Sim.Snapshot()
	fn(st, s.Sim.Now(), s.Sim.Env())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	last, ticks := s.Sim.LastTick()
	s.read(func(st *empire.State, now time.Time, env engine.Env) {
		writeJSON(w, map[string]any{
			"name":        "Core Protocol",
			"time":        now.UTC(),
			"ticks":       ticks,
			"interval_ms": s.Interval.Milliseconds(),
			"last_tick":   last,
			"empire":      engine.Overview(st, now, env),
		})
	})
}

func (s *Server) handleColonies(w http.ResponseWriter, r *http.Request) {
	s.read(func(st *empire.State, now time.Time, env engine.Env) {
		writeJSON(w, engine.Overview(st, now, env).Colonies)
	})
}

func (s *Server) handleColonyDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.read(func(st *empire.State, now time.Time, env engine.Env) {
		cs, ok := engine.ColonyView(st, id, now, env)
		if !ok {
			http.Error(w, "colony not found", http.StatusNotFound)
			return
		}
		writeJSON(w, cs)
	})
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	s.read(func(st *empire.State, now time.Time, env engine.Env) {
		writeJSON(w, engine.Queue(st, now, env))
	})
}

// handleQuote prices a task without queueing it:
// /api/v1/quote?kind=BUILDING&target=metal_mine&colony=p1&count=1
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind := empire.EventKind(strings.ToUpper(q.Get("kind")))
	count := queryInt(r, "count", 1)
	s.read(func(st *empire.State, now time.Time, env engine.Env) {
		colony := q.Get("colony")
		if colony == "" {
			colony = st.ActiveColonyID
		}
		quote, err := engine.QuoteTask(st, colony, kind, q.Get("target"), count, now, env)
		if err != nil {
			writeRejection(w, err)
			return
		}
		writeJSON(w, map[string]any{
			"cost":             quote.Cost,
			"duration_seconds": int64(quote.Duration.Seconds()),
			"level":            quote.Level,
		})
	})
}

func (s *Server) handleMissions(w http.ResponseWriter, r *http.Request) {
	s.read(func(st *empire.State, now time.Time, _ engine.Env) {
		writeJSON(w, engine.Missions(st, now))
	})
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	page, size := queryInt(r, "page", 1), queryInt(r, "size", 10)
	s.read(func(st *empire.State, _ time.Time, _ engine.Env) {
		writeJSON(w, engine.Page(st.Reports, page, size))
	})
}

func (s *Server) handleReportDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.read(func(st *empire.State, _ time.Time, _ engine.Env) {
		i := slices.IndexFunc(st.Reports, func(rep empire.CombatReport) bool { return rep.ID == id })
		if i < 0 {
			http.Error(w, "report not found", http.StatusNotFound)
			return
		}
		writeJSON(w, st.Reports[i])
	})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	page, size := queryInt(r, "page", 1), queryInt(r, "size", 10)
	s.read(func(st *empire.State, _ time.Time, _ engine.Env) {
		writeJSON(w, map[string]any{
			"unread": st.UnreadCount(),
			"logs":   engine.Page(st.Logs, page, size),
		})
	})
}

type debrisField struct {
	Coord  world.Coord   `json:"coord"`
	Debris empire.Debris `json:"debris"`
}

func (s *Server) handleDebris(w http.ResponseWriter, r *http.Request) {
	s.read(func(st *empire.State, _ time.Time, _ engine.Env) {
		keys := make([]string, 0, len(st.Debris))
		for k := range st.Debris {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		out := make([]debrisField, 0, len(keys))
		for _, k := range keys {
			c, err := world.ParseCoord(k)
			if err != nil {
				continue
			}
			out = append(out, debrisField{Coord: c, Debris: st.Debris[k]})
		}
		writeJSON(w, out)
	})
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Env().Registry.All())
}

func (s *Server) handleArchivedReports(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	reports, err := s.DB.RecentReports(queryInt(r, "limit", 20), queryInt(r, "offset", 0))
	if err != nil {
		slog.Error("archived reports query failed", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, reports)
}

func (s *Server) handleArchivedLogs(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	logs, err := s.DB.RecentLogs(queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		slog.Error("archived logs query failed", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, logs)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.Hub == nil {
		http.Error(w, "live updates disabled", http.StatusServiceUnavailable)
		return
	}
	last, _ := s.Sim.LastTick()
	s.Hub.ServeWS(w, r, last)
}

// --- Commands ---

// admitRequest omits AdmitEvent's cost and duration overrides; clients
// always pay the quoted price.
type admitRequest struct {
	ColonyID string           `json:"colony_id"`
	Kind     empire.EventKind `json:"kind"`
	TargetID string           `json:"target_id"`
	Count    int              `json:"count"`
}

func (s *Server) handleAdmitEvent(w http.ResponseWriter, r *http.Request) {
	var req admitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.execute(w, "admit_event", engine.AdmitEvent{
		ColonyID: req.ColonyID,
		Kind:     empire.EventKind(strings.ToUpper(string(req.Kind))),
		TargetID: req.TargetID,
		Count:    req.Count,
	})
}

func (s *Server) handleLaunchMission(w http.ResponseWriter, r *http.Request) {
	var cmd engine.LaunchMission
	if !decodeBody(w, r, &cmd) {
		return
	}
	cmd.Type = empire.MissionType(strings.ToUpper(string(cmd.Type)))
	s.execute(w, "launch_mission", cmd)
}

func (s *Server) handleActiveColony(w http.ResponseWriter, r *http.Request) {
	var cmd engine.SetActiveColony
	if !decodeBody(w, r, &cmd) {
		return
	}
	s.execute(w, "set_active_colony", cmd)
}

func (s *Server) handleClearLogs(w http.ResponseWriter, r *http.Request) {
	s.execute(w, "clear_logs", engine.ClearLogs{})
}

func (s *Server) handleLogsSeen(w http.ResponseWriter, r *http.Request) {
	s.execute(w, "mark_logs_seen", engine.MarkLogsSeen{})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	var cmd engine.UpdateProfile
	if !decodeBody(w, r, &cmd) {
		return
	}
	s.execute(w, "update_profile", cmd)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	now := s.Sim.Now()
	if err := s.DB.SaveState(s.Sim.Snapshot(), now); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"saved_at": now.UTC(),
		"message":  "snapshot saved",
	})
}

// execute runs a command and reports the rejection reason, if any.
func (s *Server) execute(w http.ResponseWriter, name string, cmd engine.Command) {
	if err := s.Sim.Execute(cmd); err != nil {
		slog.Debug("command rejected", "command", name, "reason", err)
		writeRejection(w, err)
		return
	}
	slog.Info("command applied", "command", name)
	if s.Hub != nil {
		s.Hub.Publish("command", map[string]string{"command": name})
	}
	writeJSON(w, map[string]any{"ok": true, "command": name})
}

// writeRejection maps a command error to a status code and JSON reason.
func writeRejection(w http.ResponseWriter, err error) {
	code := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, engine.ErrUnknownColony), errors.Is(err, engine.ErrUnknownEntity):
		code = http.StatusNotFound
	case errors.Is(err, engine.ErrInvalid):
		code = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{"ok": false, "reason": err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
