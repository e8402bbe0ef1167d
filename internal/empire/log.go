package empire

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// LogKind tags a system log entry.
type LogKind string

const (
	LogConstruction LogKind = "CONSTRUCTION"
	LogResearch     LogKind = "RESEARCH"
	LogProduction   LogKind = "PRODUCTION"
	LogMission      LogKind = "MISSION"
)

// LogCap is the default number of system log entries kept.
const LogCap = 100

// LogEntry is a human-readable notice.
type LogEntry struct {
	ID         string    `json:"id"`
	Time       time.Time `json:"time"`
	Kind       LogKind   `json:"kind"`
	Message    string    `json:"message"`
	ColonyName string    `json:"colony_name,omitempty"`
}

// AppendLog records a notice, newest first, keeping at most limit entries.
func (s *State) AppendLog(e LogEntry, limit int) {
	if limit <= 0 {
		limit = LogCap
	}
	s.Logs = append([]LogEntry{e}, s.Logs...)
	if len(s.Logs) > limit {
		s.Logs = s.Logs[:limit]
	}
}

// FormatAmount abbreviates a resource amount: exact below 10k, then k, M, B.
func FormatAmount(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case v >= 1e4:
		return fmt.Sprintf("%dk", int64(math.Floor(v/1000)))
	}
	return humanize.Comma(int64(math.Floor(v)))
}
