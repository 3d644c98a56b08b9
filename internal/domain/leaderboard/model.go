package leaderboard

import (
	"strings"
	"time"
)

// RawEntry is one ranked participant result exactly as the platform returned it.
type RawEntry struct {
	EntryID             string
	ParticipantTeamName string
	SubmittedAt         string
	MetricValues        []MetricValue
	IsPrivate           bool
	IsBaseline          bool
	MethodName          string
}

// Entry is a reconciled leaderboard row.
type Entry struct {
	Identity            string
	EntryID             string
	ParticipantTeamName string
	SubmittedAt         string
	MetricValues        []MetricValue
	IsPrivate           bool
	IsBaseline          bool
	MethodName          string
	InitialRank         int
	IsHighlighted       bool
	FormattedAgo        string
}

// Page is one fetched leaderboard, with every result page already merged.
type Page struct {
	Results []RawEntry
	Count   int
	Next    string
	Labels  []string
	// DefaultOrderBy is the schema label the host ranks by, when the platform reports one.
	DefaultOrderBy string
}

// Selection identifies which leaderboard a view follows.
type Selection struct {
	PhaseSplitID string
	// Complete includes private and hidden submissions (host-only view).
	Complete bool
}

func (s Selection) Normalize() Selection {
	s.PhaseSplitID = strings.TrimSpace(s.PhaseSplitID)
	return s
}

func (s Selection) IsZero() bool {
	return strings.TrimSpace(s.PhaseSplitID) == ""
}

func (s Selection) String() string {
	if s.Complete {
		return s.PhaseSplitID + "/complete"
	}
	return s.PhaseSplitID
}

func parseSubmittedAt(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}
