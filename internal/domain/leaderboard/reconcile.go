package leaderboard

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const teamIdentityPrefix = "team:"

// RankTable remembers the initial rank handed to every identity seen by one view.
// It is not safe for concurrent use; the owning view serializes access.
type RankTable struct {
	ranks map[string]int
	next  int
}

func NewRankTable() *RankTable {
	return &RankTable{
		ranks: make(map[string]int),
		next:  1,
	}
}

func (t *RankTable) Lookup(identity string) (int, bool) {
	if t == nil {
		return 0, false
	}
	rank, ok := t.ranks[identity]
	return rank, ok
}

// Assign returns the rank already held by identity, or hands out the next unused one.
func (t *RankTable) Assign(identity string) int {
	if t.ranks == nil {
		t.ranks = make(map[string]int)
	}
	if t.next < 1 {
		t.next = 1
	}
	if rank, ok := t.ranks[identity]; ok {
		return rank
	}
	rank := t.next
	t.ranks[identity] = rank
	t.next++
	return rank
}

func (t *RankTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.ranks)
}

// IdentityOf keys an entry by its entry id. Entries without one fall back to the team name.
func IdentityOf(raw RawEntry) string {
	if id := strings.TrimSpace(raw.EntryID); id != "" {
		return id
	}
	return teamIdentityPrefix + strings.TrimSpace(raw.ParticipantTeamName)
}

type ReconcileOptions struct {
	// Highlight is a team name or entry id. Empty disables highlighting.
	Highlight string
	Now       time.Time
	Sort      SortSpec
}

// Reconcile turns a freshly fetched batch into the full row set of a view, ordered by opts.Sort.
// Ranks already in table are reused; unseen identities get the next rank in batch order.
func Reconcile(batch []RawEntry, table *RankTable, opts ReconcileOptions) []Entry {
	return Sort(ReconcileBatch(batch, table, opts), opts.Sort)
}

// ReconcileBatch is Reconcile without the final sort: rows come back in batch arrival order.
// Views keep this order as the base every later Sort starts from.
func ReconcileBatch(batch []RawEntry, table *RankTable, opts ReconcileOptions) []Entry {
	if table == nil {
		table = NewRankTable()
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	highlight := strings.TrimSpace(opts.Highlight)

	rows := make([]Entry, 0, len(batch))
	for _, raw := range batch {
		identity := IdentityOf(raw)
		rows = append(rows, Entry{
			Identity:            identity,
			EntryID:             raw.EntryID,
			ParticipantTeamName: raw.ParticipantTeamName,
			SubmittedAt:         raw.SubmittedAt,
			MetricValues:        append([]MetricValue(nil), raw.MetricValues...),
			IsPrivate:           raw.IsPrivate,
			IsBaseline:          raw.IsBaseline,
			MethodName:          raw.MethodName,
			InitialRank:         table.Assign(identity),
			IsHighlighted:       highlightMatches(raw.ParticipantTeamName, raw.EntryID, highlight),
			FormattedAgo:        FormatAgo(raw.SubmittedAt, now),
		})
	}

	return rows
}

// FormatAgo renders submittedAt relative to now, e.g. "3 hours ago". Unparsable input yields "".
func FormatAgo(submittedAt string, now time.Time) string {
	at, ok := parseSubmittedAt(submittedAt)
	if !ok {
		return ""
	}
	return humanize.RelTime(at, now, "ago", "from now")
}

// ApplyHighlight returns a copy of rows with IsHighlighted recomputed for target.
func ApplyHighlight(rows []Entry, target string) []Entry {
	target = strings.TrimSpace(target)
	out := make([]Entry, len(rows))
	for i, row := range rows {
		row.IsHighlighted = highlightMatches(row.ParticipantTeamName, row.EntryID, target)
		out[i] = row
	}
	return out
}

func highlightMatches(teamName, entryID, target string) bool {
	if target == "" {
		return false
	}
	if strings.TrimSpace(teamName) == target {
		return true
	}
	return strings.TrimSpace(entryID) == target
}
