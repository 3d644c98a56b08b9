package leaderboard

import (
	"strings"
	"testing"
	"time"
)

var reconcileNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func raw(id, team string, score string) RawEntry {
	return RawEntry{
		EntryID:             id,
		ParticipantTeamName: team,
		SubmittedAt:         "2026-03-01T09:00:00Z",
		MetricValues:        []MetricValue{MetricValue(score)},
	}
}

func rankOf(t *testing.T, rows []Entry, identity string) int {
	t.Helper()
	for _, row := range rows {
		if row.Identity == identity {
			return row.InitialRank
		}
	}
	t.Fatalf("identity %q not found in %v", identity, identities(rows))
	return 0
}

func TestReconcile_RanksAssignedOnFirstSighting(t *testing.T) {
	t.Parallel()

	table := NewRankTable()
	opts := ReconcileOptions{Now: reconcileNow, Sort: DefaultSortSpec()}

	first := Reconcile([]RawEntry{raw("1", "team-one", "5"), raw("2", "team-two", "9")}, table, opts)
	if rankOf(t, first, "1") != 1 || rankOf(t, first, "2") != 2 {
		t.Fatalf("unexpected first ranks: %+v", first)
	}

	second := Reconcile([]RawEntry{raw("2", "team-two", "9"), raw("1", "team-one", "5"), raw("3", "team-three", "7")}, table, opts)
	if got := rankOf(t, second, "1"); got != 1 {
		t.Fatalf("id 1 rank=%d want=1", got)
	}
	if got := rankOf(t, second, "2"); got != 2 {
		t.Fatalf("id 2 rank=%d want=2", got)
	}
	if got := rankOf(t, second, "3"); got != 3 {
		t.Fatalf("id 3 rank=%d want=3", got)
	}

	byMetric := Sort(second, SortSpec{Column: MetricColumn(0)})
	assertOrder(t, byMetric, "1", "3", "2")
	byMetricReversed := Sort(second, SortSpec{Column: MetricColumn(0), Reverse: true})
	assertOrder(t, byMetricReversed, "2", "3", "1")
}

func TestReconcile_RankNeverChangesAcrossReorderedBatches(t *testing.T) {
	t.Parallel()

	table := NewRankTable()
	opts := ReconcileOptions{Now: reconcileNow}
	batches := [][]RawEntry{
		{raw("a", "A", "1"), raw("b", "B", "2")},
		{raw("c", "C", "3"), raw("b", "B", "2"), raw("a", "A", "1")},
		{raw("b", "B", "2")},
		{raw("d", "D", "4"), raw("a", "A", "1"), raw("c", "C", "3")},
	}

	seen := map[string]int{}
	for _, batch := range batches {
		rows := Reconcile(batch, table, opts)
		for _, row := range rows {
			if prev, ok := seen[row.Identity]; ok && prev != row.InitialRank {
				t.Fatalf("rank of %s changed from %d to %d", row.Identity, prev, row.InitialRank)
			}
			seen[row.Identity] = row.InitialRank
		}
	}

	want := map[string]int{"a": 1, "b": 2, "c": 3, "d": 4}
	for identity, rank := range want {
		if seen[identity] != rank {
			t.Fatalf("rank of %s=%d want=%d", identity, seen[identity], rank)
		}
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	t.Parallel()

	table := NewRankTable()
	opts := ReconcileOptions{Now: reconcileNow, Highlight: "B"}
	batch := []RawEntry{raw("a", "A", "1"), raw("b", "B", "2")}

	first := Reconcile(batch, table, opts)
	second := Reconcile(batch, table, opts)
	if len(first) != len(second) {
		t.Fatalf("row count differs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if a.Identity != b.Identity || a.InitialRank != b.InitialRank || a.IsHighlighted != b.IsHighlighted || a.FormattedAgo != b.FormattedAgo {
			t.Fatalf("row %d differs: %+v vs %+v", i, a, b)
		}
	}
	if table.Len() != 2 {
		t.Fatalf("rank table grew on repeated batch: %d", table.Len())
	}
}

func TestReconcileBatch_KeepsArrivalOrder(t *testing.T) {
	t.Parallel()

	table := NewRankTable()
	spec := SortSpec{Column: MetricColumn(0), Reverse: true}
	batch := []RawEntry{raw("c", "C", "1"), raw("b", "B", "1"), raw("a", "A", "1")}

	base := ReconcileBatch(batch, table, ReconcileOptions{Now: reconcileNow, Sort: spec})
	if got := identities(base); strings.Join(got, "") != "cba" {
		t.Fatalf("base order = %v, want arrival order", got)
	}

	once := Sort(base, spec)
	twice := Sort(base, spec)
	if strings.Join(identities(once), "") != strings.Join(identities(twice), "") {
		t.Fatalf("sorting the same base twice diverged: %v vs %v", identities(once), identities(twice))
	}
	if got := identities(base); strings.Join(got, "") != "cba" {
		t.Fatalf("Sort mutated the base rows: %v", got)
	}
}

func TestReconcile_DerivedFields(t *testing.T) {
	t.Parallel()

	batch := []RawEntry{
		raw("a", "Alpha", "1"),
		raw("b", "Bravo", "2"),
		{ParticipantTeamName: "NoID", SubmittedAt: "garbage"},
	}

	rows := Reconcile(batch, NewRankTable(), ReconcileOptions{Now: reconcileNow, Highlight: " Bravo "})
	for _, row := range rows {
		switch row.Identity {
		case "a":
			if row.IsHighlighted {
				t.Fatalf("did not expect highlight on %s", row.Identity)
			}
			if row.FormattedAgo != "3 hours ago" {
				t.Fatalf("unexpected formatted ago: %q", row.FormattedAgo)
			}
		case "b":
			if !row.IsHighlighted {
				t.Fatalf("expected highlight on %s", row.Identity)
			}
		case "team:NoID":
			if row.FormattedAgo != "" {
				t.Fatalf("expected empty formatted ago for unparsable date, got %q", row.FormattedAgo)
			}
			if row.InitialRank != 3 {
				t.Fatalf("expected fallback identity to get rank 3, got %d", row.InitialRank)
			}
		default:
			t.Fatalf("unexpected identity %q", row.Identity)
		}
	}

	later := Reconcile(batch, NewRankTable(), ReconcileOptions{Now: reconcileNow.Add(24 * time.Hour)})
	if later[0].FormattedAgo != "1 day ago" {
		t.Fatalf("expected formatted ago to follow now, got %q", later[0].FormattedAgo)
	}
	for _, row := range later {
		if row.IsHighlighted {
			t.Fatalf("expected no highlight without target")
		}
	}
}

func TestReconcile_DuplicateIdentityInBatchSharesRank(t *testing.T) {
	t.Parallel()

	rows := Reconcile([]RawEntry{raw("x", "X", "1"), raw("x", "X", "2"), raw("y", "Y", "3")}, NewRankTable(), ReconcileOptions{Now: reconcileNow})
	if rows[0].InitialRank != 1 || rows[1].InitialRank != 1 || rows[2].InitialRank != 2 {
		t.Fatalf("unexpected ranks: %d %d %d", rows[0].InitialRank, rows[1].InitialRank, rows[2].InitialRank)
	}
}

func TestReconcile_DoesNotAliasMetricValues(t *testing.T) {
	t.Parallel()

	batch := []RawEntry{raw("a", "A", "1")}
	rows := Reconcile(batch, NewRankTable(), ReconcileOptions{Now: reconcileNow})
	batch[0].MetricValues[0] = "99"
	if rows[0].MetricValues[0] != "1" {
		t.Fatalf("row shares metric storage with batch")
	}
}

func TestApplyHighlight(t *testing.T) {
	t.Parallel()

	rows := Reconcile([]RawEntry{raw("a", "Alpha", "1"), raw("b", "Bravo", "2")}, NewRankTable(), ReconcileOptions{Now: reconcileNow, Highlight: "Alpha"})
	moved := ApplyHighlight(rows, "b")
	if moved[0].IsHighlighted || !moved[1].IsHighlighted {
		t.Fatalf("unexpected highlight flags: %+v", moved)
	}
	if !rows[0].IsHighlighted {
		t.Fatalf("ApplyHighlight modified its input")
	}
}
