package leaderboard

import (
	"testing"
)

func identities(rows []Entry) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Identity)
	}
	return out
}

func assertOrder(t *testing.T, got []Entry, want ...string) {
	t.Helper()
	ids := identities(got)
	if len(ids) != len(want) {
		t.Fatalf("unexpected row count: got=%v want=%v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("unexpected order: got=%v want=%v", ids, want)
		}
	}
}

func sampleRows() []Entry {
	return []Entry{
		{Identity: "1", ParticipantTeamName: "delta", SubmittedAt: "2026-03-01T10:00:00Z", InitialRank: 1, MetricValues: []MetricValue{"5", "0.1"}},
		{Identity: "2", ParticipantTeamName: "alpha", SubmittedAt: "2026-03-01T08:00:00Z", InitialRank: 2, MetricValues: []MetricValue{"9", "0.3"}},
		{Identity: "3", ParticipantTeamName: "charlie", SubmittedAt: "2026-03-01T09:00:00Z", InitialRank: 3, MetricValues: []MetricValue{"7", "n/a"}},
	}
}

func TestSort_ByColumn(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		spec SortSpec
		want []string
	}{
		{name: "rank", spec: SortSpec{Column: RankColumn()}, want: []string{"1", "2", "3"}},
		{name: "rank reversed", spec: SortSpec{Column: RankColumn(), Reverse: true}, want: []string{"3", "2", "1"}},
		{name: "date", spec: SortSpec{Column: DateColumn()}, want: []string{"2", "3", "1"}},
		{name: "name", spec: SortSpec{Column: NameColumn()}, want: []string{"2", "3", "1"}},
		{name: "metric 0", spec: SortSpec{Column: MetricColumn(0)}, want: []string{"1", "3", "2"}},
		{name: "metric 0 reversed", spec: SortSpec{Column: MetricColumn(0), Reverse: true}, want: []string{"2", "3", "1"}},
		{name: "metric 1 unparsable last", spec: SortSpec{Column: MetricColumn(1)}, want: []string{"1", "2", "3"}},
		{name: "metric 1 reversed unparsable still last", spec: SortSpec{Column: MetricColumn(1), Reverse: true}, want: []string{"2", "1", "3"}},
		{name: "metric out of range keeps input order", spec: SortSpec{Column: MetricColumn(7)}, want: []string{"1", "2", "3"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assertOrder(t, Sort(sampleRows(), tc.spec), tc.want...)
		})
	}
}

func TestSort_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	rows := sampleRows()
	_ = Sort(rows, SortSpec{Column: MetricColumn(0), Reverse: true})
	assertOrder(t, rows, "1", "2", "3")
	if rows[0].InitialRank != 1 || rows[2].InitialRank != 3 {
		t.Fatalf("input ranks changed: %+v", rows)
	}
}

func TestSort_StableOnEqualKeys(t *testing.T) {
	t.Parallel()

	rows := []Entry{
		{Identity: "a", ParticipantTeamName: "same", MetricValues: []MetricValue{"1"}},
		{Identity: "b", ParticipantTeamName: "same", MetricValues: []MetricValue{"1"}},
		{Identity: "c", ParticipantTeamName: "same", MetricValues: []MetricValue{"1"}},
	}

	assertOrder(t, Sort(rows, SortSpec{Column: NameColumn()}), "a", "b", "c")
	assertOrder(t, Sort(rows, SortSpec{Column: MetricColumn(0)}), "a", "b", "c")

	first := Sort(sampleRows(), SortSpec{Column: DateColumn()})
	second := Sort(sampleRows(), SortSpec{Column: DateColumn()})
	assertOrder(t, second, identities(first)...)
}

func TestSort_ReverseEqualsReversedForward(t *testing.T) {
	t.Parallel()

	columns := []SortColumn{RankColumn(), DateColumn(), NameColumn(), MetricColumn(0)}
	for _, column := range columns {
		forward := identities(Sort(sampleRows(), SortSpec{Column: column}))
		reversed := Sort(sampleRows(), SortSpec{Column: column, Reverse: true})

		want := make([]string, len(forward))
		for i := range forward {
			want[len(forward)-1-i] = forward[i]
		}
		assertOrder(t, reversed, want...)
	}
}

func TestSort_UnparsableDateLast(t *testing.T) {
	t.Parallel()

	rows := []Entry{
		{Identity: "bad", SubmittedAt: "yesterday"},
		{Identity: "late", SubmittedAt: "2026-03-02T00:00:00Z"},
		{Identity: "early", SubmittedAt: "2026-03-01T00:00:00Z"},
	}

	assertOrder(t, Sort(rows, SortSpec{Column: DateColumn()}), "early", "late", "bad")
	assertOrder(t, Sort(rows, SortSpec{Column: DateColumn(), Reverse: true}), "late", "early", "bad")
}

func TestMetricValue_Float(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   MetricValue
		want float64
		ok   bool
	}{
		{in: "0.85", want: 0.85, ok: true},
		{in: " 12 ", want: 12, ok: true},
		{in: "85.3%", want: 85.3, ok: true},
		{in: "-1e3", want: -1000, ok: true},
		{in: ".5", want: 0.5, ok: true},
		{in: "n/a", ok: false},
		{in: "", ok: false},
	}

	for _, tc := range cases {
		got, ok := tc.in.Float()
		if ok != tc.ok {
			t.Fatalf("Float(%q) ok=%v want=%v", tc.in, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("Float(%q)=%v want=%v", tc.in, got, tc.want)
		}
	}
}

func TestParseSortColumn(t *testing.T) {
	t.Parallel()

	valid := map[string]SortColumn{
		"":          RankColumn(),
		"rank":      RankColumn(),
		"DATE":      DateColumn(),
		"name":      NameColumn(),
		"metric:2":  MetricColumn(2),
		" metric:0": MetricColumn(0),
	}
	for raw, want := range valid {
		got, err := ParseSortColumn(raw)
		if err != nil {
			t.Fatalf("ParseSortColumn(%q) error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseSortColumn(%q)=%v want=%v", raw, got, want)
		}
	}

	for _, raw := range []string{"metric:", "metric:-1", "metric:x", "score"} {
		if _, err := ParseSortColumn(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestMetricColumnByLabel(t *testing.T) {
	t.Parallel()

	labels := []string{"Accuracy", "F1 Score"}
	got, ok := MetricColumnByLabel(labels, "f1 score")
	if !ok || got != MetricColumn(1) {
		t.Fatalf("unexpected column: %v ok=%v", got, ok)
	}
	if _, ok := MetricColumnByLabel(labels, "recall"); ok {
		t.Fatalf("expected unknown label to miss")
	}
}
