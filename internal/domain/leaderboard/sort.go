package leaderboard

import (
	"sort"
	"strings"
)

type sortKey struct {
	number float64
	text   string
	ok     bool
}

// Sort returns rows ordered by spec. The input slice is left untouched.
//
// Rows whose key cannot be read (missing metric, unparsable date) go last in input
// order, whatever the direction. Reverse flips the readable part after the stable sort.
func Sort(rows []Entry, spec SortSpec) []Entry {
	keyed := make([]Entry, 0, len(rows))
	keys := make([]sortKey, 0, len(rows))
	unkeyed := make([]Entry, 0)

	for _, row := range rows {
		key := extractKey(row, spec.Column)
		if !key.ok {
			unkeyed = append(unkeyed, row)
			continue
		}
		keyed = append(keyed, row)
		keys = append(keys, key)
	}

	order := make([]int, len(keyed))
	for i := range order {
		order[i] = i
	}
	byText := spec.Column.Kind == ColumnName
	sort.SliceStable(order, func(i, j int) bool {
		a, b := keys[order[i]], keys[order[j]]
		if byText {
			return strings.Compare(a.text, b.text) < 0
		}
		return a.number < b.number
	})

	out := make([]Entry, 0, len(rows))
	if spec.Reverse {
		for i := len(order) - 1; i >= 0; i-- {
			out = append(out, keyed[order[i]])
		}
	} else {
		for _, idx := range order {
			out = append(out, keyed[idx])
		}
	}

	return append(out, unkeyed...)
}

func extractKey(row Entry, column SortColumn) sortKey {
	switch column.Kind {
	case ColumnRank:
		return sortKey{number: float64(row.InitialRank), ok: true}
	case ColumnDate:
		submittedAt, ok := parseSubmittedAt(row.SubmittedAt)
		if !ok {
			return sortKey{}
		}
		return sortKey{number: float64(submittedAt.UnixMilli()), ok: true}
	case ColumnName:
		return sortKey{text: row.ParticipantTeamName, ok: true}
	case ColumnMetric:
		value, ok := metricAt(row.MetricValues, column.Metric)
		return sortKey{number: value, ok: ok}
	default:
		return sortKey{number: float64(row.InitialRank), ok: true}
	}
}
