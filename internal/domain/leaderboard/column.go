package leaderboard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidSortColumn = errors.New("invalid sort column")

type ColumnKind int

const (
	ColumnRank ColumnKind = iota
	ColumnDate
	ColumnName
	ColumnMetric
)

func (k ColumnKind) String() string {
	switch k {
	case ColumnRank:
		return "rank"
	case ColumnDate:
		return "date"
	case ColumnName:
		return "name"
	case ColumnMetric:
		return "metric"
	default:
		return "unknown"
	}
}

// SortColumn is Rank, Date, Name or Metric(index). Only Metric carries an index.
type SortColumn struct {
	Kind   ColumnKind
	Metric int
}

func RankColumn() SortColumn { return SortColumn{Kind: ColumnRank} }
func DateColumn() SortColumn { return SortColumn{Kind: ColumnDate} }
func NameColumn() SortColumn { return SortColumn{Kind: ColumnName} }

func MetricColumn(index int) SortColumn {
	return SortColumn{Kind: ColumnMetric, Metric: index}
}

func (c SortColumn) String() string {
	if c.Kind == ColumnMetric {
		return fmt.Sprintf("metric:%d", c.Metric)
	}
	return c.Kind.String()
}

// SortSpec is the user-selected ordering of a view.
type SortSpec struct {
	Column  SortColumn
	Reverse bool
}

func DefaultSortSpec() SortSpec {
	return SortSpec{Column: RankColumn()}
}

// ParseSortColumn accepts rank, date, name and metric:N.
func ParseSortColumn(raw string) (SortColumn, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "", "rank":
		return RankColumn(), nil
	case "date", "submitted_at":
		return DateColumn(), nil
	case "name", "team", "participant_team_name":
		return NameColumn(), nil
	}

	if rest, ok := strings.CutPrefix(value, "metric:"); ok {
		index, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return SortColumn{}, fmt.Errorf("%w: %q: %v", ErrInvalidSortColumn, raw, err)
		}
		if index < 0 {
			return SortColumn{}, fmt.Errorf("%w: %q: metric index must be >= 0", ErrInvalidSortColumn, raw)
		}
		return MetricColumn(index), nil
	}

	return SortColumn{}, fmt.Errorf("%w: %q", ErrInvalidSortColumn, raw)
}

// MetricColumnByLabel resolves a schema label (case-insensitive) to its metric column.
func MetricColumnByLabel(labels []string, label string) (SortColumn, bool) {
	target := strings.TrimSpace(label)
	if target == "" {
		return SortColumn{}, false
	}
	for i, item := range labels {
		if strings.EqualFold(strings.TrimSpace(item), target) {
			return MetricColumn(i), true
		}
	}
	return SortColumn{}, false
}
