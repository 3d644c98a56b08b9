package httpapi

import (
	"time"

	"github.com/riskibarqy/leaderboard-sync/internal/domain/leaderboard"
	"github.com/riskibarqy/leaderboard-sync/internal/usecase"
)

type leaderboardDTO struct {
	PhaseSplitID     string           `json:"phase_split_id"`
	Complete         bool             `json:"complete"`
	State            string           `json:"state"`
	HasPendingUpdate bool             `json:"has_pending_update"`
	Sort             sortDTO          `json:"sort"`
	Highlight        string           `json:"highlight,omitempty"`
	Labels           []string         `json:"labels"`
	DefaultOrderBy   string           `json:"default_order_by,omitempty"`
	UpdatedAt        *time.Time       `json:"updated_at,omitempty"`
	LastError        string           `json:"last_error,omitempty"`
	StaleDiscards    int              `json:"stale_discards"`
	Rows             []leaderboardRow `json:"rows"`
}

type sortDTO struct {
	Column  string `json:"column"`
	Reverse bool   `json:"reverse"`
}

type leaderboardRow struct {
	Identity            string   `json:"identity"`
	EntryID             string   `json:"entry_id,omitempty"`
	InitialRank         int      `json:"initial_rank"`
	ParticipantTeamName string   `json:"participant_team_name"`
	SubmittedAt         string   `json:"submitted_at"`
	FormattedAgo        string   `json:"formatted_ago"`
	MetricValues        []string `json:"metric_values"`
	MethodName          string   `json:"method_name,omitempty"`
	IsPrivate           bool     `json:"is_private"`
	IsBaseline          bool     `json:"is_baseline"`
	IsHighlighted       bool     `json:"is_highlighted"`
}

func snapshotToDTO(snap usecase.ViewSnapshot) leaderboardDTO {
	out := leaderboardDTO{
		PhaseSplitID:     snap.Selection.PhaseSplitID,
		Complete:         snap.Selection.Complete,
		State:            string(snap.State),
		HasPendingUpdate: snap.HasPendingUpdate,
		Sort:             sortDTO{Column: snap.Sort.Column.String(), Reverse: snap.Sort.Reverse},
		Highlight:        snap.Highlight,
		Labels:           snap.Labels,
		DefaultOrderBy:   snap.DefaultOrderBy,
		StaleDiscards:    snap.StaleDiscards,
		Rows:             make([]leaderboardRow, 0, len(snap.Rows)),
	}
	if out.Labels == nil {
		out.Labels = []string{}
	}
	if !snap.UpdatedAt.IsZero() {
		updatedAt := snap.UpdatedAt.UTC()
		out.UpdatedAt = &updatedAt
	}
	if snap.LastError != nil {
		out.LastError = snap.LastError.Error()
	}
	for _, row := range snap.Rows {
		out.Rows = append(out.Rows, rowToDTO(row))
	}
	return out
}

func rowToDTO(row leaderboard.Entry) leaderboardRow {
	metrics := make([]string, 0, len(row.MetricValues))
	for _, value := range row.MetricValues {
		metrics = append(metrics, string(value))
	}
	return leaderboardRow{
		Identity:            row.Identity,
		EntryID:             row.EntryID,
		InitialRank:         row.InitialRank,
		ParticipantTeamName: row.ParticipantTeamName,
		SubmittedAt:         row.SubmittedAt,
		FormattedAgo:        row.FormattedAgo,
		MetricValues:        metrics,
		MethodName:          row.MethodName,
		IsPrivate:           row.IsPrivate,
		IsBaseline:          row.IsBaseline,
		IsHighlighted:       row.IsHighlighted,
	}
}
