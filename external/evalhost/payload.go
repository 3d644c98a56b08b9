package evalhost

import (
	"bytes"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/leaderboard-sync/internal/domain/leaderboard"
)

type leaderboardEnvelope struct {
	Count    int            `json:"count"`
	Next     *string        `json:"next"`
	Previous *string        `json:"previous"`
	Results  []entryPayload `json:"results"`
	Schema   *schemaPayload `json:"leaderboard__schema"`
}

type schemaPayload struct {
	Labels         []string `json:"labels"`
	DefaultOrderBy string   `json:"default_order_by"`
}

type entryPayload struct {
	ID          flexString  `json:"id"`
	TeamName    string      `json:"submission__participant_team__team_name"`
	SubmittedAt string      `json:"submission__submitted_at"`
	Result      flexMetrics `json:"result"`
	IsPublic    *bool       `json:"submission__is_public"`
	IsBaseline  bool        `json:"is_baseline"`
	MethodName  string      `json:"submission__method_name"`
}

// flexString accepts a JSON string or number and keeps its text. null decodes to "".
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*s = ""
		return nil
	case data[0] == '"':
		var text string
		if err := sonic.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = flexString(strings.TrimSpace(text))
		return nil
	}

	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return crerr.Newf("expected string or number, got %s", abbreviateBody(data))
	}
	*s = flexString(data)
	return nil
}

// flexMetrics accepts a list of metric values or a single scalar.
// Entries that are not numbers or strings (null, objects) become "" and sort as non-numeric.
type flexMetrics []leaderboard.MetricValue

func (m *flexMetrics) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = nil
		return nil
	}

	if data[0] != '[' {
		*m = flexMetrics{metricFromRaw(data)}
		return nil
	}

	var items []sonicRaw
	if err := sonic.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(flexMetrics, 0, len(items))
	for _, item := range items {
		out = append(out, metricFromRaw(item))
	}
	*m = out
	return nil
}

// sonicRaw keeps the undecoded bytes of a JSON value.
type sonicRaw []byte

func (r *sonicRaw) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

func metricFromRaw(data []byte) leaderboard.MetricValue {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}
	switch data[0] {
	case '"':
		var text string
		if err := sonic.Unmarshal(data, &text); err != nil {
			return ""
		}
		return leaderboard.MetricValue(text)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return leaderboard.MetricValue(data)
	default:
		return ""
	}
}

func (e leaderboardEnvelope) toPage() leaderboard.Page {
	page := leaderboard.Page{
		Count:   e.Count,
		Results: make([]leaderboard.RawEntry, 0, len(e.Results)),
	}
	if e.Next != nil {
		page.Next = strings.TrimSpace(*e.Next)
	}
	if e.Schema != nil {
		page.Labels = append([]string(nil), e.Schema.Labels...)
		page.DefaultOrderBy = strings.TrimSpace(e.Schema.DefaultOrderBy)
	}
	for _, item := range e.Results {
		page.Results = append(page.Results, item.toRawEntry())
	}
	return page
}

func (p entryPayload) toRawEntry() leaderboard.RawEntry {
	isPrivate := false
	if p.IsPublic != nil {
		isPrivate = !*p.IsPublic
	}
	return leaderboard.RawEntry{
		EntryID:             string(p.ID),
		ParticipantTeamName: strings.TrimSpace(p.TeamName),
		SubmittedAt:         strings.TrimSpace(p.SubmittedAt),
		MetricValues:        append([]leaderboard.MetricValue(nil), p.Result...),
		IsPrivate:           isPrivate,
		IsBaseline:          p.IsBaseline,
		MethodName:          strings.TrimSpace(p.MethodName),
	}
}
