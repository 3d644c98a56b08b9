package evalhost

import (
	"testing"

	sonic "github.com/bytedance/sonic"
)

func TestLeaderboardEnvelope_DecodesLooseRows(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"count": 3,
		"next": null,
		"results": [
			{"id": "a-1", "submission__participant_team__team_name": " Alpha ", "result": [0.91, "0.5", null], "submission__is_public": false},
			{"id": 7, "submission__participant_team__team_name": "Bravo", "result": 12, "is_baseline": true},
			{"id": null, "submission__participant_team__team_name": "Charlie", "result": null}
		],
		"leaderboard__schema": {"labels": ["acc", "f1", "loss"], "default_order_by": "acc"}
	}`)

	var envelope leaderboardEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	page := envelope.toPage()

	alpha := page.Results[0]
	if alpha.EntryID != "a-1" || alpha.ParticipantTeamName != "Alpha" || !alpha.IsPrivate {
		t.Fatalf("unexpected alpha row: %+v", alpha)
	}
	if len(alpha.MetricValues) != 3 || alpha.MetricValues[0] != "0.91" || alpha.MetricValues[1] != "0.5" || alpha.MetricValues[2] != "" {
		t.Fatalf("unexpected alpha metrics: %v", alpha.MetricValues)
	}
	if _, ok := alpha.MetricValues[2].Float(); ok {
		t.Fatalf("null metric must not parse as a number")
	}

	bravo := page.Results[1]
	if bravo.EntryID != "7" || bravo.IsPrivate || !bravo.IsBaseline {
		t.Fatalf("unexpected bravo row: %+v", bravo)
	}
	if len(bravo.MetricValues) != 1 || bravo.MetricValues[0] != "12" {
		t.Fatalf("expected scalar result to become one metric, got %v", bravo.MetricValues)
	}

	charlie := page.Results[2]
	if charlie.EntryID != "" || len(charlie.MetricValues) != 0 {
		t.Fatalf("unexpected charlie row: %+v", charlie)
	}

	if page.DefaultOrderBy != "acc" || len(page.Labels) != 3 {
		t.Fatalf("unexpected schema: %v %q", page.Labels, page.DefaultOrderBy)
	}
}

func TestFlexString_RejectsObjects(t *testing.T) {
	t.Parallel()

	var envelope leaderboardEnvelope
	err := sonic.Unmarshal([]byte(`{"count": 1, "results": [{"id": {"nested": true}}]}`), &envelope)
	if err == nil {
		t.Fatalf("expected object id to be rejected")
	}
}
