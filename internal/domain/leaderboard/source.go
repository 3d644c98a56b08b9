package leaderboard

import "context"

// Source fetches leaderboards from the challenge platform.
type Source interface {
	FetchLeaderboard(ctx context.Context, phaseSplitID string) (Page, error)
	FetchLeaderboardComplete(ctx context.Context, phaseSplitID string) (Page, error)
	CountLeaderboard(ctx context.Context, selection Selection) (int, error)
}

// Fetch dispatches to the public or the complete variant depending on the selection.
func Fetch(ctx context.Context, src Source, selection Selection) (Page, error) {
	if selection.Complete {
		return src.FetchLeaderboardComplete(ctx, selection.PhaseSplitID)
	}
	return src.FetchLeaderboard(ctx, selection.PhaseSplitID)
}
