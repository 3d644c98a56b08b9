package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	leaderboardFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leaderboard_fetches_total",
		Help: "Leaderboard fetches issued by pollers, by kind (initial, refresh, peek) and outcome.",
	}, []string{"kind", "outcome"})

	leaderboardStaleDiscards = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leaderboard_stale_responses_total",
		Help: "Responses dropped because the view moved to another selection before they arrived.",
	})

	leaderboardSkippedTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leaderboard_skipped_ticks_total",
		Help: "Poll ticks skipped because a fetch was already in flight.",
	})

	leaderboardRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "leaderboard_rows",
		Help: "Rows in the most recently reconciled leaderboard.",
	})
)

const (
	fetchKindInitial = "initial"
	fetchKindRefresh = "refresh"
	fetchKindPeek    = "peek"
)

func observeFetch(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	leaderboardFetches.WithLabelValues(kind, outcome).Inc()
}
