package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/riskibarqy/leaderboard-sync/internal/platform/id"
	"github.com/riskibarqy/leaderboard-sync/internal/platform/logging"
)

func NewRouter(handler *Handler, logger *logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/leaderboard", handler.GetLeaderboard)
	mux.HandleFunc("PUT /v1/leaderboard/selection", handler.SelectLeaderboard)
	mux.HandleFunc("POST /v1/leaderboard/refresh", handler.RefreshLeaderboard)
	mux.HandleFunc("PUT /v1/leaderboard/sort", handler.SortLeaderboard)
	mux.HandleFunc("PUT /v1/leaderboard/highlight", handler.HighlightLeaderboard)

	return RequestTracing(RequestID(id.NewRandomGenerator(), RequestLogging(logger, recoverPanic(logger, mux))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
