package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/riskibarqy/leaderboard-sync/external/evalhost"
	"github.com/riskibarqy/leaderboard-sync/internal/config"
	"github.com/riskibarqy/leaderboard-sync/internal/domain/leaderboard"
	"github.com/riskibarqy/leaderboard-sync/internal/interfaces/httpapi"
	"github.com/riskibarqy/leaderboard-sync/internal/platform/logging"
	"github.com/riskibarqy/leaderboard-sync/internal/platform/resilience"
	"github.com/riskibarqy/leaderboard-sync/internal/usecase"
)

// App is the assembled watcher: platform client, poller and HTTP surface.
type App struct {
	Server *http.Server
	Poller *usecase.LeaderboardPoller

	client  *evalhost.Client
	initial leaderboard.Selection
	logger  *logging.Logger
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	client, err := evalhost.NewClient(evalhost.ClientConfig{
		BaseURL:    cfg.EvalHostBaseURL,
		Token:      cfg.EvalHostToken,
		Timeout:    cfg.EvalHostTimeout,
		MaxRetries: cfg.EvalHostMaxRetries,
		PageSize:   cfg.EvalHostPageSize,
		MaxWorkers: cfg.EvalHostMaxWorkers,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.EvalHostCircuitEnabled,
			FailureThreshold: cfg.EvalHostCircuitFailureCount,
			OpenTimeout:      cfg.EvalHostCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.EvalHostCircuitHalfOpenMaxReq,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build evalhost client: %w", err)
	}

	reportLogger := logger.Named("reporter")
	poller := usecase.NewLeaderboardPoller(client, usecase.LeaderboardPollerConfig{
		Interval:  cfg.LeaderboardPollInterval,
		Sort:      cfg.LeaderboardSort,
		Highlight: cfg.LeaderboardHighlightTeam,
		Listener:  newLogListener(logger),
		Reporter: usecase.ErrorReporterFunc(func(err error) {
			reportLogger.Error("leaderboard poll failed", "error", err)
		}),
		Logger: logger,
	})

	handler := httpapi.NewHandler(poller, logger)
	router := httpapi.NewRouter(handler, logger)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		poller.Destroy()
		client.Close()
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		Server: server,
		Poller: poller,
		client: client,
		initial: leaderboard.Selection{
			PhaseSplitID: cfg.LeaderboardPhaseSplitID,
			Complete:     cfg.LeaderboardComplete,
		}.Normalize(),
		logger: logger,
	}, nil
}

// Start selects the configured leaderboard, if any. Without one the watcher
// waits for a selection over HTTP.
func (a *App) Start(ctx context.Context) error {
	if a.initial.IsZero() {
		a.logger.InfoContext(ctx, "no leaderboard configured, waiting for selection")
		return nil
	}
	if err := a.Poller.Select(ctx, a.initial); err != nil {
		return fmt.Errorf("select %s: %w", a.initial, err)
	}
	a.logger.InfoContext(ctx, "leaderboard selected", "selection", a.initial.String())
	return nil
}

// Close stops the poller and releases the platform client.
func (a *App) Close() {
	a.Poller.Destroy()
	a.client.Close()
}

type logListener struct {
	logger *logging.Logger
}

func newLogListener(logger *logging.Logger) logListener {
	return logListener{logger: logger.Named("view")}
}

func (l logListener) OnRowsChanged(rows []leaderboard.Entry) {
	l.logger.Debug("leaderboard rows changed", "rows", len(rows))
}

func (l logListener) OnPendingUpdateChanged(pending bool) {
	if pending {
		l.logger.Info("leaderboard has new submissions, refresh to load them")
		return
	}
	l.logger.Debug("leaderboard pending update cleared")
}

func (l logListener) OnFetchError(err error) {
	l.logger.Warn("leaderboard fetch failed", "error", err)
}
