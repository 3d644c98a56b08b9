package httpapi

import (
	"context"
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/leaderboard-sync/internal/domain/leaderboard"
	"github.com/riskibarqy/leaderboard-sync/internal/platform/logging"
	"github.com/riskibarqy/leaderboard-sync/internal/usecase"
)

// LeaderboardView is the part of the poller the HTTP surface drives.
type LeaderboardView interface {
	Select(ctx context.Context, selection leaderboard.Selection) error
	Refresh(ctx context.Context) error
	SetSort(spec leaderboard.SortSpec) error
	SetHighlight(target string) error
	Snapshot() usecase.ViewSnapshot
}

type Handler struct {
	view      LeaderboardView
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(view LeaderboardView, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		view:      view,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) decodeRequest(r *http.Request, target any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeaderboard")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, snapshotToDTO(h.view.Snapshot()))
}

type selectLeaderboardRequest struct {
	PhaseSplitID string `json:"phase_split_id" validate:"required,max=64"`
	Complete     bool   `json:"complete"`
}

func (h *Handler) SelectLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SelectLeaderboard")
	defer span.End()

	var req selectLeaderboardRequest
	if err := h.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	selection := leaderboard.Selection{PhaseSplitID: req.PhaseSplitID, Complete: req.Complete}
	if err := h.view.Select(ctx, selection); err != nil {
		h.logger.WarnContext(ctx, "select leaderboard failed", "selection", selection.String(), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, snapshotToDTO(h.view.Snapshot()))
}

func (h *Handler) RefreshLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshLeaderboard")
	defer span.End()

	if err := h.view.Refresh(ctx); err != nil {
		h.logger.WarnContext(ctx, "refresh leaderboard failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, snapshotToDTO(h.view.Snapshot()))
}

type sortLeaderboardRequest struct {
	// Column is rank, date, name, metric:N or a metric label of the current leaderboard.
	Column  string `json:"column" validate:"required,max=128"`
	Reverse bool   `json:"reverse"`
}

func (h *Handler) SortLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SortLeaderboard")
	defer span.End()

	var req sortLeaderboardRequest
	if err := h.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	column, err := leaderboard.ParseSortColumn(req.Column)
	if err != nil {
		var ok bool
		column, ok = leaderboard.MetricColumnByLabel(h.view.Snapshot().Labels, req.Column)
		if !ok {
			writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
			return
		}
	}

	if err := h.view.SetSort(leaderboard.SortSpec{Column: column, Reverse: req.Reverse}); err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, snapshotToDTO(h.view.Snapshot()))
}

type highlightLeaderboardRequest struct {
	// Team is a team name or an entry id. Empty clears the highlight.
	Team string `json:"team" validate:"max=256"`
}

func (h *Handler) HighlightLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.HighlightLeaderboard")
	defer span.End()

	var req highlightLeaderboardRequest
	if err := h.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.view.SetHighlight(req.Team); err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, snapshotToDTO(h.view.Snapshot()))
}
