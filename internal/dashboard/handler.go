package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/petaprogress/peta-progress/internal"
	"github.com/petaprogress/peta-progress/internal/transport"
	"github.com/petaprogress/peta-progress/pkg/logger"
)

type ServiceAPI interface {
	Snapshot(ctx context.Context, userID string) (*Snapshot, error)
	AdminSnapshot(ctx context.Context, userID string) (*AdminSnapshot, error)
	Metrics(ctx context.Context, userID string, period Period) (*PerformanceMetrics, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	snap, err := h.Service.Snapshot(r.Context(), userID)
	if err != nil {
		h.Logger.Error("GetSnapshot: service error", "error", err, "user_id", userID)
		h.WriteError(w, http.StatusInternalServerError, "failed to build dashboard")
		return
	}

	h.WriteJSON(w, http.StatusOK, snap)
}

func (h *Handler) GetAdminSnapshot(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	snap, err := h.Service.AdminSnapshot(r.Context(), userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, snap)
}

func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	period := Period(r.URL.Query().Get("period"))
	switch period {
	case PeriodWeek, PeriodMonth, PeriodQuarter:
	case "":
		period = PeriodWeek
	default:
		h.WriteError(w, http.StatusBadRequest, "period must be week, month or quarter")
		return
	}

	metrics, err := h.Service.Metrics(r.Context(), userID, period)
	if err != nil {
		h.Logger.Error("GetMetrics: service error", "error", err, "user_id", userID)
		h.WriteError(w, http.StatusInternalServerError, "failed to compute metrics")
		return
	}

	h.WriteJSON(w, http.StatusOK, metrics)
}
