package dailylog

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/petaprogress/peta-progress/internal"
	"github.com/petaprogress/peta-progress/internal/transport"
	"github.com/petaprogress/peta-progress/pkg/logger"
)

type ServiceAPI interface {
	Append(ctx context.Context, userID string, dto CreateLogDTO) (*DailyLog, error)
	ListMine(ctx context.Context, userID string, limit int) ([]*DailyLog, error)
	ListForTask(ctx context.Context, userID, taskID string, limit int) ([]*DailyLog, error)
	MonthlyAllotmentHours(ctx context.Context, orgID string, now time.Time) (map[string]float64, error)
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

func (h *Handler) Append(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())

	var dto CreateLogDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	dl, err := h.Service.Append(r.Context(), userID, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, dl)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	limit := queryLimit(r)

	logs, err := h.Service.ListMine(r.Context(), userID, limit)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"daily_logs": logs,
	})
}

func (h *Handler) ListForTask(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	taskID := chi.URLParam(r, "id")
	limit := queryLimit(r)

	logs, err := h.Service.ListForTask(r.Context(), userID, taskID, limit)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"daily_logs": logs,
	})
}

func queryLimit(r *http.Request) int {
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			return l
		}
	}
	return 50
}
