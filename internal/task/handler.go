package task

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/petaprogress/peta-progress/internal"
	"github.com/petaprogress/peta-progress/internal/transport"
	"github.com/petaprogress/peta-progress/pkg/logger"
)

type ServiceAPI interface {
	Assign(ctx context.Context, adminID string, dto AssignTaskDTO) ([]*Task, error)
	UpdateStatus(ctx context.Context, userID, taskID string, dto UpdateStatusDTO) (*Task, error)
	GetByID(ctx context.Context, userID, taskID string) (*Task, error)
	ListMine(ctx context.Context, userID string) ([]*Task, error)
	ListByOrganization(ctx context.Context, adminID string) ([]*Task, error)
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

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	adminID := internal.UserIDFromContext(r.Context())

	var dto AssignTaskDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tasks, err := h.Service.Assign(r.Context(), adminID, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.Logger.Info("Assign: tasks created", "count", len(tasks), "admin_id", adminID)
	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"tasks": tasks,
	})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	taskID := chi.URLParam(r, "id")

	var dto UpdateStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.Service.UpdateStatus(r.Context(), userID, taskID, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	taskID := chi.URLParam(r, "id")

	t, err := h.Service.GetByID(r.Context(), userID, taskID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())

	tasks, err := h.Service.ListMine(r.Context(), userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": tasks,
	})
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	adminID := internal.UserIDFromContext(r.Context())

	tasks, err := h.Service.ListByOrganization(r.Context(), adminID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": tasks,
	})
}
