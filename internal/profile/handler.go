package profile

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
	EnsureProfile(ctx context.Context, userID, email string) (*Profile, error)
	UpdateName(ctx context.Context, userID string, dto UpdateNameDTO) (*Profile, error)
	SetAvailability(ctx context.Context, userID string, dto SetAvailabilityDTO) (*Profile, error)
	SetDepartment(ctx context.Context, adminID, targetID string, dto SetDepartmentDTO) error
	SetWorkingHours(ctx context.Context, adminID, targetID string, dto SetWorkingHoursDTO) error
	RemoveFromOrganization(ctx context.Context, adminID, targetID string) error
	ListByOrganization(ctx context.Context, orgID string) ([]*Profile, error)
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

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	p, err := h.Service.EnsureProfile(r.Context(), userID, "")
	if err != nil {
		h.Logger.Error("GetMe: service error", "error", err, "user_id", userID)
		h.WriteError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateName(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto UpdateNameDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.Service.UpdateName(r.Context(), userID, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto SetAvailabilityDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.SetAvailability(r.Context(), userID, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) SetDepartment(w http.ResponseWriter, r *http.Request) {
	adminID := internal.UserIDFromContext(r.Context())
	targetID := chi.URLParam(r, "id")

	var dto SetDepartmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.SetDepartment(r.Context(), adminID, targetID, dto); err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) SetWorkingHours(w http.ResponseWriter, r *http.Request) {
	adminID := internal.UserIDFromContext(r.Context())
	targetID := chi.URLParam(r, "id")

	var dto SetWorkingHoursDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.SetWorkingHours(r.Context(), adminID, targetID, dto); err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) RemoveFromOrganization(w http.ResponseWriter, r *http.Request) {
	adminID := internal.UserIDFromContext(r.Context())
	targetID := chi.URLParam(r, "id")

	if err := h.Service.RemoveFromOrganization(r.Context(), adminID, targetID); err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
