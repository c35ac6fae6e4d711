package joinrequest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/petaprogress/peta-progress/internal"
	"github.com/petaprogress/peta-progress/internal/transport"
	"github.com/petaprogress/peta-progress/pkg/logger"
)

type ServiceAPI interface {
	Invite(ctx context.Context, adminID, email string) (*JoinRequest, error)
	Approve(ctx context.Context, adminID, requestID string) error
	Deny(ctx context.Context, adminID, requestID string) error
	Accept(ctx context.Context, userID, requestID string) error
	Decline(ctx context.Context, userID, requestID string) error
	ListPending(ctx context.Context, adminID string) ([]*JoinRequest, error)
	ListMine(ctx context.Context, userID string) ([]*JoinRequest, error)
}

// InviteDTO is the admin payload inviting a user by email.
type InviteDTO struct {
	Email string `json:"email"`
}

func (dto InviteDTO) Validate() error {
	if dto.Email == "" {
		return errors.New("email is required")
	}
	return nil
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

func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	adminID := internal.UserIDFromContext(r.Context())

	var dto InviteDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	jr, err := h.Service.Invite(r.Context(), adminID, dto.Email)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, jr)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	adminID := internal.UserIDFromContext(r.Context())
	requestID := chi.URLParam(r, "id")

	if err := h.Service.Approve(r.Context(), adminID, requestID); err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": StatusApproved})
}

func (h *Handler) Deny(w http.ResponseWriter, r *http.Request) {
	adminID := internal.UserIDFromContext(r.Context())
	requestID := chi.URLParam(r, "id")

	if err := h.Service.Deny(r.Context(), adminID, requestID); err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": StatusDenied})
}

func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	requestID := chi.URLParam(r, "id")

	if err := h.Service.Accept(r.Context(), userID, requestID); err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": StatusApproved})
}

func (h *Handler) Decline(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	requestID := chi.URLParam(r, "id")

	if err := h.Service.Decline(r.Context(), userID, requestID); err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": StatusDenied})
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	adminID := internal.UserIDFromContext(r.Context())

	requests, err := h.Service.ListPending(r.Context(), adminID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"join_requests": requests,
	})
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())

	requests, err := h.Service.ListMine(r.Context(), userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"join_requests": requests,
	})
}
