package allotment

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
	Create(ctx context.Context, adminID string, dto CreateAllotmentDTO) (*WorkAllotment, error)
	Update(ctx context.Context, adminID, allotmentID string, dto UpdateAllotmentDTO) (*WorkAllotment, error)
	GetByID(ctx context.Context, userID, allotmentID string) (*WorkAllotment, error)
	ListByOrganization(ctx context.Context, userID string) ([]*WorkAllotment, error)
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

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	adminID := internal.UserIDFromContext(r.Context())

	var dto CreateAllotmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	wa, err := h.Service.Create(r.Context(), adminID, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, wa)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	adminID := internal.UserIDFromContext(r.Context())
	allotmentID := chi.URLParam(r, "id")

	var dto UpdateAllotmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	wa, err := h.Service.Update(r.Context(), adminID, allotmentID, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, wa)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	allotmentID := chi.URLParam(r, "id")

	wa, err := h.Service.GetByID(r.Context(), userID, allotmentID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, wa)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())

	allotments, err := h.Service.ListByOrganization(r.Context(), userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"allotments": allotments,
	})
}
