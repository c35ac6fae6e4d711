package organization

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
	Get(ctx context.Context, userID string) (*Organization, error)
	Update(ctx context.Context, adminID string, dto UpdateOrganizationDTO) (*Organization, error)
	CreateDepartment(ctx context.Context, adminID string, dto DepartmentDTO) (*Department, error)
	RenameDepartment(ctx context.Context, adminID, deptID string, dto DepartmentDTO) (*Department, error)
	ListDepartments(ctx context.Context, userID string) ([]*DepartmentSummary, error)
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

func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())

	org, err := h.Service.Get(r.Context(), userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, org)
}

func (h *Handler) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	adminID := internal.UserIDFromContext(r.Context())

	var dto UpdateOrganizationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	org, err := h.Service.Update(r.Context(), adminID, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, org)
}

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	adminID := internal.UserIDFromContext(r.Context())

	var dto DepartmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	dept, err := h.Service.CreateDepartment(r.Context(), adminID, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, dept)
}

func (h *Handler) RenameDepartment(w http.ResponseWriter, r *http.Request) {
	adminID := internal.UserIDFromContext(r.Context())
	deptID := chi.URLParam(r, "id")

	var dto DepartmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	dept, err := h.Service.RenameDepartment(r.Context(), adminID, deptID, dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dept)
}

func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())

	departments, err := h.Service.ListDepartments(r.Context(), userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"departments": departments,
	})
}
