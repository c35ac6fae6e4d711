package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/petaprogress/peta-progress/internal"
	"github.com/petaprogress/peta-progress/internal/transport"
	"github.com/petaprogress/peta-progress/pkg/logger"
)

type ServiceAPI interface {
	Signup(ctx context.Context, dto SignupDTO) (AuthTokens, error)
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	Logout(ctx context.Context, userID string) error
	Heartbeat(ctx context.Context, userID string) error
	ValidateAccessToken(tokenString string) (*Claims, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var dto SignupDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := h.Service.Signup(r.Context(), dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, tokens)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	claims, err := h.Service.ValidateAccessToken(token)
	if err != nil {
		h.WriteError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	if err := h.Service.Logout(r.Context(), claims.UserID); err != nil {
		h.WriteError(w, http.StatusInternalServerError, "failed to log out")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.Service.Heartbeat(r.Context(), userID); err != nil {
		h.Logger.Error("heartbeat failed", "error", err, "user_id", userID)
		h.WriteError(w, http.StatusInternalServerError, "failed to record heartbeat")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AuthMiddleware validates the bearer token and injects the user id into
// the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.Logger.Warn("token validation failed", "error", err)
			h.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := internal.ContextWithUserID(r.Context(), claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
