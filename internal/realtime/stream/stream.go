package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/petaprogress/peta-progress/internal"
	"github.com/petaprogress/peta-progress/internal/dashboard"
	"github.com/petaprogress/peta-progress/internal/profile"
	"github.com/petaprogress/peta-progress/internal/realtime"
	"github.com/petaprogress/peta-progress/internal/transport"
	"github.com/petaprogress/peta-progress/pkg/logger"
)

// DashboardAPI re-fetches the full snapshot on every refresh signal.
// There are no deltas; a change means "derive everything again".
type DashboardAPI interface {
	Snapshot(ctx context.Context, userID string) (*dashboard.Snapshot, error)
	AdminSnapshot(ctx context.Context, userID string) (*dashboard.AdminSnapshot, error)
}

type ProfileAPI interface {
	GetByID(ctx context.Context, userID string) (*profile.Profile, error)
}

// heartbeatInterval keeps intermediaries from closing idle streams.
const heartbeatInterval = 25 * time.Second

type Handler struct {
	*transport.BaseHandler
	hub        *realtime.Hub
	dashboards DashboardAPI
	profiles   ProfileAPI
}

func NewHandler(hub *realtime.Hub, dashboards DashboardAPI, profiles ProfileAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		hub:         hub,
		dashboards:  dashboards,
		profiles:    profiles,
	}
}

// StreamDashboard streams the member dashboard over SSE. The client gets
// a fresh snapshot immediately, then a new one whenever a change event
// matching their scope arrives. Teardown is request-context cancellation.
func (h *Handler) StreamDashboard(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, false)
}

// StreamAdminDashboard streams the organization-wide dashboard.
func (h *Handler) StreamAdminDashboard(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, true)
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request, admin bool) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.WriteError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	p, err := h.profiles.GetByID(r.Context(), userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	filter := realtime.Filter{UserID: userID, Tables: realtime.DashboardTables()}
	if p.OrganizationID != nil {
		filter.OrganizationID = *p.OrganizationID
	}
	if admin {
		if !p.IsAdmin() || filter.OrganizationID == "" {
			h.WriteError(w, http.StatusForbidden, "admin access required")
			return
		}
	}

	ctx := r.Context()
	sub := h.hub.Subscribe(ctx, filter)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// the first snapshot doubles as catch-up: anything missed before the
	// subscription existed is covered by this full derive
	if !h.sendSnapshot(ctx, w, flusher, userID, admin) {
		return
	}

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	h.Logger.Info("dashboard stream opened", "user_id", userID, "admin", admin)

	for {
		select {
		case <-ctx.Done():
			h.Logger.Info("dashboard stream closed", "user_id", userID)
			return
		case _, open := <-sub.Events():
			if !open {
				return
			}
			// coalesce the burst: every queued event triggers the same
			// full refetch, so one snapshot covers all of them
			drain(sub.Events())
			if !h.sendSnapshot(ctx, w, flusher, userID, admin) {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handler) sendSnapshot(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, userID string, admin bool) bool {
	var (
		payload interface{}
		err     error
	)
	if admin {
		payload, err = h.dashboards.AdminSnapshot(ctx, userID)
	} else {
		payload, err = h.dashboards.Snapshot(ctx, userID)
	}
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		h.Logger.Error("failed to refresh snapshot for stream", "error", err, "user_id", userID)
		// keep the stream alive; the next change event retries
		return true
	}

	data, err := json.Marshal(payload)
	if err != nil {
		h.Logger.Error("failed to marshal snapshot", "error", err, "user_id", userID)
		return true
	}

	if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
		return false
	}
	flusher.Flush()
	return true
}

func drain(ch <-chan realtime.ChangeEvent) {
	for {
		select {
		case _, open := <-ch:
			if !open {
				return
			}
		default:
			return
		}
	}
}
