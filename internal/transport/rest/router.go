package rest

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi"

	"github.com/petaprogress/peta-progress/internal/allotment"
	"github.com/petaprogress/peta-progress/internal/auth"
	"github.com/petaprogress/peta-progress/internal/dailylog"
	"github.com/petaprogress/peta-progress/internal/dashboard"
	"github.com/petaprogress/peta-progress/internal/joinrequest"
	"github.com/petaprogress/peta-progress/internal/organization"
	"github.com/petaprogress/peta-progress/internal/profile"
	"github.com/petaprogress/peta-progress/internal/realtime/stream"
	"github.com/petaprogress/peta-progress/internal/task"
	"github.com/petaprogress/peta-progress/internal/transport/middleware"
)

type Handlers struct {
	Auth         *auth.Handler
	Profile      *profile.Handler
	Organization *organization.Handler
	JoinRequest  *joinrequest.Handler
	Allotment    *allotment.Handler
	Task         *task.Handler
	DailyLog     *dailylog.Handler
	Dashboard    *dashboard.Handler
	Realtime     *stream.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, allowedOrigins string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/signup", h.Auth.Signup)
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Post("/auth/heartbeat", h.Auth.Heartbeat)

			pr.Route("/profiles", func(sr chi.Router) {
				sr.Get("/me", h.Profile.GetMe)
				sr.Patch("/me/name", h.Profile.UpdateName)
				sr.Patch("/me/availability", h.Profile.SetAvailability)
			})

			// admin-only member management; the service enforces the role
			pr.Route("/users/{id}", func(sr chi.Router) {
				sr.Patch("/department", h.Profile.SetDepartment)
				sr.Patch("/working-hours", h.Profile.SetWorkingHours)
				sr.Delete("/membership", h.Profile.RemoveFromOrganization)
			})

			pr.Route("/organization", func(sr chi.Router) {
				sr.Get("/", h.Organization.GetOrganization)
				sr.Patch("/", h.Organization.UpdateOrganization)
				sr.Get("/departments", h.Organization.ListDepartments)
				sr.Post("/departments", h.Organization.CreateDepartment)
				sr.Patch("/departments/{id}", h.Organization.RenameDepartment)
			})

			pr.Route("/join-requests", func(sr chi.Router) {
				sr.Post("/", h.JoinRequest.Invite)
				sr.Get("/", h.JoinRequest.ListPending)
				sr.Get("/mine", h.JoinRequest.ListMine)
				sr.Post("/{id}/approve", h.JoinRequest.Approve)
				sr.Post("/{id}/deny", h.JoinRequest.Deny)
				sr.Post("/{id}/accept", h.JoinRequest.Accept)
				sr.Post("/{id}/decline", h.JoinRequest.Decline)
			})

			pr.Route("/allotments", func(sr chi.Router) {
				sr.Post("/", h.Allotment.Create)
				sr.Get("/", h.Allotment.List)
				sr.Get("/{id}", h.Allotment.Get)
				sr.Patch("/{id}", h.Allotment.Update)
			})

			pr.Route("/tasks", func(sr chi.Router) {
				sr.Post("/", h.Task.Assign)
				sr.Get("/", h.Task.ListAll)
				sr.Get("/mine", h.Task.ListMine)
				sr.Get("/{id}", h.Task.Get)
				sr.Patch("/{id}/status", h.Task.UpdateStatus)
				sr.Get("/{id}/logs", h.DailyLog.ListForTask)
			})

			pr.Route("/daily-logs", func(sr chi.Router) {
				sr.Post("/", h.DailyLog.Append)
				sr.Get("/", h.DailyLog.ListMine)
			})

			pr.Route("/dashboard", func(sr chi.Router) {
				sr.Get("/", h.Dashboard.GetSnapshot)
				sr.Get("/admin", h.Dashboard.GetAdminSnapshot)
				sr.Get("/metrics", h.Dashboard.GetMetrics)
			})

			pr.Route("/realtime", func(sr chi.Router) {
				sr.Get("/dashboard", h.Realtime.StreamDashboard)
				sr.Get("/dashboard/admin", h.Realtime.StreamAdminDashboard)
			})
		})
	})
}
