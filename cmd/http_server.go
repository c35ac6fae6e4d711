package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/petaprogress/peta-progress/internal"
	"github.com/petaprogress/peta-progress/internal/allotment"
	allotmentpg "github.com/petaprogress/peta-progress/internal/allotment/postgres"
	"github.com/petaprogress/peta-progress/internal/auth"
	authpg "github.com/petaprogress/peta-progress/internal/auth/postgres"
	"github.com/petaprogress/peta-progress/internal/dailylog"
	dailylogpg "github.com/petaprogress/peta-progress/internal/dailylog/postgres"
	"github.com/petaprogress/peta-progress/internal/dashboard"
	dashboardpg "github.com/petaprogress/peta-progress/internal/dashboard/postgres"
	"github.com/petaprogress/peta-progress/internal/joinrequest"
	joinrequestpg "github.com/petaprogress/peta-progress/internal/joinrequest/postgres"
	"github.com/petaprogress/peta-progress/internal/organization"
	organizationpg "github.com/petaprogress/peta-progress/internal/organization/postgres"
	"github.com/petaprogress/peta-progress/internal/profile"
	profilepg "github.com/petaprogress/peta-progress/internal/profile/postgres"
	"github.com/petaprogress/peta-progress/internal/realtime"
	"github.com/petaprogress/peta-progress/internal/realtime/stream"
	"github.com/petaprogress/peta-progress/internal/task"
	taskpg "github.com/petaprogress/peta-progress/internal/task/postgres"
	"github.com/petaprogress/peta-progress/internal/transport/rest"
	"github.com/petaprogress/peta-progress/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Router   *chi.Mux
	Handlers rest.Handlers
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.Handlers, deps.Config.Server.AllowedOrigins, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		// WriteTimeout stays unset: the SSE dashboard stream is a
		// long-lived response and a server-wide write deadline would
		// sever it.
		IdleTimeout: deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down...", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	handlers := buildHandlers(config, gormDB, lg)

	return &Dependencies{
		Config:   config,
		Logger:   lg,
		DB:       db,
		Router:   chi.NewRouter(),
		Handlers: handlers,
	}, nil
}

// buildHandlers wires repositories into services and services into
// handlers. Cross-module needs go through the narrow interfaces each
// consumer declares, all satisfied by the concrete services.
func buildHandlers(config *internal.Config, gormDB *gorm.DB, lg *slog.Logger) rest.Handlers {
	hub := realtime.NewHub(lg)

	profileRepo := profilepg.NewProfileRepository(gormDB)
	orgRepo := organizationpg.NewOrganizationRepository(gormDB)
	credentialRepo := authpg.NewCredentialRepository(gormDB)
	sessionRepo := authpg.NewSessionRepository(gormDB)
	joinRequestRepo := joinrequestpg.NewJoinRequestRepository(gormDB)
	allotmentRepo := allotmentpg.NewAllotmentRepository(gormDB)
	taskRepo := taskpg.NewTaskRepository(gormDB)
	dailyLogRepo := dailylogpg.NewDailyLogRepository(gormDB)
	dashboardRepo := dashboardpg.NewDashboardRepository(gormDB)

	profileService := profile.NewService(profileRepo, hub, lg)
	orgService := organization.NewService(orgRepo, profileService, lg)

	tokens := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(
		credentialRepo,
		sessionRepo,
		profileService,
		orgService,
		tokens,
		hub,
		config.Security.BCryptCost,
		lg,
	)

	joinRequestService := joinrequest.NewService(joinRequestRepo, profileService, hub, lg)
	allotmentService := allotment.NewService(allotmentRepo, profileService, hub, lg)
	taskService := task.NewService(taskRepo, profileService, hub, lg)
	dailyLogService := dailylog.NewService(dailyLogRepo, taskService, hub, lg)
	dashboardService := dashboard.NewService(dashboardRepo, profileService, lg)

	return rest.Handlers{
		Auth:         auth.NewHandler(authService),
		Profile:      profile.NewHandler(profileService),
		Organization: organization.NewHandler(orgService),
		JoinRequest:  joinrequest.NewHandler(joinRequestService),
		Allotment:    allotment.NewHandler(allotmentService),
		Task:         task.NewHandler(taskService),
		DailyLog:     dailylog.NewHandler(dailyLogService),
		Dashboard:    dashboard.NewHandler(dashboardService),
		Realtime:     stream.NewHandler(hub, dashboardService, profileService),
	}
}

func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
