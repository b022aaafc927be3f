package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/taskmaster/tasksync/docs"
	httpHandlers "github.com/taskmaster/tasksync/internal/adapters/http"
	"github.com/taskmaster/tasksync/internal/application/services"
	"github.com/taskmaster/tasksync/internal/application/validation"
	"github.com/taskmaster/tasksync/internal/infrastructure/config"
	"github.com/taskmaster/tasksync/internal/infrastructure/logger"
	"github.com/taskmaster/tasksync/internal/infrastructure/metrics"
	"github.com/taskmaster/tasksync/internal/realtime"
)

// Services are the application services the HTTP API exposes.
type Services struct {
	Auth     *services.AuthService
	Tasks    *services.TaskService
	Comments *services.CommentService
	Files    *services.FileService
	Shares   *services.ShareService
	Admin    *services.AdminService
	Settings *services.SettingsService
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Options configures New.
type Options struct {
	Config    *config.Config
	Logger    *logger.Logger
	Metrics   *metrics.Metrics
	Validator *validation.Validator
	Services  Services
	// Realtime serves /ws. Nil disables the push channel route.
	Realtime *realtime.Handler
	Hub      *realtime.Hub
	Checks   map[string]HealthCheck
}

// Server represents the HTTP server
type Server struct {
	echo     *echo.Echo
	config   *config.Config
	logger   *logger.Logger
	metrics  *metrics.Metrics
	services Services
	hub      *realtime.Hub
	checks   map[string]HealthCheck
	started  time.Time
}

// New creates a new server instance
func New(opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpHandlers.NewCustomValidator(opts.Validator)
	e.HTTPErrorHandler = httpHandlers.ErrorHandler(opts.Logger)

	s := &Server{
		echo:     e,
		config:   opts.Config,
		logger:   opts.Logger.WithComponent("http"),
		metrics:  opts.Metrics,
		services: opts.Services,
		hub:      opts.Hub,
		checks:   opts.Checks,
		started:  time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes(opts.Realtime)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) setupMiddleware() {
	cfg := s.config

	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			log := s.logger.WithRequestID(values.RequestID)
			latency := float64(values.Latency.Nanoseconds()) / 1000000

			if values.Status >= http.StatusInternalServerError {
				if values.Error != nil {
					log = log.WithError(values.Error)
				}
				log.Errorw("HTTP request failed",
					"method", values.Method,
					"uri", values.URI,
					"status", values.Status,
					"latency_ms", latency,
					"remote_ip", values.RemoteIP,
				)
				return nil
			}
			log.LogHTTPRequest(values.Method, values.URI, values.UserAgent, values.RemoteIP, values.Status, latency)
			return nil
		},
	}))

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: splitOrigins(cfg.Security.CORSAllowedOrigins),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, httpHandlers.GuestNameHeader},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))

	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
	}))

	if cfg.Security.RateLimitRPS > 0 {
		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: isWebsocket,
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.Security.RateLimitRPS),
				Burst:     cfg.Security.RateLimitBurst,
				ExpiresIn: 3 * time.Minute,
			}),
			IdentifierExtractor: func(c echo.Context) (string, error) {
				return c.RealIP(), nil
			},
			ErrorHandler: func(c echo.Context, err error) error {
				return echo.NewHTTPError(http.StatusForbidden, "Rate limit exceeded")
			},
			DenyHandler: func(c echo.Context, identifier string, err error) error {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Rate limit exceeded")
			},
		}))
	}

	if cfg.Server.BodyLimit != "" {
		s.echo.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}

	if cfg.Server.RequestTimeout > 0 {
		s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Skipper: isWebsocket,
			Timeout: cfg.Server.RequestTimeout,
		}))
	}

	if cfg.Metrics.Enabled {
		s.echo.Use(s.observe)
	}
	s.echo.Use(s.requestMeta)
}

func (s *Server) setupRoutes(ws *realtime.Handler) {
	h := s.services

	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/ready", s.readinessCheck)
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)
	if s.config.Metrics.Enabled {
		s.echo.GET(s.config.Metrics.Path, echo.WrapHandler(s.metrics.Handler()))
	}
	if ws != nil {
		s.echo.GET("/ws", ws.Handle)
	}

	authHandler := httpHandlers.NewAuthHandler(h.Auth)
	taskHandler := httpHandlers.NewTaskHandler(h.Tasks)
	commentHandler := httpHandlers.NewCommentHandler(h.Comments)
	fileHandler := httpHandlers.NewFileHandler(h.Files)
	shareHandler := httpHandlers.NewShareHandler(h.Shares)
	adminHandler := httpHandlers.NewAdminHandler(h.Admin)
	settingsHandler := httpHandlers.NewSettingsHandler(h.Settings)

	v1 := s.echo.Group("/api/v1", s.identify, s.maintenance)
	auth := s.requireAuth

	v1.GET("/settings/public", settingsHandler.Public)

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/guest", authHandler.Guest)
	authGroup.POST("/convert-guest", authHandler.ConvertGuest, auth)
	authGroup.GET("/me", authHandler.Me, auth)
	authGroup.POST("/logout", authHandler.Logout, auth)

	tasks := v1.Group("/tasks", auth)
	tasks.GET("", taskHandler.ListTasks)
	tasks.POST("", taskHandler.CreateTask)
	tasks.GET("/categories", taskHandler.Categories)
	tasks.GET("/overdue", taskHandler.Overdue)
	tasks.GET("/:id", taskHandler.GetTask)
	tasks.PUT("/:id", taskHandler.UpdateTask)
	tasks.DELETE("/:id", taskHandler.DeleteTask)
	tasks.PATCH("/:id/progress", taskHandler.UpdateProgress)
	tasks.PATCH("/:id/status", taskHandler.ChangeStatus)
	tasks.POST("/:id/extend-deadline", taskHandler.ExtendDeadline)
	tasks.POST("/:id/subtasks", taskHandler.AddSubTask)
	tasks.PATCH("/:id/subtasks/:subTaskId/complete", taskHandler.CompleteSubTask)
	tasks.POST("/:id/comments", commentHandler.AddComment)
	tasks.DELETE("/:id/comments/:commentId", commentHandler.DeleteComment)

	files := v1.Group("/files", auth)
	files.POST("/upload", fileHandler.Upload)
	files.GET("/task/:taskId", fileHandler.ListForTask)
	files.GET("/:id", fileHandler.Download)
	files.DELETE("/:id", fileHandler.Delete)

	share := v1.Group("/share")
	share.POST("", shareHandler.CreateLink, auth)
	share.POST("/invite", shareHandler.Invite, auth)
	share.GET("/task/:taskId", shareHandler.GetForTask, auth)
	share.DELETE("/:token", shareHandler.Deactivate, auth)
	share.GET("/:token", shareHandler.Access)
	share.POST("/:token/comments", shareHandler.Comment)
	share.PATCH("/:token/progress", shareHandler.UpdateProgress)
	share.PUT("/:token/task", shareHandler.Edit)
	share.POST("/:token/subtasks", shareHandler.AddSubTask)
	share.PATCH("/:token/subtasks/:subTaskId/complete", shareHandler.CompleteSubTask)
	share.POST("/:token/files", shareHandler.UploadFile)

	admin := v1.Group("/admin", auth, s.requireAdmin)
	admin.GET("/users", adminHandler.ListUsers)
	admin.PUT("/users/:id/role", adminHandler.ChangeRole)
	admin.POST("/users/:id/suspend", adminHandler.Suspend)
	admin.POST("/users/:id/activate", adminHandler.Activate)
	admin.GET("/tasks", adminHandler.ListTasks)
	admin.POST("/tasks/:id/archive", adminHandler.ArchiveTask)
	admin.GET("/activity-logs", adminHandler.ListActivity)
	admin.GET("/settings", adminHandler.GetSettings)
	admin.PUT("/settings", adminHandler.UpdateSettings)
	admin.GET("/stats", adminHandler.Stats)
}

func (s *Server) healthCheck(c echo.Context) error {
	resp := echo.Map{
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"version": s.config.App.Version,
	}
	if s.hub != nil {
		resp["sessions"] = s.hub.SessionCount()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) readinessCheck(c echo.Context) error {
	status := http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(c.Request().Context()); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	ready := "ready"
	if status != http.StatusOK {
		ready = "not_ready"
	}
	return c.JSON(status, echo.Map{"status": ready, "checks": checks})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         s.address(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}
	s.logger.Infow("Starting server", "address", srv.Addr)
	return s.echo.StartServer(srv)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	return s.echo.Shutdown(ctx)
}

func (s *Server) address() string {
	return net.JoinHostPort(s.config.Server.Host, strconv.Itoa(s.config.Server.Port))
}

func splitOrigins(v string) []string {
	var origins []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func isWebsocket(c echo.Context) bool {
	return c.Path() == "/ws" || strings.EqualFold(c.Request().Header.Get(echo.HeaderUpgrade), "websocket")
}
