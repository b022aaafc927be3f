package server

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	httpHandlers "github.com/taskmaster/tasksync/internal/adapters/http"
	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/ports"
)

const authErrorKey = "auth_error"

// maintenanceExempt stays reachable while maintenance mode is on so admins
// can log in and clients can read the maintenance message.
var maintenanceExempt = map[string]bool{
	"/api/v1/auth/login":      true,
	"/api/v1/auth/me":         true,
	"/api/v1/settings/public": true,
}

// requestMeta copies the caller's address and user agent into the request
// context for the activity log.
func (s *Server) requestMeta(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := ports.WithRequestMeta(req.Context(), ports.RequestMeta{
			IPAddress: c.RealIP(),
			UserAgent: req.UserAgent(),
		})
		c.SetRequest(req.WithContext(ctx))
		return next(c)
	}
}

// observe records request count and latency by route.
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if err != nil {
			if de, ok := entities.AsDomainError(err); ok {
				status = httpHandlers.StatusFor(de.Kind)
			} else if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
		}
		path := c.Path()
		if path == "" {
			path = "unmatched"
		}
		s.metrics.ObserveRequest(c.Request().Method, path, status, time.Since(start))
		return err
	}
}

// identify resolves an optional bearer token. Failures are kept for
// requireAuth so public routes still serve anonymous callers.
func (s *Server) identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return next(c)
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || token == "" {
			c.Set(authErrorKey, entities.ErrUnauthenticated)
			return next(c)
		}

		user, err := s.services.Auth.Authenticate(c.Request().Context(), token)
		if err != nil {
			if entities.KindOf(err) == entities.KindUnauthenticated {
				s.logger.LogSecurityEvent("invalid_token", "", c.RealIP(), map[string]interface{}{
					"path": c.Request().URL.Path,
				})
			}
			c.Set(authErrorKey, err)
			return next(c)
		}

		c.Set(httpHandlers.ContextUserKey, user)
		return next(c)
	}
}

func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if httpHandlers.CurrentUser(c) != nil {
			return next(c)
		}
		if err, ok := c.Get(authErrorKey).(error); ok {
			return err
		}
		return entities.ErrUnauthenticated
	}
}

func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := httpHandlers.CurrentUser(c)
		if user != nil && user.Role == entities.UserRoleAdmin {
			return next(c)
		}

		userID := ""
		role := ""
		if user != nil {
			userID = user.ID.String()
			role = string(user.Role)
		}
		s.logger.LogSecurityEvent("insufficient_permissions", userID, c.RealIP(), map[string]interface{}{
			"required_role": entities.UserRoleAdmin,
			"user_role":     role,
			"endpoint":      c.Request().URL.Path,
		})
		return entities.ErrAdminRequired
	}
}

// maintenance rejects non-admin traffic while maintenance mode is on.
func (s *Server) maintenance(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if maintenanceExempt[c.Path()] {
			return next(c)
		}
		if user := httpHandlers.CurrentUser(c); user != nil && user.Role == entities.UserRoleAdmin {
			return next(c)
		}

		settings, err := s.services.Settings.Get(c.Request().Context())
		if err != nil {
			return err
		}
		if !settings.Maintenance.Enabled {
			return next(c)
		}
		msg := strings.TrimSpace(settings.Maintenance.Message)
		if msg == "" {
			return entities.ErrMaintenance
		}
		return &entities.DomainError{Kind: entities.KindUnavailable, Message: msg}
	}
}
