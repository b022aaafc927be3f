package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/tasksync/internal/application/services"
	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/ports"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register godoc
// @Summary Register a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.RegisterRequest true "Account data"
// @Success 201 {object} ports.AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req ports.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return authResponse(c, http.StatusCreated, resp)
}

// Login godoc
// @Summary Log in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.LoginRequest true "Credentials"
// @Success 200 {object} ports.AuthResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return authResponse(c, http.StatusOK, resp)
}

// Guest godoc
// @Summary Join as a guest
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.GuestRequest false "Optional display name"
// @Success 201 {object} ports.AuthResponse
// @Failure 403 {object} ErrorResponse
// @Router /auth/guest [post]
func (h *AuthHandler) Guest(c echo.Context) error {
	var req ports.GuestRequest
	if c.Request().ContentLength > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}

	resp, err := h.authService.JoinGuest(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, echo.Map{
		"token":       resp.Token,
		"expiresIn":   resp.ExpiresIn,
		"user":        resp.User,
		"guestLimits": resp.User.GuestLimits,
	})
}

// ConvertGuest godoc
// @Summary Convert the current guest into a registered account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.ConvertGuestRequest true "Credentials"
// @Success 200 {object} ports.AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /auth/convert-guest [post]
func (h *AuthHandler) ConvertGuest(c echo.Context) error {
	var req ports.ConvertGuestRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.ConvertGuest(c.Request().Context(), actorFrom(c), req)
	if err != nil {
		return err
	}
	return authResponse(c, http.StatusOK, resp)
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} entities.User
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user := CurrentUser(c)
	if user == nil {
		return entities.ErrUnauthenticated
	}
	return ok(c, http.StatusOK, echo.Map{"user": user})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	h.authService.Logout(c.Request().Context(), actorFrom(c))
	return message(c, "Logged out successfully")
}

func authResponse(c echo.Context, status int, resp *ports.AuthResponse) error {
	return ok(c, status, echo.Map{
		"token":     resp.Token,
		"expiresIn": resp.ExpiresIn,
		"user":      resp.User,
	})
}
