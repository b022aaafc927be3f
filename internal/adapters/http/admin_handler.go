package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskmaster/tasksync/internal/application/services"
	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/ports"
)

// AdminHandler serves the admin dashboard. Routes are mounted behind the
// admin role check.
type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// ListUsers godoc
// @Summary List users
// @Tags admin
// @Produce json
// @Param search query string false "Name or email"
// @Param role query string false "user or admin"
// @Param status query string false "active, suspended or inactive"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {array} entities.User
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	filter := ports.UserFilter{
		Search: optionalQuery(c, "search"),
		Status: c.QueryParam("status"),
	}
	if v := optionalQuery(c, "role"); v != nil {
		role := entities.UserRole(*v)
		if !role.IsValid() {
			return entities.NewValidationError("Role must be user or admin")
		}
		filter.Role = &role
	}
	switch filter.Status {
	case "", "active", "suspended", "inactive":
	default:
		return entities.NewValidationError("Status must be active, suspended or inactive")
	}
	page, limit := pagination(c, defaultPageSize)

	result, err := h.adminService.ListUsers(c.Request().Context(), filter, page, limit)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{
		"users":       result.Items,
		"total":       result.Total,
		"currentPage": result.CurrentPage,
		"totalPages":  result.TotalPages,
	})
}

func (h *AdminHandler) ChangeRole(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req ports.ChangeRoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.adminService.ChangeRole(c.Request().Context(), actorFrom(c), id, req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"user": user})
}

func (h *AdminHandler) Suspend(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	user, err := h.adminService.Suspend(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"user": user})
}

func (h *AdminHandler) Activate(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	user, err := h.adminService.Activate(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"user": user})
}

func (h *AdminHandler) ListTasks(c echo.Context) error {
	filter, err := taskFilter(c)
	if err != nil {
		return err
	}
	if v := optionalQuery(c, "userId"); v != nil {
		id, err := uuid.Parse(*v)
		if err != nil {
			return entities.NewValidationError("Invalid userId")
		}
		filter.CreatedBy = &id
	}
	page, limit := pagination(c, defaultPageSize)

	result, err := h.adminService.ListTasks(c.Request().Context(), filter, page, limit)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{
		"tasks":       result.Items,
		"total":       result.Total,
		"currentPage": result.CurrentPage,
		"totalPages":  result.TotalPages,
	})
}

func (h *AdminHandler) ArchiveTask(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	task, err := h.adminService.ArchiveTask(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"task": task})
}

// ListActivity godoc
// @Summary List activity logs
// @Tags admin
// @Produce json
// @Param userId query string false "Actor"
// @Param action query string false "Action"
// @Param startDate query string false "RFC 3339 or YYYY-MM-DD"
// @Param endDate query string false "RFC 3339 or YYYY-MM-DD"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {array} entities.ActivityLog
// @Security BearerAuth
// @Router /admin/activity-logs [get]
func (h *AdminHandler) ListActivity(c echo.Context) error {
	var filter ports.ActivityFilter
	if v := optionalQuery(c, "userId"); v != nil {
		id, err := uuid.Parse(*v)
		if err != nil {
			return entities.NewValidationError("Invalid userId")
		}
		filter.UserID = &id
	}
	if v := optionalQuery(c, "action"); v != nil {
		action := entities.ActivityAction(*v)
		if !action.IsValid() {
			return entities.NewValidationError("Unknown action: " + *v)
		}
		filter.Action = &action
	}
	var err error
	if filter.StartDate, err = timeQuery(c, "startDate", false); err != nil {
		return err
	}
	if filter.EndDate, err = timeQuery(c, "endDate", true); err != nil {
		return err
	}
	page, limit := pagination(c, 50)

	result, err := h.adminService.ListActivity(c.Request().Context(), filter, page, limit)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{
		"logs":        result.Items,
		"total":       result.Total,
		"currentPage": result.CurrentPage,
		"totalPages":  result.TotalPages,
	})
}

// timeQuery parses an RFC 3339 timestamp or a calendar day. A day used as
// an upper bound covers the whole day.
func timeQuery(c echo.Context, name string, endOfDay bool) (*time.Time, error) {
	v := optionalQuery(c, name)
	if v == nil {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, *v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, *v)
	if err != nil {
		return nil, entities.NewValidationError("Invalid " + name)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func (h *AdminHandler) GetSettings(c echo.Context) error {
	settings, err := h.adminService.GetSettings(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"settings": settings})
}

// UpdateSettings godoc
// @Summary Update application settings
// @Tags admin
// @Accept json
// @Produce json
// @Param request body ports.UpdateSettingsRequest true "Sections to replace"
// @Success 200 {object} entities.AppSettings
// @Security BearerAuth
// @Router /admin/settings [put]
func (h *AdminHandler) UpdateSettings(c echo.Context) error {
	var req ports.UpdateSettingsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	settings, err := h.adminService.UpdateSettings(c.Request().Context(), actorFrom(c), req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"settings": settings})
}

func (h *AdminHandler) Stats(c echo.Context) error {
	stats, err := h.adminService.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"stats": stats})
}

// SettingsHandler serves the public settings
type SettingsHandler struct {
	settingsService *services.SettingsService
}

func NewSettingsHandler(settingsService *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// Public godoc
// @Summary Public application settings
// @Tags settings
// @Produce json
// @Success 200 {object} entities.PublicSettings
// @Router /settings/public [get]
func (h *SettingsHandler) Public(c echo.Context) error {
	settings, err := h.settingsService.Public(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"settings": settings})
}

