package http

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskmaster/tasksync/internal/domain/entities"
)

// ContextUserKey holds the authenticated *entities.User in echo.Context.
const ContextUserKey = "user"

// GuestNameHeader names anonymous share-link visitors.
const GuestNameHeader = "X-Guest-Name"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(c echo.Context) *entities.User {
	u, _ := c.Get(ContextUserKey).(*entities.User)
	return u
}

// actorFrom returns the actor of the request. Anonymous visitors are named
// by the guest name header, if any.
func actorFrom(c echo.Context) entities.Actor {
	if u := CurrentUser(c); u != nil {
		return entities.ActorFromUser(u)
	}
	name := strings.TrimSpace(c.Request().Header.Get(GuestNameHeader))
	if name == "" {
		name = strings.TrimSpace(c.QueryParam("guestName"))
	}
	if len(name) > entities.MaxUserNameLength {
		name = name[:entities.MaxUserNameLength]
	}
	return entities.Actor{Name: name}
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, entities.NewValidationError("Invalid " + name)
	}
	return id, nil
}

// pagination reads page and limit. A zero fallback limit means no limit.
func pagination(c echo.Context, fallback int) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit = fallback
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 {
		limit = min(l, maxPageSize)
	}
	return page, limit
}

func optionalQuery(c echo.Context, name string) *string {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil
	}
	return &v
}

// bind decodes the body into req.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return entities.NewValidationError("Invalid request format")
	}
	return nil
}
