package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/infrastructure/logger"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind entities.ErrorKind
		want int
	}{
		{entities.KindValidation, http.StatusBadRequest},
		{entities.KindUnauthenticated, http.StatusUnauthorized},
		{entities.KindForbidden, http.StatusForbidden},
		{entities.KindQuotaExceeded, http.StatusForbidden},
		{entities.KindNotFound, http.StatusNotFound},
		{entities.KindConflict, http.StatusConflict},
		{entities.KindInvalidTransition, http.StatusUnprocessableEntity},
		{entities.KindNoDeadline, http.StatusUnprocessableEntity},
		{entities.KindUnavailable, http.StatusServiceUnavailable},
		{entities.ErrorKind("mystery"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := StatusFor(tt.kind); got != tt.want {
				t.Errorf("StatusFor(%s) = %d, want %d", tt.kind, got, tt.want)
			}
		})
	}
}

func TestErrorHandler(t *testing.T) {
	quota := &entities.DomainError{
		Kind:                 entities.KindQuotaExceeded,
		Message:              "Guest users can only create 1 task",
		RequiresRegistration: true,
	}
	invalid := &entities.DomainError{
		Kind:    entities.KindValidation,
		Message: "Validation failed",
		Fields:  []entities.FieldError{{Field: "email", Message: "must be a valid email"}},
	}

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
		check       func(t *testing.T, resp ErrorResponse)
	}{
		{
			name:        "quota",
			err:         quota,
			wantStatus:  http.StatusForbidden,
			wantMessage: quota.Message,
			check: func(t *testing.T, resp ErrorResponse) {
				if !resp.RequiresRegistration {
					t.Error("requiresRegistration not set")
				}
			},
		},
		{
			name:        "wrapped validation",
			err:         errors.Join(errors.New("context"), invalid),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Validation failed",
			check: func(t *testing.T, resp ErrorResponse) {
				if len(resp.Errors) != 1 || resp.Errors[0].Field != "email" {
					t.Errorf("errors = %+v", resp.Errors)
				}
			},
		},
		{
			name:        "echo error",
			err:         echo.NewHTTPError(http.StatusTooManyRequests, "Rate limit exceeded"),
			wantStatus:  http.StatusTooManyRequests,
			wantMessage: "Rate limit exceeded",
		},
		{
			name:        "echo not found",
			err:         echo.ErrNotFound,
			wantStatus:  http.StatusNotFound,
			wantMessage: http.StatusText(http.StatusNotFound),
		},
		{
			name:        "unexpected",
			err:         errors.New("pq: connection refused"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Internal server error",
		},
	}

	handler := ErrorHandler(logger.NewNop())
	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			handler(tt.err, c)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode %q: %v", rec.Body.String(), err)
			}
			if resp.Success || resp.Message != tt.wantMessage {
				t.Errorf("response = %+v", resp)
			}
			if tt.check != nil {
				tt.check(t, resp)
			}
		})
	}
}

func TestErrorHandlerHead(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodHead, "/", nil), rec)

	ErrorHandler(logger.NewNop())(entities.ErrUnauthenticated, c)
	if rec.Code != http.StatusUnauthorized || rec.Body.Len() != 0 {
		t.Errorf("HEAD = %d with %d body bytes", rec.Code, rec.Body.Len())
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query     string
		wantPage  int
		wantLimit int
	}{
		{"", 1, defaultPageSize},
		{"?page=3&limit=5", 3, 5},
		{"?page=-1&limit=0", 1, defaultPageSize},
		{"?limit=1000", 1, maxPageSize},
	}
	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil), httptest.NewRecorder())
			page, limit := pagination(c, defaultPageSize)
			if page != tt.wantPage || limit != tt.wantLimit {
				t.Errorf("pagination = %d/%d, want %d/%d", page, limit, tt.wantPage, tt.wantLimit)
			}
		})
	}
}

func TestActorFromAnonymous(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(GuestNameHeader, "  Visitor ")
	c := e.NewContext(req, httptest.NewRecorder())

	actor := actorFrom(c)
	if actor.Name != "Visitor" || actor.ID.String() != "00000000-0000-0000-0000-000000000000" {
		t.Errorf("actor = %+v", actor)
	}
}
