package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/tasksync/internal/application/services"
	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/ports"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// CreateTask godoc
// @Summary Create a task
// @Description Guests are limited by the guest task quota
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body ports.CreateTaskRequest true "Task data"
// @Success 201 {object} ports.TaskDetails
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.Create(c.Request().Context(), actorFrom(c), req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, echo.Map{"task": task})
}

// ListTasks godoc
// @Summary List tasks
// @Tags tasks
// @Produce json
// @Param date query string false "Calendar day (YYYY-MM-DD)"
// @Param status query string false "Status filter"
// @Param category query string false "Category filter"
// @Param priority query string false "Priority filter"
// @Param search query string false "Search in text and description"
// @Param sortBy query string false "createdAt, deadline, priority, progress or text"
// @Param sortOrder query string false "asc or desc"
// @Param includeArchived query bool false "Include archived tasks"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {array} ports.TaskDetails
// @Security BearerAuth
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	filter, err := taskFilter(c)
	if err != nil {
		return err
	}
	page, limit := pagination(c, 0)

	result, err := h.taskService.List(c.Request().Context(), filter, page, limit)
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

func taskFilter(c echo.Context) (ports.TaskFilter, error) {
	filter := ports.TaskFilter{
		Date:      optionalQuery(c, "date"),
		Category:  optionalQuery(c, "category"),
		Search:    optionalQuery(c, "search"),
		SortBy:    c.QueryParam("sortBy"),
		SortOrder: c.QueryParam("sortOrder"),
	}
	if filter.Date != nil && !entities.IsCalendarDate(*filter.Date) {
		return filter, entities.NewValidationError("Date must be a calendar day (YYYY-MM-DD)")
	}
	if v := optionalQuery(c, "status"); v != nil {
		status := entities.TaskStatus(*v)
		if !status.IsValid() {
			return filter, entities.ErrInvalidStatus
		}
		filter.Status = &status
	}
	if v := optionalQuery(c, "priority"); v != nil {
		priority := entities.Priority(*v)
		if !priority.IsValid() {
			return filter, entities.NewValidationError("Priority must be one of low, medium, high, urgent")
		}
		filter.Priority = &priority
	}
	if filter.SortBy != "" {
		if _, known := ports.TaskSortFields[filter.SortBy]; !known {
			return filter, entities.NewValidationError("Unknown sort field: " + filter.SortBy)
		}
	}
	filter.IncludeArchived, _ = strconv.ParseBool(c.QueryParam("includeArchived"))
	return filter, nil
}

// GetTask godoc
// @Summary Get a task with its comments and files
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} ports.TaskDetails
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	task, err := h.taskService.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"task": task})
}

// UpdateTask godoc
// @Summary Update task fields
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body ports.UpdateTaskRequest true "Fields to change"
// @Success 200 {object} entities.Task
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [put]
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req ports.UpdateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.Update(c.Request().Context(), actorFrom(c), id, req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"task": task})
}

// DeleteTask godoc
// @Summary Delete a task with its comments and files
// @Tags tasks
// @Param id path string true "Task ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.taskService.Delete(c.Request().Context(), actorFrom(c), id); err != nil {
		return err
	}
	return message(c, "Task deleted successfully")
}

// UpdateProgress godoc
// @Summary Set manual progress
// @Description Reaching 100 completes the task. Tasks with sub-tasks derive their progress.
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body ports.ProgressRequest true "Progress"
// @Success 200 {object} entities.Task
// @Failure 422 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id}/progress [patch]
func (h *TaskHandler) UpdateProgress(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req ports.ProgressRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	task, err := h.taskService.UpdateProgress(c.Request().Context(), actorFrom(c), id, *req.Progress)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"task": task})
}

// ChangeStatus godoc
// @Summary Change task status
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body ports.StatusRequest true "Status"
// @Success 200 {object} entities.Task
// @Failure 422 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id}/status [patch]
func (h *TaskHandler) ChangeStatus(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req ports.StatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	task, err := h.taskService.ChangeStatus(c.Request().Context(), actorFrom(c), id, req.Status)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"task": task})
}

// ExtendDeadline godoc
// @Summary Extend the deadline
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body ports.ExtendDeadlineRequest true "Extension"
// @Success 200 {object} entities.Task
// @Failure 422 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id}/extend-deadline [post]
func (h *TaskHandler) ExtendDeadline(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req ports.ExtendDeadlineRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	task, ext, err := h.taskService.ExtendDeadline(c.Request().Context(), actorFrom(c), id, req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"task": task, "extension": ext})
}

func (h *TaskHandler) AddSubTask(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req ports.SubTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	task, st, err := h.taskService.AddSubTask(c.Request().Context(), actorFrom(c), id, req.Text)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, echo.Map{"task": task, "subTask": st})
}

func (h *TaskHandler) CompleteSubTask(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	subTaskID, err := uuidParam(c, "subTaskId")
	if err != nil {
		return err
	}

	task, st, err := h.taskService.CompleteSubTask(c.Request().Context(), actorFrom(c), id, subTaskID)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"task": task, "subTask": st})
}

func (h *TaskHandler) Categories(c echo.Context) error {
	categories, err := h.taskService.Categories(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"categories": categories})
}

func (h *TaskHandler) Overdue(c echo.Context) error {
	tasks, err := h.taskService.Overdue(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"tasks": tasks, "count": len(tasks)})
}
