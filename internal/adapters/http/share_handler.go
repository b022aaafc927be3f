package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/tasksync/internal/application/services"
	"github.com/taskmaster/tasksync/internal/ports"
)

// ShareHandler handles share links and the operations they grant
type ShareHandler struct {
	shareService *services.ShareService
}

func NewShareHandler(shareService *services.ShareService) *ShareHandler {
	return &ShareHandler{shareService: shareService}
}

// CreateLink godoc
// @Summary Create or update the share link of a task
// @Tags share
// @Accept json
// @Produce json
// @Param request body ports.ShareLinkRequest true "Link settings"
// @Success 200 {object} ports.ShareLinkView
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /share [post]
func (h *ShareHandler) CreateLink(c echo.Context) error {
	var req ports.ShareLinkRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	link, err := h.shareService.CreateOrUpdate(c.Request().Context(), actorFrom(c), req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"shareLink": link})
}

// Invite godoc
// @Summary Invite emails to a shared task
// @Tags share
// @Accept json
// @Produce json
// @Param request body ports.InviteRequest true "Invitations"
// @Success 200 {object} ports.ShareLinkView
// @Security BearerAuth
// @Router /share/invite [post]
func (h *ShareHandler) Invite(c echo.Context) error {
	var req ports.InviteRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	link, err := h.shareService.Invite(c.Request().Context(), actorFrom(c), req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"shareLink": link})
}

func (h *ShareHandler) GetForTask(c echo.Context) error {
	taskID, err := uuidParam(c, "taskId")
	if err != nil {
		return err
	}
	link, err := h.shareService.GetForTask(c.Request().Context(), actorFrom(c), taskID)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"shareLink": link})
}

func (h *ShareHandler) Deactivate(c echo.Context) error {
	if err := h.shareService.Deactivate(c.Request().Context(), actorFrom(c), c.Param("token")); err != nil {
		return err
	}
	return message(c, "Share link deactivated")
}

// Access godoc
// @Summary Open a shared task
// @Description Counts as one access. Works without authentication.
// @Tags share
// @Produce json
// @Param token path string true "Share token"
// @Param guestName query string false "Visitor name"
// @Success 200 {object} ports.SharedTaskView
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /share/{token} [get]
func (h *ShareHandler) Access(c echo.Context) error {
	view, err := h.shareService.Access(c.Request().Context(), actorFrom(c), c.Param("token"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{
		"task":        view.Task,
		"permissions": view.Permissions,
		"isOwner":     view.IsOwner,
	})
}

func (h *ShareHandler) Comment(c echo.Context) error {
	var req ports.CommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	actor := actorFrom(c)
	if actor.IsAnonymous() && req.Name == "" {
		req.Name = actor.Name
	}
	comment, err := h.shareService.Comment(c.Request().Context(), actor, c.Param("token"), req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, echo.Map{"comment": comment})
}

func (h *ShareHandler) UpdateProgress(c echo.Context) error {
	var req ports.ProgressRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	task, err := h.shareService.UpdateProgress(c.Request().Context(), actorFrom(c), c.Param("token"), *req.Progress)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"task": task})
}

func (h *ShareHandler) Edit(c echo.Context) error {
	var req ports.UpdateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	task, err := h.shareService.Edit(c.Request().Context(), actorFrom(c), c.Param("token"), req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"task": task})
}

func (h *ShareHandler) AddSubTask(c echo.Context) error {
	var req ports.SubTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	task, st, err := h.shareService.AddSubTask(c.Request().Context(), actorFrom(c), c.Param("token"), req.Text)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, echo.Map{"task": task, "subTask": st})
}

func (h *ShareHandler) CompleteSubTask(c echo.Context) error {
	subTaskID, err := uuidParam(c, "subTaskId")
	if err != nil {
		return err
	}
	task, st, err := h.shareService.CompleteSubTask(c.Request().Context(), actorFrom(c), c.Param("token"), subTaskID)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"task": task, "subTask": st})
}

func (h *ShareHandler) UploadFile(c echo.Context) error {
	up, src, err := readUpload(c)
	if err != nil {
		return err
	}
	defer src.Close()

	file, err := h.shareService.UploadFile(c.Request().Context(), actorFrom(c), c.Param("token"), up)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, echo.Map{"file": file})
}
