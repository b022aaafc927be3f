package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/tasksync/internal/application/services"
	"github.com/taskmaster/tasksync/internal/ports"
)

// CommentHandler handles task comments
type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// AddComment godoc
// @Summary Comment on a task
// @Description Guests are limited by the guest comment quota
// @Tags comments
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body ports.CommentRequest true "Comment"
// @Success 201 {object} entities.Comment
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id}/comments [post]
func (h *CommentHandler) AddComment(c echo.Context) error {
	taskID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req ports.CommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	comment, err := h.commentService.Add(c.Request().Context(), actorFrom(c), taskID, req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, echo.Map{"comment": comment})
}

// DeleteComment godoc
// @Summary Delete a comment
// @Description Only the author or an admin may delete a comment
// @Tags comments
// @Param id path string true "Task ID"
// @Param commentId path string true "Comment ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id}/comments/{commentId} [delete]
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	taskID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	commentID, err := uuidParam(c, "commentId")
	if err != nil {
		return err
	}

	if err := h.commentService.Delete(c.Request().Context(), actorFrom(c), taskID, commentID); err != nil {
		return err
	}
	return message(c, "Comment deleted successfully")
}
