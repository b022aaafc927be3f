package http

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskmaster/tasksync/internal/application/services"
	"github.com/taskmaster/tasksync/internal/domain/entities"
)

// FileHandler handles attachments
type FileHandler struct {
	fileService *services.FileService
}

func NewFileHandler(fileService *services.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

// readUpload extracts the multipart file and the optional commentId field.
func readUpload(c echo.Context) (services.Upload, multipart.File, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return services.Upload{}, nil, entities.NewValidationError("No file uploaded")
	}
	src, err := header.Open()
	if err != nil {
		return services.Upload{}, nil, entities.NewValidationError("Failed to read uploaded file")
	}

	up := services.Upload{Name: header.Filename, Size: header.Size, Content: src}
	if v := strings.TrimSpace(c.FormValue("commentId")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			_ = src.Close()
			return services.Upload{}, nil, entities.NewValidationError("Invalid commentId")
		}
		up.CommentID = &id
	}
	return up, src, nil
}

// Upload godoc
// @Summary Upload a file to a task
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Param taskId formData string true "Task ID"
// @Param commentId formData string false "Comment ID"
// @Param file formData file true "File"
// @Success 201 {object} entities.File
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /files/upload [post]
func (h *FileHandler) Upload(c echo.Context) error {
	taskID, err := uuid.Parse(c.FormValue("taskId"))
	if err != nil {
		return entities.NewValidationError("Invalid taskId")
	}
	up, src, err := readUpload(c)
	if err != nil {
		return err
	}
	defer src.Close()
	up.TaskID = taskID

	file, err := h.fileService.Upload(c.Request().Context(), actorFrom(c), up)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, echo.Map{"file": file})
}

// Download godoc
// @Summary Download a file
// @Tags files
// @Produce octet-stream
// @Param id path string true "File ID"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /files/{id} [get]
func (h *FileHandler) Download(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	file, blob, err := h.fileService.Download(c.Request().Context(), id)
	if err != nil {
		return err
	}
	defer blob.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, mimeAttachment(file.OriginalName))
	c.Response().Header().Set(echo.HeaderContentType, file.MimeType)
	http.ServeContent(c.Response(), c.Request(), file.OriginalName, file.CreatedAt, blob)
	return nil
}

func mimeAttachment(name string) string {
	name = strings.NewReplacer(`"`, "", "\r", "", "\n", "").Replace(name)
	return `attachment; filename="` + name + `"`
}

func (h *FileHandler) ListForTask(c echo.Context) error {
	taskID, err := uuidParam(c, "taskId")
	if err != nil {
		return err
	}
	files, err := h.fileService.ListForTask(c.Request().Context(), taskID)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"files": files})
}

// Delete godoc
// @Summary Delete a file
// @Description Only the uploader or an admin may delete a file
// @Tags files
// @Param id path string true "File ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /files/{id} [delete]
func (h *FileHandler) Delete(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.fileService.Delete(c.Request().Context(), actorFrom(c), id); err != nil {
		return err
	}
	return message(c, "File deleted successfully")
}
