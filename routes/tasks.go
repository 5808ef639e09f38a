package routes

import (
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"eldercare-server/middleware"
	"eldercare-server/models"
	"eldercare-server/services"
)

const maxPhotoSize = 5 * 1024 * 1024

type taskHandler struct {
	tasks  *services.TaskService
	photos *services.PhotoService
}

func (h *taskHandler) acceptTask(c *gin.Context) {
	var req models.TaskCreate
	if !bindJSON(c, &req) {
		return
	}
	task, err := h.tasks.Accept(c.Request.Context(), middleware.CurrentActor(c), req.NeedID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *taskHandler) myTasks(c *gin.Context) {
	tasks, err := h.tasks.ListMine(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *taskHandler) completeTask(c *gin.Context) {
	taskID, ok := parseID(c, "taskId")
	if !ok {
		return
	}
	task, err := h.tasks.Complete(c.Request.Context(), middleware.CurrentActor(c), taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *taskHandler) completedTasks(c *gin.Context) {
	tasks, err := h.tasks.ListCompleted(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *taskHandler) tasksByProvider(c *gin.Context) {
	providerID, ok := parseID(c, "id")
	if !ok {
		return
	}
	tasks, err := h.tasks.ListByProvider(c.Request.Context(), middleware.CurrentActor(c), providerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *taskHandler) uploadPhoto(c *gin.Context) {
	taskID, ok := parseID(c, "taskId")
	if !ok {
		return
	}

	header, err := c.FormFile("photo")
	if err != nil || !validateImageFile(header) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   http.StatusText(http.StatusBadRequest),
			"message": "photo must be a jpg, png or webp image up to 5MB",
		})
		return
	}
	log.Printf("📸 Completion photo for task %d: %s, size: %d", taskID, header.Filename, header.Size)

	file, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	task, err := h.photos.Upload(c.Request.Context(), middleware.CurrentActor(c), taskID, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func validateImageFile(h *multipart.FileHeader) bool {
	if h == nil || h.Size <= 0 || h.Size > maxPhotoSize {
		return false
	}
	switch strings.ToLower(filepath.Ext(h.Filename)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	default:
		return false
	}
}
