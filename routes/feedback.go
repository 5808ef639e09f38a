package routes

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"eldercare-server/middleware"
	"eldercare-server/models"
	"eldercare-server/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type feedbackHandler struct {
	feedback *services.FeedbackService
}

func (h *feedbackHandler) submitFeedback(c *gin.Context) {
	taskID, ok := parseID(c, "taskId")
	if !ok {
		return
	}
	var req models.FeedbackCreate
	if !bindJSON(c, &req) {
		return
	}
	fb, err := h.feedback.Submit(c.Request.Context(), middleware.CurrentActor(c), taskID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fb)
}

func (h *feedbackHandler) myFeedback(c *gin.Context) {
	list, err := h.feedback.ListMine(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *feedbackHandler) allFeedback(c *gin.Context) {
	list, err := h.feedback.ListAll(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *feedbackHandler) feedbackByProvider(c *gin.Context) {
	providerID, ok := parseID(c, "id")
	if !ok {
		return
	}
	list, err := h.feedback.ListByProvider(c.Request.Context(), middleware.CurrentActor(c), providerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *feedbackHandler) feedbackSummary(c *gin.Context) {
	summary, err := h.feedback.Summary(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *feedbackHandler) exportFeedback(c *gin.Context) {
	ctx := c.Request.Context()
	actor := middleware.CurrentActor(c)

	rows, err := h.feedback.ExportRows(ctx, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	summary, err := h.feedback.Summary(ctx, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	buf, err := services.BuildFeedbackWorkbook(rows, summary)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("feedback_report_%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
