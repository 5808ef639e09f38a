package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eldercare-server/middleware"
	"eldercare-server/models"
	"eldercare-server/services"
)

type needHandler struct {
	needs *services.NeedService
}

// listOpenNeeds is public
func (h *needHandler) listOpenNeeds(c *gin.Context) {
	needs, err := h.needs.ListOpen(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, needs)
}

func (h *needHandler) createNeed(c *gin.Context) {
	var req models.ServiceNeedCreate
	if !bindJSON(c, &req) {
		return
	}
	need, err := h.needs.Create(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, need)
}
