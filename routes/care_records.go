package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eldercare-server/middleware"
	"eldercare-server/models"
	"eldercare-server/services"
)

type careRecordHandler struct {
	records *services.CareRecordService
}

func (h *careRecordHandler) createAppointment(c *gin.Context) {
	var req models.AppointmentCreate
	if !bindJSON(c, &req) {
		return
	}
	appt, err := h.records.CreateAppointment(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

func (h *careRecordHandler) userAppointments(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}
	list, err := h.records.ListAppointments(c.Request.Context(), middleware.CurrentActor(c), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *careRecordHandler) cancelAppointment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.records.CancelAppointment(c.Request.Context(), middleware.CurrentActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "appointment cancelled"})
}

func (h *careRecordHandler) createHealthRecord(c *gin.Context) {
	var req models.HealthRecordCreate
	if !bindJSON(c, &req) {
		return
	}
	record, err := h.records.CreateHealthRecord(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *careRecordHandler) userHealthRecords(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}
	list, err := h.records.ListHealthRecords(c.Request.Context(), middleware.CurrentActor(c), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
