package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eldercare-server/middleware"
	"eldercare-server/models"
	"eldercare-server/services"
)

type userHandler struct {
	users *services.UserService
}

// listUsers accepts ?role= and ?search=
func (h *userHandler) listUsers(c *gin.Context) {
	filter := services.UserFilter{
		Role:   models.UserRole(c.Query("role")),
		Search: c.Query("search"),
	}
	if filter.Role != "" && !filter.Role.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad Request", "message": "role must be admin or provider"})
		return
	}
	users, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *userHandler) getUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *userHandler) updateUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	h.update(c, id)
}

func (h *userHandler) getProfile(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), middleware.CurrentActor(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *userHandler) updateProfile(c *gin.Context) {
	h.update(c, middleware.CurrentActor(c).ID)
}

func (h *userHandler) update(c *gin.Context, id uint) {
	var req models.UserUpdate
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), middleware.CurrentActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *userHandler) deleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), middleware.CurrentActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
