package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eldercare-server/middleware"
	"eldercare-server/models"
	"eldercare-server/services"
)

type authHandler struct {
	users  *services.UserService
	resets *services.PasswordResetService
}

func (h *authHandler) register(c *gin.Context) {
	var req models.UserRegister
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *authHandler) login(c *gin.Context) {
	var req models.UserLogin
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.users.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *authHandler) me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "message": "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *authHandler) forgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.resets.RequestCode(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "verification code sent"})
}

func (h *authHandler) verifyCode(c *gin.Context) {
	var req models.VerifyCodeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.resets.VerifyCode(c.Request.Context(), req.Email, req.Code); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "code verified"})
}

func (h *authHandler) resetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.resets.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
