package routes

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"eldercare-server/services"
	"eldercare-server/utils"
)

func statusFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindInvalid:
		return http.StatusBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	case services.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes a service error; internal details are logged, never returned
func respondError(c *gin.Context, err error) {
	status := statusFor(services.KindOf(err))
	if status == http.StatusInternalServerError {
		log.Printf("❌ %s %s [%s]: %v", c.Request.Method, c.FullPath(), c.GetString("request_id"), err)
	}
	c.JSON(status, gin.H{
		"error":   http.StatusText(status),
		"message": services.MessageOf(err),
	})
}

// bindJSON binds the body into obj, writing a 400 on failure
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		body := gin.H{
			"error":   http.StatusText(http.StatusBadRequest),
			"message": "Invalid request body",
		}
		if fields, ok := utils.ValidationMessages(err); ok {
			body["message"] = "Validation failed"
			body["fields"] = fields
		}
		c.JSON(http.StatusBadRequest, body)
		return false
	}
	return true
}

// parseID reads a positive integer path parameter, writing a 400 on failure
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   http.StatusText(http.StatusBadRequest),
			"message": "Invalid " + name,
		})
		return 0, false
	}
	return uint(id), true
}
