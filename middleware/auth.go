package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"eldercare-server/models"
	"eldercare-server/services"
)

const (
	userKey   = "user"
	userIDKey = "user_id"
	actorKey  = "actor"
)

// Authenticator resolves a bearer token to a stored user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware validates the bearer token and sets the user and actor in context
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Authorization header required",
				"message": "Please provide a valid token",
			})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid token format",
				"message": "Token must be in format: Bearer <token>",
			})
			return
		}

		authenticate(c, auth, tokenString)
	}
}

// WebSocketAuthMiddleware validates a token passed as the token query parameter
func WebSocketAuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if tokenString == "" {
			log.Printf("🔌 WebSocketAuthMiddleware: No token in query parameters")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Token required",
				"message": "Please provide a valid token in query parameters",
			})
			return
		}

		authenticate(c, auth, tokenString)
	}
}

func authenticate(c *gin.Context, auth Authenticator, tokenString string) {
	user, err := auth.Authenticate(c.Request.Context(), tokenString)
	if err != nil {
		if services.KindOf(err) == services.KindInternal {
			log.Printf("❌ Auth lookup failed: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Could not verify credentials",
			})
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":   "Invalid token",
			"message": services.MessageOf(err),
		})
		return
	}

	c.Set(userKey, *user)
	c.Set(userIDKey, user.ID)
	c.Set(actorKey, services.ActorFromUser(*user))
	c.Next()
}

// CurrentActor returns the authenticated actor, or the zero actor which every
// role check rejects
func CurrentActor(c *gin.Context) services.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(services.Actor); ok {
			return actor
		}
	}
	return services.Actor{}
}

// CurrentUser returns the authenticated user set by AuthMiddleware
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

// RequireRole rejects requests whose actor does not hold role. It must run
// after AuthMiddleware.
func RequireRole(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !services.Authorize(CurrentActor(c), role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "Forbidden",
				"message": "requires " + string(role) + " role",
			})
			return
		}
		c.Next()
	}
}
