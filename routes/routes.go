package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"eldercare-server/config"
	"eldercare-server/middleware"
	"eldercare-server/models"
	"eldercare-server/services"
	"eldercare-server/utils"
	ws "eldercare-server/websocket"
)

// Dependencies are the services the HTTP layer calls into
type Dependencies struct {
	Users       *services.UserService
	Needs       *services.NeedService
	Tasks       *services.TaskService
	Feedback    *services.FeedbackService
	CareRecords *services.CareRecordService
	Resets      *services.PasswordResetService
	Photos      *services.PhotoService
	Hub         *ws.Hub
	RateLimiter *middleware.RateLimiter
}

// NewRouter builds the engine with the middleware stack and every route
func NewRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	if err := utils.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Disable automatic redirects for trailing slashes
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORS))
	router.Use(middleware.InputValidationMiddleware())
	if deps.RateLimiter != nil {
		router.Use(middleware.RateLimitMiddleware(deps.RateLimiter))
	}
	router.Use(middleware.AuditLogMiddleware())

	RegisterRoutes(router, cfg, deps)
	return router, nil
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, cfg *config.Config, deps Dependencies) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "ElderCare server is running",
			"time":    time.Now().UTC(),
		})
	})

	auth := &authHandler{users: deps.Users, resets: deps.Resets}
	users := &userHandler{users: deps.Users}
	needs := &needHandler{needs: deps.Needs}
	tasks := &taskHandler{tasks: deps.Tasks, photos: deps.Photos}
	feedback := &feedbackHandler{feedback: deps.Feedback}
	records := &careRecordHandler{records: deps.CareRecords}

	requireAuth := middleware.AuthMiddleware(deps.Users)

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		if deps.RateLimiter != nil {
			authRoutes.Use(middleware.AuthRateLimitMiddleware(deps.RateLimiter))
		}
		authRoutes.POST("/register", auth.register)
		authRoutes.POST("/login", auth.login)
		authRoutes.POST("/forgot-password", auth.forgotPassword)
		authRoutes.POST("/verify-code", auth.verifyCode)
		authRoutes.POST("/reset-password", auth.resetPassword)

		// Public listing of open needs
		api.GET("/needs", needs.listOpenNeeds)

		if deps.Hub != nil {
			socket := &wsHandler{hub: deps.Hub, upgrader: ws.Upgrader(cfg.CORS.AllowedOrigins)}
			api.GET("/ws", middleware.WebSocketAuthMiddleware(deps.Users), socket.connect)
		}

		protected := api.Group("")
		protected.Use(requireAuth)
		{
			protected.GET("/me", auth.me)
			protected.GET("/profile", users.getProfile)
			protected.PUT("/profile", users.updateProfile)

			// Role gates run before binding so a wrong-role caller always gets 403
			adminOnly := middleware.RequireRole(models.RoleAdmin)
			providerOnly := middleware.RequireRole(models.RoleProvider)

			protected.GET("/users", adminOnly, users.listUsers)
			protected.GET("/users/:id", users.getUser)
			protected.PUT("/users/:id", users.updateUser)
			protected.DELETE("/users/:id", users.deleteUser)

			protected.POST("/needs", adminOnly, needs.createNeed)

			taskRoutes := protected.Group("/tasks")
			taskRoutes.POST("", providerOnly, tasks.acceptTask)
			taskRoutes.GET("/my", providerOnly, tasks.myTasks)
			taskRoutes.PUT("/complete/:taskId", providerOnly, tasks.completeTask)
			taskRoutes.GET("/completed", adminOnly, tasks.completedTasks)
			taskRoutes.GET("/by-provider/:id", adminOnly, tasks.tasksByProvider)
			taskRoutes.POST("/photo/:taskId", providerOnly, tasks.uploadPhoto)

			feedbackRoutes := protected.Group("/feedback")
			feedbackRoutes.POST("/:taskId", adminOnly, feedback.submitFeedback)
			feedbackRoutes.GET("/mine", providerOnly, feedback.myFeedback)
			feedbackRoutes.GET("/all", adminOnly, feedback.allFeedback)
			feedbackRoutes.GET("/by-provider/:id", adminOnly, feedback.feedbackByProvider)
			feedbackRoutes.GET("/summary", adminOnly, feedback.feedbackSummary)
			feedbackRoutes.GET("/export", adminOnly, feedback.exportFeedback)

			protected.POST("/appointments", records.createAppointment)
			protected.GET("/appointments/user/:userId", records.userAppointments)
			protected.DELETE("/appointments/:id", records.cancelAppointment)

			protected.POST("/health-records", records.createHealthRecord)
			protected.GET("/health-records/user/:userId", records.userHealthRecords)
		}
	}
}
