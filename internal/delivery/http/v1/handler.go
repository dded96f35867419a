package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/MHC32/momentum/internal/services"
)

type Handler interface {
	HandleLogin(c *gin.Context)
	HandleRegister(c *gin.Context)
	HandleLogout(c *gin.Context)
	HandleGetSession(c *gin.Context)
	HandleAPIKeyMiddleware(c *gin.Context)
	HandleSessionMiddleware(c *gin.Context)

	HandleGetTasks(c *gin.Context)
	HandleGetKanban(c *gin.Context)
	HandleSearchTasks(c *gin.Context)
	HandleCreateTask(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleSetTaskStatus(c *gin.Context)
	HandleDeleteTask(c *gin.Context)
	HandleAddTaskCommit(c *gin.Context)

	HandleGetGoals(c *gin.Context)
	HandleGetCurrentGoal(c *gin.Context)
	HandleCloseCurrentGoal(c *gin.Context)
	HandleGetGoal(c *gin.Context)
	HandleCreateGoal(c *gin.Context)
	HandleUpdateGoal(c *gin.Context)
	HandleDeleteGoal(c *gin.Context)
	HandleToggleGoalStep(c *gin.Context)
	HandleAdjustGoalValue(c *gin.Context)
	HandleCompleteGoal(c *gin.Context)

	HandleGetProjects(c *gin.Context)
	HandleGetProject(c *gin.Context)
	HandleCreateProject(c *gin.Context)
	HandleUpdateProject(c *gin.Context)
	HandleDeleteProject(c *gin.Context)
	HandleGetProjectKanban(c *gin.Context)

	HandleGetDashboard(c *gin.Context)
	HandleRefetch(c *gin.Context)
}

type handlerImpl struct {
	logger   zerolog.Logger
	sessions services.SessionService
	sync     services.SyncService
	// Empty when local clients need no key.
	apiKeyHash string
}

func New(
	logger zerolog.Logger,
	sessionService services.SessionService,
	syncService services.SyncService,
	apiKeyHash string,
) Handler {
	return &handlerImpl{
		logger:     logger,
		sessions:   sessionService,
		sync:       syncService,
		apiKeyHash: apiKeyHash,
	}
}

// RegisterRoutes mounts every handler under router.
func RegisterRoutes(router gin.IRouter, h Handler) {
	router.Use(h.HandleAPIKeyMiddleware)

	sessionRouter := router.Group("/session")
	sessionRouter.POST("/login", h.HandleLogin)
	sessionRouter.POST("/register", h.HandleRegister)
	sessionRouter.POST("/logout", h.HandleLogout)
	sessionRouter.GET("", h.HandleGetSession)

	authed := router.Group("", h.HandleSessionMiddleware)

	tasksRouter := authed.Group("/tasks")
	tasksRouter.GET("", h.HandleGetTasks)
	tasksRouter.GET("/kanban", h.HandleGetKanban)
	tasksRouter.GET("/search", h.HandleSearchTasks)
	tasksRouter.POST("", h.HandleCreateTask)
	tasksRouter.PUT("/:id", h.HandleUpdateTask)
	tasksRouter.PATCH("/:id/status", h.HandleSetTaskStatus)
	tasksRouter.DELETE("/:id", h.HandleDeleteTask)
	tasksRouter.POST("/:id/commits", h.HandleAddTaskCommit)

	goalsRouter := authed.Group("/goals")
	goalsRouter.GET("", h.HandleGetGoals)
	goalsRouter.GET("/current", h.HandleGetCurrentGoal)
	goalsRouter.DELETE("/current", h.HandleCloseCurrentGoal)
	goalsRouter.GET("/:id", h.HandleGetGoal)
	goalsRouter.POST("", h.HandleCreateGoal)
	goalsRouter.PUT("/:id", h.HandleUpdateGoal)
	goalsRouter.DELETE("/:id", h.HandleDeleteGoal)
	goalsRouter.POST("/:id/steps/:index/toggle", h.HandleToggleGoalStep)
	goalsRouter.POST("/:id/adjust", h.HandleAdjustGoalValue)
	goalsRouter.POST("/:id/complete", h.HandleCompleteGoal)

	projectsRouter := authed.Group("/projects")
	projectsRouter.GET("", h.HandleGetProjects)
	projectsRouter.GET("/:id", h.HandleGetProject)
	projectsRouter.POST("", h.HandleCreateProject)
	projectsRouter.PUT("/:id", h.HandleUpdateProject)
	projectsRouter.DELETE("/:id", h.HandleDeleteProject)
	projectsRouter.GET("/:id/kanban", h.HandleGetProjectKanban)

	authed.GET("/dashboard", h.HandleGetDashboard)
	authed.POST("/sync/refetch", h.HandleRefetch)
}
