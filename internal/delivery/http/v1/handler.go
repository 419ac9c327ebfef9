package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-tasklists/internal/services"
)

type Handler interface {
	HandleRequestIDMiddleware(c *gin.Context)
	HandleRequestLogMiddleware(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)

	HandleGetBootstrap(c *gin.Context)

	HandleCreateList(c *gin.Context)
	HandleGetLists(c *gin.Context)
	HandleGetList(c *gin.Context)
	HandleUpdateList(c *gin.Context)
	HandleDeleteList(c *gin.Context)
	HandleReorderLists(c *gin.Context)

	HandleGetListTasks(c *gin.Context)
	HandleDeleteCompletedTasks(c *gin.Context)
	HandleCreateTask(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)
	HandleReorderTasks(c *gin.Context)
}

type handlerImpl struct {
	logger        zerolog.Logger
	lists         services.ListService
	tasks         services.TaskService
	bootstrap     services.BootstrapService
	jwtIssuer     string
	jwtSigningKey []byte
}

func New(
	logger zerolog.Logger,
	listService services.ListService,
	taskService services.TaskService,
	bootstrapService services.BootstrapService,
	jwtIssuer string,
	jwtSigningKey string,
) Handler {
	return &handlerImpl{
		logger:        logger,
		lists:         listService,
		tasks:         taskService,
		bootstrap:     bootstrapService,
		jwtIssuer:     jwtIssuer,
		jwtSigningKey: []byte(jwtSigningKey),
	}
}

// RegisterRoutes mounts every v1 route under /api/v1 behind the auth
// middleware.
func RegisterRoutes(router gin.IRouter, h Handler) {
	api := router.Group("/api/v1", h.HandleAuthMiddleware)

	api.GET("/bootstrap", h.HandleGetBootstrap)

	lists := api.Group("/lists")
	lists.POST("", h.HandleCreateList)
	lists.GET("", h.HandleGetLists)
	lists.PUT("/order", h.HandleReorderLists)
	lists.GET("/:id", h.HandleGetList)
	lists.PATCH("/:id", h.HandleUpdateList)
	lists.DELETE("/:id", h.HandleDeleteList)
	lists.GET("/:id/tasks", h.HandleGetListTasks)
	lists.DELETE("/:id/tasks/completed", h.HandleDeleteCompletedTasks)

	tasks := api.Group("/tasks")
	tasks.POST("", h.HandleCreateTask)
	tasks.PUT("/order", h.HandleReorderTasks)
	tasks.GET("/:id", h.HandleGetTask)
	tasks.PATCH("/:id", h.HandleUpdateTask)
	tasks.DELETE("/:id", h.HandleDeleteTask)
}
