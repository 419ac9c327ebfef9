package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-tasklists/internal/models"
	"github.com/adanyl0v/go-tasklists/internal/services"
)

type getTaskResponse struct {
	ID              int64           `json:"id"`
	ListID          int64           `json:"list_id"`
	Title           string          `json:"title"`
	Description     *string         `json:"description"`
	DueDate         *time.Time      `json:"due_date"`
	RecurringConfig json.RawMessage `json:"recurring_config"`
	Completed       bool            `json:"completed"`
	Starred         bool            `json:"starred"`
	Position        int             `json:"position"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func newGetTaskResponse(task *models.Task) getTaskResponse {
	return getTaskResponse{
		ID:              task.ID,
		ListID:          task.ListID,
		Title:           task.Title,
		Description:     task.Description,
		DueDate:         task.DueDate,
		RecurringConfig: task.RecurringConfig,
		Completed:       task.Completed,
		Starred:         task.Starred,
		Position:        task.Position,
		CreatedAt:       task.CreatedAt,
		UpdatedAt:       task.UpdatedAt,
	}
}

func newGetTasksResponse(tasks []models.Task) []getTaskResponse {
	response := make([]getTaskResponse, len(tasks))
	for i := range tasks {
		response[i] = newGetTaskResponse(&tasks[i])
	}
	return response
}

type createTaskRequest struct {
	ListID          int64           `json:"list_id" binding:"required"`
	Title           string          `json:"title" binding:"required,max=255"`
	Description     *string         `json:"description"`
	DueDate         *time.Time      `json:"due_date"`
	RecurringConfig json.RawMessage `json:"recurring_config"`
	Completed       bool            `json:"completed"`
	Starred         bool            `json:"starred"`
}

// updateTaskRequest tells an absent key apart from an explicit null.
type updateTaskRequest struct {
	Title           models.Optional[string]          `json:"title"`
	Description     models.Optional[string]          `json:"description"`
	DueDate         models.Optional[time.Time]       `json:"due_date"`
	RecurringConfig models.Optional[json.RawMessage] `json:"recurring_config"`
	Completed       models.Optional[bool]            `json:"completed"`
	Starred         models.Optional[bool]            `json:"starred"`
	ListID          models.Optional[int64]           `json:"list_id"`
}

func (r updateTaskRequest) patch() services.TaskPatch {
	return services.TaskPatch{
		Title:           r.Title,
		Description:     r.Description,
		DueDate:         r.DueDate,
		RecurringConfig: r.RecurringConfig,
		Completed:       r.Completed,
		Starred:         r.Starred,
		ListID:          r.ListID,
	}
}

type reorderTasksRequest struct {
	ListID int64   `json:"list_id" binding:"required"`
	Order  []int64 `json:"order"`
}

type deleteCompletedTasksResponse struct {
	DeletedCount int64 `json:"deleted_count"`
}

// rawOrNil drops a literal JSON null so it is stored as no value.
func rawOrNil(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	return raw
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.abortWithBindError(c, err)
		return
	}

	task, err := h.tasks.CreateTask(c, services.CreateTaskParams{
		UserID:          c.GetString(userIDCtxKey),
		ListID:          req.ListID,
		Title:           req.Title,
		Description:     req.Description,
		DueDate:         req.DueDate,
		RecurringConfig: rawOrNil(req.RecurringConfig),
		Completed:       req.Completed,
		Starred:         req.Starred,
	})
	if err != nil {
		h.abortWithServiceError(c, err, "failed to create task")
		return
	}

	c.JSON(http.StatusCreated, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	taskID, ok := idParam(c, "id")
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c, c.GetString(userIDCtxKey), taskID)
	if err != nil {
		h.abortWithServiceError(c, err, "failed to get task")
		return
	}

	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleGetListTasks(c *gin.Context) {
	listID, ok := idParam(c, "id")
	if !ok {
		return
	}

	tasks, err := h.tasks.GetTasksByList(c, c.GetString(userIDCtxKey), listID)
	if err != nil {
		h.abortWithServiceError(c, err, "failed to get tasks by list")
		return
	}

	c.JSON(http.StatusOK, newGetTasksResponse(tasks))
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	taskID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.abortWithBindError(c, err)
		return
	}

	task, err := h.tasks.UpdateTask(c, services.UpdateTaskParams{
		UserID: c.GetString(userIDCtxKey),
		TaskID: taskID,
		Patch:  req.patch(),
	})
	if err != nil {
		h.abortWithServiceError(c, err, "failed to update task")
		return
	}

	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	taskID, ok := idParam(c, "id")
	if !ok {
		return
	}

	err := h.tasks.DeleteTask(c, c.GetString(userIDCtxKey), taskID)
	if err != nil {
		h.abortWithServiceError(c, err, "failed to delete task")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleReorderTasks(c *gin.Context) {
	var req reorderTasksRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.abortWithBindError(c, err)
		return
	}

	err = h.tasks.ReorderTasks(c, services.ReorderTasksParams{
		UserID: c.GetString(userIDCtxKey),
		ListID: req.ListID,
		Order:  req.Order,
	})
	if err != nil {
		h.abortWithServiceError(c, err, "failed to reorder tasks")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleDeleteCompletedTasks(c *gin.Context) {
	listID, ok := idParam(c, "id")
	if !ok {
		return
	}

	deleted, err := h.tasks.DeleteCompletedTasks(c, c.GetString(userIDCtxKey), listID)
	if err != nil {
		h.abortWithServiceError(c, err, "failed to delete completed tasks")
		return
	}

	c.JSON(http.StatusOK, deleteCompletedTasksResponse{DeletedCount: deleted})
}
