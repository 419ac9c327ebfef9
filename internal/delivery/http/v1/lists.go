package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-tasklists/internal/models"
	"github.com/adanyl0v/go-tasklists/internal/services"
)

type getListResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newGetListResponse(list *models.List) getListResponse {
	return getListResponse{
		ID:        list.ID,
		Name:      list.Name,
		Slug:      list.Slug,
		Position:  list.Position,
		CreatedAt: list.CreatedAt,
		UpdatedAt: list.UpdatedAt,
	}
}

func newGetListsResponse(lists []models.List) []getListResponse {
	response := make([]getListResponse, len(lists))
	for i := range lists {
		response[i] = newGetListResponse(&lists[i])
	}
	return response
}

type saveListRequest struct {
	Name string `json:"name" binding:"required,max=255"`
	Slug string `json:"slug" binding:"max=255"`
}

type reorderListsRequest struct {
	Order []int64 `json:"order"`
}

func (h *handlerImpl) HandleCreateList(c *gin.Context) {
	var req saveListRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.abortWithBindError(c, err)
		return
	}

	list, err := h.lists.CreateList(c, services.CreateListParams{
		UserID: c.GetString(userIDCtxKey),
		Name:   req.Name,
		Slug:   req.Slug,
	})
	if err != nil {
		h.abortWithServiceError(c, err, "failed to create list")
		return
	}

	c.JSON(http.StatusCreated, newGetListResponse(list))
}

func (h *handlerImpl) HandleGetLists(c *gin.Context) {
	lists, err := h.lists.GetLists(c, c.GetString(userIDCtxKey))
	if err != nil {
		h.abortWithServiceError(c, err, "failed to get lists")
		return
	}

	c.JSON(http.StatusOK, newGetListsResponse(lists))
}

func (h *handlerImpl) HandleGetList(c *gin.Context) {
	listID, ok := idParam(c, "id")
	if !ok {
		return
	}

	list, err := h.lists.GetList(c, c.GetString(userIDCtxKey), listID)
	if err != nil {
		h.abortWithServiceError(c, err, "failed to get list")
		return
	}

	c.JSON(http.StatusOK, newGetListResponse(list))
}

func (h *handlerImpl) HandleUpdateList(c *gin.Context) {
	listID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req saveListRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.abortWithBindError(c, err)
		return
	}

	list, err := h.lists.UpdateList(c, services.UpdateListParams{
		UserID: c.GetString(userIDCtxKey),
		ListID: listID,
		Name:   req.Name,
		Slug:   req.Slug,
	})
	if err != nil {
		h.abortWithServiceError(c, err, "failed to update list")
		return
	}

	c.JSON(http.StatusOK, newGetListResponse(list))
}

func (h *handlerImpl) HandleDeleteList(c *gin.Context) {
	listID, ok := idParam(c, "id")
	if !ok {
		return
	}

	err := h.lists.DeleteList(c, c.GetString(userIDCtxKey), listID)
	if err != nil {
		h.abortWithServiceError(c, err, "failed to delete list")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleReorderLists(c *gin.Context) {
	var req reorderListsRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.abortWithBindError(c, err)
		return
	}

	err = h.lists.ReorderLists(c, services.ReorderListsParams{
		UserID: c.GetString(userIDCtxKey),
		Order:  req.Order,
	})
	if err != nil {
		h.abortWithServiceError(c, err, "failed to reorder lists")
		return
	}

	c.Status(http.StatusNoContent)
}
