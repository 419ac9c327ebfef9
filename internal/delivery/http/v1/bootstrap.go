package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type getBootstrapResponse struct {
	Lists []getListResponse `json:"lists"`
	Tasks []getTaskResponse `json:"tasks"`
}

func (h *handlerImpl) HandleGetBootstrap(c *gin.Context) {
	snapshot, err := h.bootstrap.GetSnapshot(c, c.GetString(userIDCtxKey))
	if err != nil {
		h.abortWithServiceError(c, err, "failed to get bootstrap snapshot")
		return
	}

	c.JSON(http.StatusOK, getBootstrapResponse{
		Lists: newGetListsResponse(snapshot.Lists),
		Tasks: newGetTasksResponse(snapshot.Tasks),
	})
}
