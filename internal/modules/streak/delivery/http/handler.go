package http

import (
	"net/http"

	streakService "clubdev.app/gamify/internal/modules/streak/service"
	"clubdev.app/gamify/pkg/response"
	"github.com/gin-gonic/gin"
)

type StreakHandler struct {
	service streakService.StreakService
}

func NewStreakHandler(service streakService.StreakService) *StreakHandler {
	return &StreakHandler{service: service}
}

func (h *StreakHandler) GetStreak(c *gin.Context) {
	userID, err := response.ParamUUID(c, "user_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	state, err := h.service.GetStreak(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": state})
}
