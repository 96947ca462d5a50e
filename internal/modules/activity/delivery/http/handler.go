package http

import (
	"net/http"

	activityDto "clubdev.app/gamify/internal/modules/activity/dto"
	activityService "clubdev.app/gamify/internal/modules/activity/service"
	"clubdev.app/gamify/pkg/response"
	"clubdev.app/gamify/pkg/validator"
	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	service activityService.ActivityService
}

func NewActivityHandler(service activityService.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// SubmitEvent accepts one activity event. Replays return 200 with zero
// grants so at-least-once producers can treat every 2xx as done.
func (h *ActivityHandler) SubmitEvent(c *gin.Context) {
	var req activityDto.SubmitEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	result, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
