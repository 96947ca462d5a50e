package http

import (
	"net/http"

	githubDto "clubdev.app/gamify/internal/modules/github/dto"
	githubService "clubdev.app/gamify/internal/modules/github/service"
	"clubdev.app/gamify/pkg/response"
	"clubdev.app/gamify/pkg/validator"
	"github.com/gin-gonic/gin"
)

type GitHubHandler struct {
	service githubService.GitHubService
}

func NewGitHubHandler(service githubService.GitHubService) *GitHubHandler {
	return &GitHubHandler{service: service}
}

// SubmitSnapshot is called by the GitHub integration on each sync cycle.
func (h *GitHubHandler) SubmitSnapshot(c *gin.Context) {
	userID, err := response.ParamUUID(c, "user_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req githubDto.SnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	result, err := h.service.Ingest(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
