package http

import (
	"net/http"
	"strconv"

	leaderboardService "clubdev.app/gamify/internal/modules/leaderboard/service"
	"clubdev.app/gamify/pkg/response"
	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	service leaderboardService.LeaderboardService
}

func NewLeaderboardHandler(service leaderboardService.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	category := c.DefaultQuery("category", leaderboardService.CategoryGlobal)
	window := c.DefaultQuery("window", leaderboardService.WindowAllTime)
	limitStr := c.DefaultQuery("limit", "10")
	limit, _ := strconv.Atoi(limitStr)

	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	entries, err := h.service.TopK(c.Request.Context(), category, window, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}

func (h *LeaderboardHandler) GetRank(c *gin.Context) {
	userID, err := response.ParamUUID(c, "user_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	category := c.DefaultQuery("category", leaderboardService.CategoryGlobal)
	window := c.DefaultQuery("window", leaderboardService.WindowAllTime)

	rank, err := h.service.RankOf(c.Request.Context(), userID, category, window)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rank})
}

// Rebuild discards the index and replays the ledger. The authoritative
// recovery path after corruption.
func (h *LeaderboardHandler) Rebuild(c *gin.Context) {
	if err := h.service.Rebuild(c.Request.Context()); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": "leaderboard index rebuilt"})
}
