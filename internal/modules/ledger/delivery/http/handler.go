package http

import (
	"errors"
	"net/http"

	ledgerDto "clubdev.app/gamify/internal/modules/ledger/dto"
	ledgerService "clubdev.app/gamify/internal/modules/ledger/service"
	streakService "clubdev.app/gamify/internal/modules/streak/service"
	"clubdev.app/gamify/pkg/apperror"
	"clubdev.app/gamify/pkg/response"
	"github.com/gin-gonic/gin"
)

type LedgerHandler struct {
	service ledgerService.LedgerService
	streaks streakService.StreakService
}

func NewLedgerHandler(service ledgerService.LedgerService, streaks streakService.StreakService) *LedgerHandler {
	return &LedgerHandler{service: service, streaks: streaks}
}

func (h *LedgerHandler) GetUserScore(c *gin.Context) {
	userID, err := response.ParamUUID(c, "user_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	ctx := c.Request.Context()
	stats, levelStatus, badges, err := h.service.GetScore(ctx, userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	state, err := h.streaks.GetStreak(ctx, userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ledgerDto.UserScoreResponse{
		UserID:        userID,
		TotalXP:       stats.TotalXP,
		LevelStatus:   levelStatus,
		Badges:        badges,
		CurrentStreak: state.CurrentStreak,
		LongestStreak: state.LongestStreak,
	}})
}

func (h *LedgerHandler) GetBadges(c *gin.Context) {
	userID, err := response.ParamUUID(c, "user_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	badges, err := h.service.GetBadges(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": badges})
}

// Recompute rebuilds a user's cached score from the full grant history.
func (h *LedgerHandler) Recompute(c *gin.Context) {
	userID, err := response.ParamUUID(c, "user_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	stats, err := h.service.Recompute(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// RecomputeAll rebuilds every user's cached score. Heavy; meant for
// recovery after a stats-cache incident.
func (h *LedgerHandler) RecomputeAll(c *gin.Context) {
	if err := h.service.RecomputeAll(c.Request.Context()); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": "all user stats recomputed"})
}

// ReverseGrant records a correction grant. Reversing an already-reversed
// grant reports the existing state rather than an error.
func (h *LedgerHandler) ReverseGrant(c *gin.Context) {
	grantID, err := response.ParamUUID(c, "grant_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	correction, err := h.service.Reverse(c.Request.Context(), grantID)
	if err != nil {
		if errors.Is(err, apperror.ErrDuplicateGrant) {
			c.JSON(http.StatusOK, gin.H{"data": "grant already reversed"})
			return
		}
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": correction})
}
