package http

import (
	"net/http"
	"strconv"

	rulesDto "clubdev.app/gamify/internal/modules/rules/dto"
	rulesService "clubdev.app/gamify/internal/modules/rules/service"
	"clubdev.app/gamify/pkg/apperror"
	"clubdev.app/gamify/pkg/response"
	"clubdev.app/gamify/pkg/validator"
	"github.com/gin-gonic/gin"
)

type RuleHandler struct {
	service rulesService.RuleService
}

func NewRuleHandler(service rulesService.RuleService) *RuleHandler {
	return &RuleHandler{service: service}
}

// ListRules returns every rule version, active or not, for auditability.
func (h *RuleHandler) ListRules(c *gin.Context) {
	rules, err := h.service.ListRules(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rules})
}

func (h *RuleHandler) GetRuleVersion(c *gin.Context) {
	ruleID := c.Param("rule_id")
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	rule, err := h.service.RuleVersion(c.Request.Context(), ruleID, version)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rule})
}

// CreateRule installs a new rule version and retires the old one.
func (h *RuleHandler) CreateRule(c *gin.Context) {
	var req rulesDto.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	rule, err := h.service.CreateRule(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": rule})
}
