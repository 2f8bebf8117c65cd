package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vigiaproxy/vigia/internal/models"
	"github.com/vigiaproxy/vigia/internal/rules"
	"github.com/vigiaproxy/vigia/internal/services"
)

type RuleHandler struct {
	service *services.RuleService
}

func NewRuleHandler(db *gorm.DB) *RuleHandler {
	return &RuleHandler{service: services.NewRuleService(db)}
}

// List handles GET /api/v1/rules. ?policy_id filters, ?all=true includes
// soft-deleted rows.
func (h *RuleHandler) List(c *gin.Context) {
	var (
		ruleRows []models.Rule
		err      error
	)
	if c.Query("all") == "true" {
		ruleRows, err = h.service.ListAll()
	} else {
		ruleRows, err = h.service.List()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ruleRows)
}

// Create handles POST /api/v1/rules
func (h *RuleHandler) Create(c *gin.Context) {
	var rule models.Rule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Create(&rule); err != nil {
		h.writeRuleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rule)
}

// Get handles GET /api/v1/rules/:id
func (h *RuleHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}

	rule, err := h.service.GetByID(id)
	if err != nil {
		if errors.Is(err, services.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rule)
}

// Update handles PUT /api/v1/rules/:id
func (h *RuleHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}

	var updates models.Rule
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Update(id, &updates); err != nil {
		h.writeRuleError(c, err)
		return
	}

	rule, _ := h.service.GetByID(id)
	c.JSON(http.StatusOK, rule)
}

// Toggle handles POST /api/v1/rules/:id/toggle
func (h *RuleHandler) Toggle(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}

	enabled, err := h.service.Toggle(id)
	if err != nil {
		if errors.Is(err, services.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "enabled": enabled})
}

// Delete handles DELETE /api/v1/rules/:id (soft delete, frees the priority)
func (h *RuleHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}

	if err := h.service.Delete(id); err != nil {
		if errors.Is(err, services.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "rule deleted"})
}

// writeRuleError maps service failures onto HTTP responses. Condition schema
// failures carry the per-field error list so the UI can highlight them.
func (h *RuleHandler) writeRuleError(c *gin.Context, err error) {
	var validationErr rules.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "condition validation failed",
			"fields": validationErr,
		})
	case errors.Is(err, services.ErrDuplicatePriority):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrPolicyNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "policy not found"})
	case errors.Is(err, services.ErrRuleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
