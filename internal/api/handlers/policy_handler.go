package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vigiaproxy/vigia/internal/models"
	"github.com/vigiaproxy/vigia/internal/services"
)

type PolicyHandler struct {
	service *services.PolicyService
}

func NewPolicyHandler(db *gorm.DB) *PolicyHandler {
	return &PolicyHandler{service: services.NewPolicyService(db)}
}

// List handles GET /api/v1/policies. ?all=true includes soft-deleted rows.
func (h *PolicyHandler) List(c *gin.Context) {
	var (
		policies []models.Policy
		err      error
	)
	if c.Query("all") == "true" {
		policies, err = h.service.ListAll()
	} else {
		policies, err = h.service.List()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, policies)
}

// Create handles POST /api/v1/policies
func (h *PolicyHandler) Create(c *gin.Context) {
	var policy models.Policy
	if err := c.ShouldBindJSON(&policy); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Create(&policy); err != nil {
		if errors.Is(err, services.ErrPolicyNameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, policy)
}

// Get handles GET /api/v1/policies/:id
func (h *PolicyHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}

	policy, err := h.service.GetByID(id)
	if err != nil {
		if errors.Is(err, services.ErrPolicyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "policy not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, policy)
}

// Update handles PUT /api/v1/policies/:id
func (h *PolicyHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}

	var updates models.Policy
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Update(id, &updates); err != nil {
		switch {
		case errors.Is(err, services.ErrPolicyNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "policy not found"})
		case errors.Is(err, services.ErrPolicyNameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	policy, _ := h.service.GetByID(id)
	c.JSON(http.StatusOK, policy)
}

// Delete handles DELETE /api/v1/policies/:id (soft delete)
func (h *PolicyHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}

	if err := h.service.Delete(id); err != nil {
		if errors.Is(err, services.ErrPolicyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "policy not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "policy deleted"})
}

// parseID reads the :id path param, writing the error response itself on
// failure so callers can simply return.
func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ID"})
		return 0, err
	}
	return uint(id), nil
}
