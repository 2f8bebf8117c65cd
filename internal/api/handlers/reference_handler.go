package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vigiaproxy/vigia/internal/models"
	"github.com/vigiaproxy/vigia/internal/services"
)

// ReferenceHandler exposes the lookup tables rule conditions point at.
type ReferenceHandler struct {
	service *services.ReferenceService
}

func NewReferenceHandler(db *gorm.DB) *ReferenceHandler {
	return &ReferenceHandler{service: services.NewReferenceService(db)}
}

// Zones

func (h *ReferenceHandler) ListZones(c *gin.Context) {
	zones, err := h.service.ListZones()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, zones)
}

func (h *ReferenceHandler) CreateZone(c *gin.Context) {
	var zone models.Zone
	if err := c.ShouldBindJSON(&zone); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.CreateZone(&zone); err != nil {
		h.writeReferenceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, zone)
}

func (h *ReferenceHandler) UpdateZone(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	var updates models.Zone
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.UpdateZone(id, &updates); err != nil {
		h.writeReferenceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "zone updated"})
}

func (h *ReferenceHandler) DeleteZone(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	if err := h.service.DeleteZone(id); err != nil {
		h.writeReferenceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "zone deleted"})
}

// URL categories

func (h *ReferenceHandler) ListCategories(c *gin.Context) {
	categories, err := h.service.ListCategories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *ReferenceHandler) CreateCategory(c *gin.Context) {
	var category models.URLCategory
	if err := c.ShouldBindJSON(&category); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.CreateCategory(&category); err != nil {
		h.writeReferenceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *ReferenceHandler) UpdateCategory(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	var updates models.URLCategory
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.UpdateCategory(id, &updates); err != nil {
		h.writeReferenceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "category updated"})
}

func (h *ReferenceHandler) DeleteCategory(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	if err := h.service.DeleteCategory(id); err != nil {
		h.writeReferenceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
}

// URLs

func (h *ReferenceHandler) ListURLs(c *gin.Context) {
	urls, err := h.service.ListURLs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, urls)
}

func (h *ReferenceHandler) CreateURL(c *gin.Context) {
	var u models.URL
	if err := c.ShouldBindJSON(&u); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.CreateURL(&u); err != nil {
		h.writeReferenceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *ReferenceHandler) UpdateURL(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	var updates models.URL
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.UpdateURL(id, &updates); err != nil {
		h.writeReferenceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "url updated"})
}

func (h *ReferenceHandler) DeleteURL(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	if err := h.service.DeleteURL(id); err != nil {
		h.writeReferenceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "url deleted"})
}

// Services

func (h *ReferenceHandler) ListServices(c *gin.Context) {
	serviceRows, err := h.service.ListServices()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, serviceRows)
}

func (h *ReferenceHandler) CreateService(c *gin.Context) {
	var svc models.Service
	if err := c.ShouldBindJSON(&svc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.CreateService(&svc); err != nil {
		h.writeReferenceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, svc)
}

func (h *ReferenceHandler) UpdateService(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	var updates models.Service
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.UpdateService(id, &updates); err != nil {
		h.writeReferenceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "service updated"})
}

func (h *ReferenceHandler) DeleteService(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	if err := h.service.DeleteService(id); err != nil {
		h.writeReferenceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "service deleted"})
}

// HTTP methods

func (h *ReferenceHandler) ListMethods(c *gin.Context) {
	methods, err := h.service.ListMethods()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, methods)
}

func (h *ReferenceHandler) CreateMethod(c *gin.Context) {
	var method models.HTTPMethod
	if err := c.ShouldBindJSON(&method); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.CreateMethod(&method); err != nil {
		h.writeReferenceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, method)
}

func (h *ReferenceHandler) DeleteMethod(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}
	if err := h.service.DeleteMethod(id); err != nil {
		h.writeReferenceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "method deleted"})
}

func (h *ReferenceHandler) writeReferenceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrReferenceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrReferenceExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
