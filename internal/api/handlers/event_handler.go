package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vigiaproxy/vigia/internal/models"
	"github.com/vigiaproxy/vigia/internal/services"
)

// EventHandler exposes the access-log event store populated by the importer.
type EventHandler struct {
	service *services.EventService
}

func NewEventHandler(db *gorm.DB) *EventHandler {
	return &EventHandler{service: services.NewEventService(db)}
}

// List handles GET /api/v1/events with optional ?verdict, ?client_ip,
// ?since (RFC 3339) and ?limit query parameters.
func (h *EventHandler) List(c *gin.Context) {
	filter := services.EventFilter{
		Verdict:  models.Verdict(c.Query("verdict")),
		ClientIP: c.Query("client_ip"),
	}

	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be an RFC 3339 timestamp"})
			return
		}
		filter.Since = since
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		filter.Limit = limit
	}

	events, err := h.service.List(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}

// Summary handles GET /api/v1/events/summary. ?hours bounds the window;
// omitted or zero means all recorded events.
func (h *EventHandler) Summary(c *gin.Context) {
	var since time.Time
	if raw := c.Query("hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be a non-negative integer"})
			return
		}
		if hours > 0 {
			since = time.Now().Add(-time.Duration(hours) * time.Hour)
		}
	}

	summary, err := h.service.Summarize(since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Redact handles DELETE /api/v1/events/:id
func (h *EventHandler) Redact(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}

	if err := h.service.Redact(id); err != nil {
		if errors.Is(err, services.ErrReferenceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "event redacted"})
}
