package handlers

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vigiaproxy/vigia/internal/config"
	"github.com/vigiaproxy/vigia/internal/models"
	"github.com/vigiaproxy/vigia/internal/services"
	"github.com/vigiaproxy/vigia/internal/squid"
)

// ConfigHandler owns the proxy-facing operations: previewing and applying the
// generated Squid rules, and triggering an ingestion pass on demand.
type ConfigHandler struct {
	exporter      *squid.Exporter
	importer      *squid.Importer
	notifications *services.NotificationService

	// Serializes on-demand ingestion requests against each other. The cron
	// scheduler serializes its own runs separately; overlapping the two only
	// risks duplicate events, which the store tolerates.
	ingestMu sync.Mutex
}

func NewConfigHandler(db *gorm.DB, cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		exporter:      squid.NewExporter(db, cfg.SquidRulesPath, cfg.SquidReloadCommand),
		importer:      squid.NewImporter(db, cfg.AccessLogPath, cfg.OffsetStatePath, cfg.IngestBatchSize),
		notifications: services.NewNotificationService(db),
	}
}

// Preview handles GET /api/v1/config/preview, returning the rendered rules
// file without writing anything.
func (h *ConfigHandler) Preview(c *gin.Context) {
	text, err := h.exporter.Render()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.String(http.StatusOK, text)
}

// Apply handles POST /api/v1/config/apply: write the rules file and reload
// the proxy.
func (h *ConfigHandler) Apply(c *gin.Context) {
	message, err := h.exporter.Apply(c.Request.Context())
	if err != nil {
		h.notifications.Create(models.NotificationTypeError, "Proxy configuration apply failed", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifications.Create(models.NotificationTypeInfo, "Proxy configuration applied", message)
	h.notifications.SendExternal("config", "Proxy configuration applied", message)

	c.JSON(http.StatusOK, gin.H{"message": message})
}

// Ingest handles POST /api/v1/ingest/run: one on-demand ingestion pass.
func (h *ConfigHandler) Ingest(c *gin.Context) {
	h.ingestMu.Lock()
	defer h.ingestMu.Unlock()

	result, err := h.importer.Run()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if result.Denied > 0 {
		message := fmt.Sprintf("%d denied requests recorded in the last ingestion pass.", result.Denied)
		h.notifications.Create(models.NotificationTypeWarning, "Denied requests ingested", message)
		h.notifications.SendExternal("deny", "Denied requests ingested", message)
	}

	c.JSON(http.StatusOK, result)
}
