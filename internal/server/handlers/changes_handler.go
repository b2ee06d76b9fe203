package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/assetdesk/internal/domain/models"
)

const (
	defaultChangeLimit = 20
	maxChangeLimit     = 100
)

// ChangeReader returns journaled mutations of one asset.
type ChangeReader interface {
	RecentChanges(ctx context.Context, assetID string, limit int64) ([]models.AssetChange, error)
}

// ChangesHandler exposes the change journal.
type ChangesHandler struct {
	journal ChangeReader
	logger  *zap.Logger
}

// NewChangesHandler constructs the change journal handler.
func NewChangesHandler(journal ChangeReader, logger *zap.Logger) *ChangesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangesHandler{journal: journal, logger: logger}
}

// APIList returns the latest changes of the asset in the path, newest first.
// ?limit is clamped to [1, 100].
func (h *ChangesHandler) APIList(c *gin.Context) {
	assetID := c.Param("id")
	limit := int64(defaultChangeLimit)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(n, maxChangeLimit)
	}

	changes, err := h.journal.RecentChanges(c.Request.Context(), assetID, limit)
	if err != nil {
		h.logger.Error("failed to load asset changes", zap.String("asset_id", assetID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load changes"})
		return
	}
	if changes == nil {
		changes = []models.AssetChange{}
	}
	c.JSON(http.StatusOK, gin.H{"asset_id": assetID, "changes": changes})
}
