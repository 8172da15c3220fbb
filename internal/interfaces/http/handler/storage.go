package handler

import (
	"github.com/formflow/backend/internal/infrastructure/kvstore"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StorageHandler exposes key-value store statistics and maintenance
// operations
type StorageHandler struct {
	BaseHandler
	store  kvstore.Store
	logger *zap.Logger
}

// NewStorageHandler creates a new StorageHandler
func NewStorageHandler(store kvstore.Store, logger *zap.Logger) *StorageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StorageHandler{
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes registers storage routes
func (h *StorageHandler) RegisterRoutes(rg *gin.RouterGroup) {
	storage := rg.Group("/storage")
	{
		storage.GET("/stats", h.Stats)
		storage.DELETE("/:collection", h.Clear)
	}
}

// Stats returns per-collection usage statistics
func (h *StorageHandler) Stats(c *gin.Context) {
	stats, err := h.store.UsageStatistics(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// Clear empties one collection. The collection itself remains valid and
// empty afterwards.
func (h *StorageHandler) Clear(c *gin.Context) {
	collection := c.Param("collection")
	if collection == "" {
		h.BadRequest(c, "Collection name is required")
		return
	}

	cleared, err := h.store.Clear(c.Request.Context(), collection)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.logger.Info("collection cleared",
		zap.String("collection", collection),
		zap.Bool("hadItems", cleared))
	h.Success(c, gin.H{"collection": collection, "cleared": cleared})
}
