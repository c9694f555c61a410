package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/coalesceio/resilient/internal/infrastructure/resilience"
	"github.com/coalesceio/resilient/internal/logging"
)

// CircuitHandlers exposes the administrative circuit operations over HTTP
type CircuitHandlers struct {
	manager *resilience.Manager
	logger  *logging.Logger
}

// NewCircuitHandlers creates the admin handler set
func NewCircuitHandlers(manager *resilience.Manager, logger *logging.Logger) *CircuitHandlers {
	return &CircuitHandlers{
		manager: manager,
		logger:  logger,
	}
}

// List returns a stats snapshot of every registered circuit.
// GET /circuits
func (h *CircuitHandlers) List(c *gin.Context) {
	stats := h.manager.CircuitStats()

	c.JSON(http.StatusOK, gin.H{
		"count":    len(stats),
		"circuits": stats,
	})
}

// Reset forces a single named circuit closed.
// POST /circuits/:name/reset
func (h *CircuitHandlers) Reset(c *gin.Context) {
	name := c.Param("name")

	if !h.manager.ResetCircuit(name) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "unknown circuit: " + name,
		})
		return
	}

	h.logger.Info("circuit reset via admin API", zap.String("operation", name))
	c.JSON(http.StatusOK, gin.H{
		"reset": name,
	})
}

// ResetAll forces every registered circuit closed.
// POST /circuits/reset
func (h *CircuitHandlers) ResetAll(c *gin.Context) {
	h.manager.ResetAllCircuits()

	h.logger.Info("all circuits reset via admin API")
	c.JSON(http.StatusOK, gin.H{
		"reset": "all",
	})
}
