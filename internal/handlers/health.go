package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/fitness-proxy/garmin-proxy/api/v1"
)

// GetHealth reports liveness. It never calls the vendor.
// (GET /health)
func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, v1.NewHealth(h.now()))
}
