package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/fitness-proxy/garmin-proxy/api/v1"
)

// GetParams returns the current training parameters
// (GET /params)
func (h *Handler) GetParams(c *gin.Context) {
	var params v1.Params
	params.FromModel(h.fitnessSrv.Params(c.Request.Context()))
	c.JSON(http.StatusOK, params)
}
