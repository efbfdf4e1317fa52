package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/fitness-proxy/garmin-proxy/api/v1"
)

// GetDaily returns summary, hrv, sleep and stress of a day
// (GET /daily)
func (h *Handler) GetDaily(c *gin.Context, params v1.GetDailyParams) {
	c.JSON(http.StatusOK, v1.NewDaily(h.fitnessSrv.Daily(c.Request.Context(), params.DateStr.Time)))
}
