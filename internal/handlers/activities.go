package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "github.com/fitness-proxy/garmin-proxy/api/v1"
	"github.com/fitness-proxy/garmin-proxy/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GetActivities returns the raw activities between start and end
// (GET /activities)
func (h *Handler) GetActivities(c *gin.Context, params v1.GetActivitiesParams) {
	activities, err := h.fitnessSrv.Activities(c.Request.Context(), params.Start.Time, params.End.Time)
	if err != nil {
		vendorFailure(c, "activities_handler", "failed to list activities", err)
		return
	}

	c.JSON(http.StatusOK, v1.NewActivityList(activities))
}

// GetActivitiesXlsx returns the activities between start and end as a workbook
// (GET /activities.xlsx)
func (h *Handler) GetActivitiesXlsx(c *gin.Context, params v1.GetActivitiesXlsxParams) {
	activities, err := h.fitnessSrv.Activities(c.Request.Context(), params.Start.Time, params.End.Time)
	if err != nil {
		vendorFailure(c, "activities_handler", "failed to list activities", err)
		return
	}

	buf, err := services.ActivitiesWorkbook(activities)
	if err != nil {
		zap.S().Named("activities_handler").Errorw("failed to render workbook", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render workbook"})
		return
	}

	filename := fmt.Sprintf("activities_%s_%s.xlsx", params.Start.Format(time.DateOnly), params.End.Format(time.DateOnly))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// GetActivitySteps returns the splits of an activity
// (GET /activity/{activity_id}/steps)
func (h *Handler) GetActivitySteps(c *gin.Context, activityId int64) {
	c.JSON(http.StatusOK, v1.NewActivitySteps(h.fitnessSrv.ActivitySteps(c.Request.Context(), activityId)))
}
