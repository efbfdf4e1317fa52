package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	v1 "github.com/fitness-proxy/garmin-proxy/api/v1"
	"github.com/fitness-proxy/garmin-proxy/internal/models"
	srvErrors "github.com/fitness-proxy/garmin-proxy/pkg/errors"
)

var _ v1.ServerInterface = (*Handler)(nil)

type FitnessService interface {
	Params(ctx context.Context) models.Params
	Activities(ctx context.Context, start, end time.Time) ([]models.Activity, error)
	ActivitySteps(ctx context.Context, activityID int64) models.ActivitySteps
	Daily(ctx context.Context, day time.Time) models.DailyKPIs
}

type Handler struct {
	fitnessSrv FitnessService
	now        func() time.Time
}

func New(fitnessSrv FitnessService) *Handler {
	return &Handler{
		fitnessSrv: fitnessSrv,
		now:        time.Now,
	}
}

// ParameterErrorHandler renders parameter binding failures.
func ParameterErrorHandler(c *gin.Context, err error, statusCode int) {
	c.JSON(statusCode, gin.H{"error": err.Error()})
}

// vendorFailure writes the response for an error returned by the services.
func vendorFailure(c *gin.Context, name, msg string, err error) {
	switch {
	case srvErrors.IsInvalidParameterError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "vendor temporarily unavailable"})
	case srvErrors.IsVendorUnauthorizedError(err), srvErrors.IsVendorError(err):
		zap.S().Named(name).Warnw(msg, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		zap.S().Named(name).Errorw(msg, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
