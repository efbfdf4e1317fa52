package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fitness-proxy/garmin-proxy/internal/config"
	"github.com/fitness-proxy/garmin-proxy/internal/server/middlewares"
	"github.com/fitness-proxy/garmin-proxy/pkg/certificates"
)

const (
	HealthPath  = "/health"
	MetricsPath = "/metrics"

	certificateValidity = 365 * 24 * time.Hour
)

type Server struct {
	srv *http.Server
}

// NewServer builds the HTTP server. Routes registered by registerHandlerFn are
// mounted at the root and require the API key when one is configured; the
// health and metrics routes never do.
func NewServer(cfg *config.Configuration, registerHandlerFn func(router *gin.RouterGroup)) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	}
	engine := gin.New()

	srv := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", cfg.Server.HTTPPort),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Server.TLS {
		tlsConfig, err := certificates.TLSConfig([]string{"localhost", "127.0.0.1"}, certificateValidity)
		if err != nil {
			return nil, err
		}
		srv.TLSConfig = tlsConfig
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "API endpoint not found",
		})
	})

	router := engine.Group("/")

	router.Use(
		middlewares.RequestID(),
		middlewares.Logger(),
		ginzap.RecoveryWithZap(zap.S().Desugar(), true),
		middlewares.APIKey(cfg.Server.APIKey, HealthPath, MetricsPath),
	)

	router.GET(MetricsPath, gin.WrapH(promhttp.Handler()))
	registerHandlerFn(router)

	return &Server{srv: srv}, nil
}

// Start starts the HTTP or HTTPS server based on TLS configuration.
// It returns nil once Stop has been called.
func (r *Server) Start(ctx context.Context) error {
	var err error
	if r.srv.TLSConfig != nil {
		err = r.srv.ListenAndServeTLS("", "")
	} else {
		err = r.srv.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (r *Server) Stop(ctx context.Context) {
	if err := r.srv.Shutdown(ctx); err != nil {
		zap.S().Errorw("server shutdown", "error", err)
	}
}
