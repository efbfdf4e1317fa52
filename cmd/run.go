package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"reflect"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	v1 "github.com/fitness-proxy/garmin-proxy/api/v1"
	"github.com/fitness-proxy/garmin-proxy/internal/config"
	"github.com/fitness-proxy/garmin-proxy/internal/handlers"
	"github.com/fitness-proxy/garmin-proxy/internal/metrics"
	"github.com/fitness-proxy/garmin-proxy/internal/server"
	"github.com/fitness-proxy/garmin-proxy/internal/services"
	"github.com/fitness-proxy/garmin-proxy/pkg/credentials"
	srvErrors "github.com/fitness-proxy/garmin-proxy/pkg/errors"
	"github.com/fitness-proxy/garmin-proxy/pkg/garmin"
	"github.com/fitness-proxy/garmin-proxy/pkg/scheduler"
)

func NewRunCommand(cfg *config.Configuration) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Resolve the credentials and serve the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateConfiguration(cfg); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	registerRunFlags(runCmd, cfg)

	return runCmd
}

func registerRunFlags(cmd *cobra.Command, cfg *config.Configuration) {
	flags := cmd.Flags()

	flags.IntVar(&cfg.Server.HTTPPort, "server-http-port", cfg.Server.HTTPPort, "Port to listen on")
	flags.StringVar(&cfg.Server.APIKey, "api-key", cfg.Server.APIKey, "Key expected in the X-API-Key header; empty disables the check")
	flags.BoolVar(&cfg.Server.TLS, "server-tls", cfg.Server.TLS, "Serve HTTPS with a self-signed certificate")
	flags.DurationVar(&cfg.Server.ShutdownTimeout, "server-shutdown-timeout", cfg.Server.ShutdownTimeout, "Grace period for in-flight requests on shutdown")

	flags.StringVar(&cfg.Garmin.URL, "garmin-url", cfg.Garmin.URL, "Garmin Connect API base URL")
	flags.StringVar(&cfg.Garmin.UserAgent, "garmin-user-agent", cfg.Garmin.UserAgent, "User-Agent sent to the Garmin API")
	flags.DurationVar(&cfg.Garmin.Timeout, "garmin-timeout", cfg.Garmin.Timeout, "Timeout of a single Garmin API request")
	flags.Float64Var(&cfg.Garmin.RateLimit, "garmin-rate-limit", cfg.Garmin.RateLimit, "Garmin API requests per second, 0 for unlimited")
	flags.IntVar(&cfg.Garmin.RateBurst, "garmin-rate-burst", cfg.Garmin.RateBurst, "Garmin API request burst")
	flags.UintVar(&cfg.Garmin.MaxRetries, "garmin-max-retries", cfg.Garmin.MaxRetries, "Retries of a failed Garmin API request")

	flags.StringVar(&cfg.Timezone, "tz", cfg.Timezone, "Process timezone")
	flags.StringVar(&cfg.AsgiApp, "asgi-app", cfg.AsgiApp, "Unused, accepted for compatibility")
	flags.IntVar(&cfg.NumWorkers, "num-workers", cfg.NumWorkers, "Number of workers running vendor calls")
}

func validateConfiguration(cfg *config.Configuration) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("flag"); name != "" {
			return name
		}
		return fld.Name
	})

	if err := validate.Struct(cfg); err != nil {
		var vErrs validator.ValidationErrors
		if !errors.As(err, &vErrs) {
			return err
		}
		msgs := make([]string, 0, len(vErrs))
		for _, fe := range vErrs {
			msgs = append(msgs, fmt.Sprintf("invalid %s: %v", fe.Field(), fe.Value()))
		}
		return errors.New(strings.Join(msgs, "; "))
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid tz: %w", err)
	}

	return nil
}

func run(ctx context.Context, cfg *config.Configuration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return err
	}
	time.Local = loc

	if cfg.AsgiApp != "" {
		zap.S().Warnw("ASGI_APP is ignored", "value", cfg.AsgiApp)
	}

	// Nothing listens before the credentials are resolved.
	fs := osfs.New("/", osfs.WithBoundOS())
	layout := credentials.Layout{
		SingleFile: cfg.Credentials.TokensFile,
		TwoFileDir: cfg.Credentials.TokensDir,
	}
	target, err := credentials.NewResolver(fs, layout, credentials.EnvironmentFromOS()).Resolve()
	if err != nil {
		return err
	}
	recordResolution(target)

	session, err := garmin.LoadSession(credentials.NewDiskStore(fs), target)
	if err != nil {
		return fmt.Errorf("failed to load garmin session: %w", err)
	}
	if session.Expired(time.Now()) {
		zap.S().Warnw("oauth2 token already expired, vendor calls will fail until the tokens are refreshed", "expiry", session.Token.Expiry)
	}

	client, err := garmin.NewClient(garmin.Config{
		BaseURL:    cfg.Garmin.URL,
		UserAgent:  cfg.Garmin.UserAgent,
		Timeout:    cfg.Garmin.Timeout,
		RateLimit:  cfg.Garmin.RateLimit,
		RateBurst:  cfg.Garmin.RateBurst,
		MaxRetries: cfg.Garmin.MaxRetries,
	}, session)
	if err != nil {
		return err
	}

	sched := scheduler.NewScheduler(cfg.NumWorkers)
	defer sched.Close()

	h := handlers.New(services.NewFitnessService(client, sched))

	srv, err := server.NewServer(cfg, func(router *gin.RouterGroup) {
		v1.RegisterHandlersWithOptions(router, h, v1.GinServerOptions{
			ErrorHandler: handlers.ParameterErrorHandler,
		})
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		zap.S().Infow("server listening", "port", cfg.Server.HTTPPort, "tls", cfg.Server.TLS)
		errCh <- srv.Start(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zap.S().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	srv.Stop(shutdownCtx)

	return nil
}

func recordResolution(target credentials.ResolvedTarget) {
	metrics.RecordCredentialsResolved(string(target.Shape), string(target.Source))
	for _, n := range target.Notices {
		switch {
		case srvErrors.IsStaleArtifactRelocated(n):
			metrics.RecordCredentialNotice("stale_relocated")
		case srvErrors.IsPermissionRestrictionWarning(n):
			metrics.RecordCredentialNotice("permission_restriction")
		default:
			metrics.RecordCredentialNotice("other")
		}
	}
}
