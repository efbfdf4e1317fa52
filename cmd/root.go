package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fitness-proxy/garmin-proxy/internal/config"
)

// envBindings maps flags to the environment variables that set them when the
// flag is not given on the command line.
var envBindings = map[string]string{
	"server-http-port": "PORT",
	"api-key":          "API_KEY",
	"tz":               "TZ",
	"asgi-app":         "ASGI_APP",
	"garmin-url":       "GARMIN_API_URL",
	"log-level":        "LOG_LEVEL",
	"log-format":       "LOG_FORMAT",
	"num-workers":      "NUM_WORKERS",
}

func NewRootCommand(cfg *config.Configuration) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "garmin-proxy",
		Short:         "Read-only proxy over the Garmin Connect API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := bindEnvironment(cmd.Flags(), envBindings); err != nil {
				return err
			}
			return setupLogger(cfg.Log)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "Log format (console, json)")
	rootCmd.PersistentFlags().StringVar(&cfg.Credentials.TokensFile, "tokens-file", cfg.Credentials.TokensFile, "Default single-file credential location, overridden by GARMINTOKENS_PATH")
	rootCmd.PersistentFlags().StringVar(&cfg.Credentials.TokensDir, "tokens-dir", cfg.Credentials.TokensDir, "Two-file credential directory")

	return rootCmd
}

// bindEnvironment sets every flag left unset on the command line from its
// environment variable.
func bindEnvironment(flags *pflag.FlagSet, bindings map[string]string) error {
	v := viper.New()
	for flag, env := range bindings {
		if err := v.BindEnv(flag, env); err != nil {
			return err
		}
	}

	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		if err := flags.Set(f.Name, v.GetString(f.Name)); err != nil {
			errs = append(errs, fmt.Errorf("invalid value for %s: %w", bindings[f.Name], err))
		}
	})

	return errors.Join(errs...)
}

func setupLogger(cfg config.Log) error {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log-level: %w", err)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.Development = false
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	return nil
}
