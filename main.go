package main

import (
	"fmt"
	"os"

	"github.com/fitness-proxy/garmin-proxy/cmd"
	"github.com/fitness-proxy/garmin-proxy/internal/config"
)

func main() {
	cfg := config.NewConfigurationWithOptionsAndDefaults()

	rootCmd := cmd.NewRootCommand(cfg)
	rootCmd.AddCommand(cmd.NewRunCommand(cfg))
	rootCmd.AddCommand(cmd.NewTokensCommand(cfg))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
