package main

import (
	"fmt"
	"os"
	"time"

	"github.com/de-tools/vm-cost-atlas/pkg/server"
	"github.com/de-tools/vm-cost-atlas/pkg/services/config"
	"github.com/de-tools/vm-cost-atlas/pkg/store/artifact"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Serve a generated VM cost report",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to the settings file (defaults apply when omitted)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(_ *cobra.Command, _ []string) error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	settings, err := config.LoadSettings(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	logger.Info().
		Str("addr", settings.Addr).
		Str("artifact", settings.ArtifactPath).
		Msg("configuration loaded")

	api := server.NewWebAPI(logger, server.Config{
		Addr:            settings.Addr,
		ShutdownTimeout: 10 * time.Second,
		Dependencies: server.Dependencies{
			Reports: artifact.NewStore(settings.ArtifactPath),
		},
	})

	return api.Start()
}
