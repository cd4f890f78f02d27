package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ridgeline-health/notegen/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "notegen",
	Short: "AI-assisted clinical note generation service",
	Long:  "Generates structured clinical notes and intake sections from session material via hosted completion providers, with risk assessment, confidence gating, and audit logging.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
