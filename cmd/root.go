package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kilianp07/maskalloc/config"
	coremon "github.com/kilianp07/maskalloc/core/monitoring"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "maskalloc",
	Short:         "Assign streets to pharmacies for face mask distribution",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(*cobra.Command, []string) {
		// Missing dotenv files are fine; the environment may be set already.
		_ = godotenv.Load(".env.local")
		_ = godotenv.Load(".env")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
}

// Execute runs the CLI.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		coremon.Capture("cli", err)
		coremon.Flush(2 * time.Second)
	}
	return err
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
