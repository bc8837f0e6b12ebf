package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"filestorage/internal/config"
)

var (
	cfgFile   string
	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "filestorage",
	Short:         "Project-scoped file storage service",
	Long:          `Stores project files in an S3-compatible bucket and keeps their metadata, access roles and quotas in a SQL database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewConfig(cfgFile)
		if err != nil {
			return err
		}
		appConfig = cfg
		return setupLogging(cfg.Log)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is filestorage.* in ., ~/.filestorage or /etc/filestorage)")

	rootCmd.AddCommand(serveCmd, migrateCmd, projectCmd, userCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("filestorage exited with error", "error", err)
		os.Exit(1)
	}
}
