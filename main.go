package main

import (
	"context"
	"fmt"
	_ "net/http/pprof"
	"os"
	"time"

	"link_auditor/internal/application/config"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	cfg         *config.AppConfig
	logInstance = log.New()
)

var rootCmd = &cobra.Command{
	Use:   "link_auditor",
	Short: "Concurrent URL liveness and redirect audit",
	Long: `Finds every URL in a list or table, probes each distinct URL once with bounded
concurrency, follows redirects, flags dead links and soft failures, and reports
one row per URL occurrence.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.NewAppConfig(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		logLevel, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("parse log level: %w", err)
		}
		if cfg.DebugMode {
			logLevel = log.DebugLevel
		}

		logInstance.SetFormatter(&log.JSONFormatter{
			TimestampFormat:   time.RFC3339,
			DisableHTMLEscape: true,
			DisableTimestamp:  false,
		})
		logInstance.SetLevel(logLevel)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to the env config file")
	rootCmd.AddCommand(serveCmd, checkCmd)
}

func main() {
	ctx := context.WithoutCancel(context.Background())
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
