package main

import (
	"link_auditor/internal/application"
	"link_auditor/internal/http"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the audit API, metrics and pprof",
	RunE: func(cmd *cobra.Command, _ []string) error {
		auditor := application.NewAuditor(cfg.Audit, logInstance)
		http.Init(cmd.Context(), logInstance, cfg, auditor)
		return nil
	},
}
