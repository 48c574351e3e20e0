package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gyeh/carecost/internal/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "carecost",
	Short: "Procedure cost estimation API and CMS fee-schedule loader",
	Long:  "Serves workflow-level procedure cost estimates over HTTP and bulk-loads CMS Physician Fee Schedule and HCPCS release files into Postgres.",
}

func init() {
	_ = godotenv.Load()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("DATABASE_URL"), "Postgres connection string (or set DATABASE_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")
}
