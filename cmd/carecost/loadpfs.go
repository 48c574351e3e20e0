package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/carecost/internal/db"
	"github.com/gyeh/carecost/internal/exitcode"
	"github.com/gyeh/carecost/internal/loader"
	"github.com/gyeh/carecost/internal/logging"
)

var loadPFSCmd = &cobra.Command{
	Use:   "load-pfs",
	Short: "Load CMS Physician Fee Schedule payment files",
	RunE:  runLoadPFS,
}

func init() {
	f := loadPFSCmd.Flags()
	f.StringSliceVar(&cfg.FilePaths, "file", nil, "Path to a PFS payment file (repeatable, required)")
	f.IntVar(&cfg.CY, "year", 0, "Calendar year the files cover (required)")
	f.StringVar(&cfg.BaselineMode, "baseline", "avg", "Baseline collapse mode: avg, max, or min")
	f.BoolVar(&cfg.Promote, "promote", true, "Promote staged rows into serving tables")
	f.BoolVar(&cfg.Force, "force", false, "Re-load files whose SHA already exists")
	f.BoolVar(&cfg.KeepStaging, "keep-staging", false, "Keep staging rows after promote")
	_ = loadPFSCmd.MarkFlagRequired("file")
	_ = loadPFSCmd.MarkFlagRequired("year")
	rootCmd.AddCommand(loadPFSCmd)
}

func runLoadPFS(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.Debug)
	ctx := context.Background()

	if err := cfg.ValidatePFSLoad(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewLoadPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	summary, err := loader.RunPFS(ctx, pool, log, &cfg)
	if err != nil {
		exitPipeline(log, err, "pfs load failed")
	}

	fmt.Printf("PFS load complete: %d rows staged, %d locality rows, %d baseline rows (%.1fs)\n",
		summary.RowsStaged, summary.LocalityRowsUpserted, summary.BaselineRowsUpserted,
		summary.DurationTotal.Seconds())
	return nil
}
