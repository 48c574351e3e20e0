package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/carecost/internal/db"
	"github.com/gyeh/carecost/internal/exitcode"
	"github.com/gyeh/carecost/internal/loader"
	"github.com/gyeh/carecost/internal/logging"
)

var loadHCPCSCmd = &cobra.Command{
	Use:   "load-hcpcs",
	Short: "Load a CMS ALPHA-NUMERIC HCPCS release file",
	RunE:  runLoadHCPCS,
}

func init() {
	f := loadHCPCSCmd.Flags()
	f.StringSliceVar(&cfg.FilePaths, "file", nil, "Path to the HCPCS release file (required)")
	f.StringVar(&cfg.Version, "version", "", "Release version label, e.g. 2025-10 (required)")
	f.BoolVar(&cfg.Force, "force", false, "Re-load a file whose SHA already exists")
	f.BoolVar(&cfg.KeepStaging, "keep-staging", false, "Keep staging rows after promote")
	_ = loadHCPCSCmd.MarkFlagRequired("file")
	_ = loadHCPCSCmd.MarkFlagRequired("version")
	rootCmd.AddCommand(loadHCPCSCmd)
}

func runLoadHCPCS(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.Debug)
	ctx := context.Background()

	if err := cfg.ValidateHCPCSLoad(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewLoadPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	summary, err := loader.RunHCPCS(ctx, pool, log, &cfg)
	if err != nil {
		exitPipeline(log, err, "hcpcs load failed")
	}

	fmt.Printf("HCPCS load complete: %d rows staged, %d codes, %d descriptions, %d meta rows (%.1fs)\n",
		summary.RowsStaged, summary.CodesUpserted, summary.DescriptionsInserted,
		summary.MetaRowsInserted, summary.DurationTotal.Seconds())
	return nil
}

// exitPipeline maps a pipeline failure to the phase-specific exit code.
func exitPipeline(log zerolog.Logger, err error, msg string) {
	var pe *loader.PipelineError
	if errors.As(err, &pe) {
		log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg(msg)
		switch pe.Phase {
		case "preflight":
			os.Exit(exitcode.ValidationError)
		case "stage":
			os.Exit(exitcode.CopyError)
		default:
			os.Exit(exitcode.PromoteError)
		}
	}
	log.Error().Err(err).Msg(msg)
	os.Exit(exitcode.PromoteError)
}
