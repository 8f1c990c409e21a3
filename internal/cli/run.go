package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/atarasenko/framegrab/internal/pipeline"
	"github.com/atarasenko/framegrab/pkg/logger"
)

// envConfig is the environment surface; flags override it where both exist.
type envConfig struct {
	YTDLP        string   `env:"FRAMEGRAB_YTDLP"`
	Formats      []string `env:"FRAMEGRAB_FORMATS" envSeparator:"|"`
	Workdir      string   `env:"FRAMEGRAB_WORKDIR" envDefault:"runs"`
	LogLevel     string   `env:"FRAMEGRAB_LOG_LEVEL" envDefault:"info"`
	MinSharpness float64  `env:"FRAMEGRAB_MIN_SHARPNESS"`
}

func run(cmd *cobra.Command, input string) error {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return fmt.Errorf("env config: %w", err)
	}

	times, _ := cmd.Flags().GetString("times")
	format, _ := cmd.Flags().GetString("format")
	wantPDF, _ := cmd.Flags().GetBool("pdf")
	wantDeck, _ := cmd.Flags().GetBool("pptx")
	wantZip, _ := cmd.Flags().GetBool("zip")
	retries, _ := cmd.Flags().GetInt("seek-retries")

	outRoot := ec.Workdir
	if cmd.Flags().Changed("out") {
		outRoot, _ = cmd.Flags().GetString("out")
	}
	minSharpness := ec.MinSharpness
	if cmd.Flags().Changed("min-sharpness") {
		minSharpness, _ = cmd.Flags().GetFloat64("min-sharpness")
	}

	log, err := logger.New(ec.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck // stderr sync failure is uninteresting

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	cfg := pipeline.Config{
		Input:    input,
		RawTimes: times,

		OutRoot: outRoot,
		Format:  format,

		PDF:  wantPDF,
		Deck: wantDeck,
		Zip:  wantZip,

		MinSharpness: minSharpness,
		SeekRetries:  retries,

		YTDLPPath: ec.YTDLP,
		Formats:   ec.Formats,

		Log: log,
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	res, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "extracted %d/%d frames -> %s\n",
		len(res.Manifest.Images), len(res.Extractions), res.SessionDir)
	return nil
}
