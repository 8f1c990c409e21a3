package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/atarasenko/framegrab/internal/usecase"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "framegrab <input>",
		Short:        "Extract still frames from a video at given timestamps",
		Long:         "framegrab takes a local video file or a URL plus a list of timestamps and writes one image per timestamp, optionally packaged as a PDF, a slide deck or a zip.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	// Visible flags
	root.Flags().String("times", "", `Timestamps to extract, separated by commas and/or whitespace (e.g. "0:05, 1:30 1:01:30")`)
	root.Flags().String("out", "", "Root directory for session output (default from FRAMEGRAB_WORKDIR, else \"runs\")")
	root.Flags().String("format", "jpg", "Frame image format: jpg or png")
	root.Flags().Bool("pdf", false, "Also build a PDF with one frame per page")
	root.Flags().Bool("pptx", false, "Also build a slide deck with one frame per slide")
	root.Flags().Bool("zip", false, "Also bundle the frames into a zip archive")
	root.Flags().Float64("min-sharpness", 0, "Skip frames whose sharpness score is below this (0 disables)")
	_ = root.MarkFlagRequired("times")

	// Hidden tuning flag (internal)
	root.Flags().Int("seek-retries", usecase.DefaultSeekRetries, "Backward frame steps to retry a failed seek")
	_ = root.Flags().MarkHidden("seek-retries")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
