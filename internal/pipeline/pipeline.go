package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atarasenko/framegrab/internal/ports"
	"github.com/atarasenko/framegrab/internal/ports/adapters/ffmpeg"
	"github.com/atarasenko/framegrab/internal/ports/adapters/imagefile"
	"github.com/atarasenko/framegrab/internal/ports/adapters/opencv"
	"github.com/atarasenko/framegrab/internal/ports/adapters/pdf"
	"github.com/atarasenko/framegrab/internal/ports/adapters/pptx"
	"github.com/atarasenko/framegrab/internal/ports/adapters/ytdlp"
	"github.com/atarasenko/framegrab/internal/ports/adapters/zipper"
	"github.com/atarasenko/framegrab/internal/types"
	"github.com/atarasenko/framegrab/internal/usecase"
)

type Config struct {
	// Input is a local video path, or a URL when no file exists at it.
	Input    string
	RawTimes string

	// OutRoot is the directory session directories are created under.
	// Defaults to "runs".
	OutRoot string
	// Format is the frame image extension: "jpg" or "png".
	Format string

	PDF  bool
	Deck bool
	Zip  bool

	MinSharpness float64
	SeekRetries  int

	YTDLPPath string
	// Formats is the yt-dlp format selector priority list; empty means the
	// adapter defaults.
	Formats []string

	Log *zap.Logger
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Input) == "" {
		return errors.New("input is empty")
	}
	if strings.TrimSpace(c.RawTimes) == "" {
		return errors.New("times are empty")
	}
	switch c.Format {
	case "jpg", "jpeg", "png":
	default:
		return fmt.Errorf("unsupported format %q (want jpg or png)", c.Format)
	}
	if c.MinSharpness < 0 {
		return errors.New("min sharpness must be >= 0")
	}
	if c.SeekRetries < 0 {
		return errors.New("seek retries must be >= 0")
	}
	if _, err := os.Stat(c.Input); err != nil {
		// Not a local file, so it has to be a fetchable URL.
		if uerr := ytdlp.ValidateURL(c.Input); uerr != nil {
			return fmt.Errorf("input is neither a local file (%v) nor a valid url (%v)", err, uerr)
		}
	}
	return nil
}

// Result is what a full run produced: the session directory, the written
// manifest, and the per-timestamp outcomes for callers that want to inspect
// partial success.
type Result struct {
	SessionDir  string
	Manifest    types.Manifest
	Extractions []types.Extraction
}

func Run(ctx context.Context, cfg Config) (Result, error) {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}

	outRoot := cfg.OutRoot
	if outRoot == "" {
		outRoot = "runs"
	}

	session := newSessionID()
	sessionDir := filepath.Join(outRoot, session)
	imagesDir := filepath.Join(sessionDir, "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create session dir: %w", err)
	}
	log.Info("session started", zap.String("dir", sessionDir))

	prober := ffmpeg.New(log)
	videoPath, cleanup, err := resolveInput(ctx, cfg, sessionDir, prober, log)
	if err != nil {
		return Result{}, err
	}
	defer cleanup()

	var duration float64
	if d, err := prober.Duration(videoPath); err != nil {
		log.Warn("duration probe failed", zap.Error(err))
	} else {
		duration = d
		log.Info("video probed", zap.Float64("duration_sec", d))
	}

	uc := usecase.New(usecase.Deps{
		Video:  opencv.New(log),
		Images: imagefile.New(),
		Log:    log,
	})
	res, err := uc.Run(ctx, usecase.Input{
		VideoPath:    videoPath,
		RawTimes:     cfg.RawTimes,
		OutDir:       imagesDir,
		Format:       cfg.Format,
		MinSharpness: cfg.MinSharpness,
		SeekRetries:  cfg.SeekRetries,
	})
	if err != nil {
		return Result{}, err
	}

	manifest := buildManifest(session, cfg.Input, videoPath, duration, res)
	if len(res.Images) > 0 {
		if err := runExporters(ctx, cfg, sessionDir, res.Images, &manifest, log); err != nil {
			return Result{}, err
		}
	} else {
		log.Warn("no frames extracted, skipping exports")
	}

	b, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("marshal manifest: %w", err)
	}
	manifestPath := filepath.Join(sessionDir, "manifest.json")
	if err := os.WriteFile(manifestPath, b, 0o644); err != nil {
		return Result{}, fmt.Errorf("write manifest: %w", err)
	}
	log.Info("manifest written",
		zap.String("path", manifestPath),
		zap.Int("frames", len(res.Images)),
	)

	return Result{SessionDir: sessionDir, Manifest: manifest, Extractions: res.Extractions}, nil
}

// newSessionID names a session directory run_<8 hex>.
func newSessionID() string {
	return "run_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// resolveInput turns cfg.Input into a decodable local path: local files are
// used as-is; URLs are downloaded into the session directory and remuxed to
// mp4 when the download landed in another container. The returned cleanup
// removes downloaded intermediates and never fails the run.
func resolveInput(ctx context.Context, cfg Config, sessionDir string, prober ports.MediaProber, log *zap.Logger) (string, func(), error) {
	noop := func() {}
	if _, err := os.Stat(cfg.Input); err == nil {
		return cfg.Input, noop, nil
	}

	fetcher := ytdlp.New(cfg.YTDLPPath, cfg.Formats, log)
	downloaded, err := fetcher.Fetch(ctx, cfg.Input, sessionDir)
	if err != nil {
		return "", noop, err
	}

	temps := []string{downloaded}
	cleanup := func() {
		for _, p := range temps {
			if err := os.Remove(p); err != nil {
				log.Warn("removing downloaded video", zap.String("path", p), zap.Error(err))
			}
		}
	}

	videoPath := downloaded
	if strings.ToLower(filepath.Ext(downloaded)) != ".mp4" {
		remuxed := filepath.Join(sessionDir, "video.mp4")
		if err := prober.Remux(downloaded, remuxed); err != nil {
			cleanup()
			return "", noop, err
		}
		temps = append(temps, remuxed)
		videoPath = remuxed
	}
	return videoPath, cleanup, nil
}

func buildManifest(session, input, videoPath string, duration float64, res usecase.Result) types.Manifest {
	m := types.Manifest{
		Session:     session,
		Input:       input,
		Video:       filepath.Base(videoPath),
		DurationSec: duration,
		Frames:      make([]types.ManifestFrame, 0, len(res.Extractions)),
		Images:      make([]string, 0, len(res.Images)),
	}
	for _, e := range res.Extractions {
		mf := types.ManifestFrame{
			Time:      e.Spec.Raw,
			TimeSec:   e.Spec.Seconds,
			Millis:    e.Spec.Millis(),
			Sharpness: e.Sharpness,
			Status:    string(e.Status),
			Reason:    e.Reason,
		}
		if e.File != "" {
			mf.File = filepath.ToSlash(filepath.Join("images", filepath.Base(e.File)))
		}
		m.Frames = append(m.Frames, mf)
	}
	for _, p := range res.Images {
		m.Images = append(m.Images, filepath.Base(p))
	}
	return m
}

// runExporters builds the requested artifacts concurrently. Each exporter
// writes its own file, so there is no shared output path between goroutines.
func runExporters(ctx context.Context, cfg Config, sessionDir string, images []string, m *types.Manifest, log *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	if cfg.PDF {
		out := filepath.Join(sessionDir, "frames.pdf")
		g.Go(func() error { return pdf.New(log).Export(gctx, images, out) })
		m.PDF = filepath.Base(out)
	}
	if cfg.Deck {
		out := filepath.Join(sessionDir, "frames.pptx")
		g.Go(func() error { return pptx.New(log).Export(gctx, images, out) })
		m.Deck = filepath.Base(out)
	}
	if cfg.Zip {
		out := filepath.Join(sessionDir, "frames.zip")
		g.Go(func() error { return zipper.New(log).Export(gctx, images, out) })
		m.Zip = filepath.Base(out)
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// ensure adapters implement ports
var _ ports.VideoSource = (*opencv.Source)(nil)
var _ ports.ImageWriter = (*imagefile.Writer)(nil)
var _ ports.Retriever = (*ytdlp.Adapter)(nil)
var _ ports.MediaProber = (*ffmpeg.Adapter)(nil)
var _ ports.Exporter = (*pdf.Adapter)(nil)
var _ ports.Exporter = (*pptx.Adapter)(nil)
var _ ports.Exporter = (*zipper.Adapter)(nil)
