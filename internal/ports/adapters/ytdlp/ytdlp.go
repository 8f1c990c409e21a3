package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrFetch reports that no configured format selector produced a video.
var ErrFetch = errors.New("video download failed")

// DefaultFormats returns the download format selectors tried in order, from
// the muxed default down to an explicit mp4 fallback.
func DefaultFormats() []string {
	return []string{
		"best",
		"bestvideo+bestaudio",
		"bestvideo[ext=mp4]+bestaudio[ext=m4a]/mp4",
	}
}

// videoExts are the container extensions recognized when scanning the
// download directory. mp4 first; anything else goes through a remux before
// decoding.
var videoExts = []string{".mp4", ".mkv", ".webm", ".mov", ".m4v", ".avi"}

type Adapter struct {
	bin     string
	formats []string
	log     *zap.Logger
}

func New(binPath string, formats []string, log *zap.Logger) *Adapter {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	if len(formats) == 0 {
		formats = DefaultFormats()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{bin: binPath, formats: formats, log: log}
}

// Fetch downloads the video behind rawURL into destDir and returns the local
// path. Each format selector is tried in order; a selector that fails to run
// or leaves no mp4 behind falls through to the next one.
func (a *Adapter) Fetch(ctx context.Context, rawURL, destDir string) (string, error) {
	if err := ValidateURL(rawURL); err != nil {
		return "", err
	}

	var lastErr error
	for _, format := range a.formats {
		a.log.Info("downloading video", zap.String("format", format))
		cmd := exec.CommandContext(ctx, a.bin,
			"-q",
			"--no-progress",
			"-f", format,
			"-o", filepath.Join(destDir, "%(title)s.%(ext)s"),
			rawURL,
		)
		b, err := cmd.CombinedOutput()
		if err != nil {
			lastErr = fmt.Errorf("yt-dlp -f %q: %w\n%s", format, err, string(b))
			if ctx.Err() != nil {
				return "", lastErr
			}
			continue
		}
		if path, ok := largestByExt(destDir, videoExts[:1]); ok {
			return path, nil
		}
		lastErr = fmt.Errorf("yt-dlp -f %q produced no mp4 in %s", format, destDir)
	}

	// No selector yielded an mp4, but one of them may still have written
	// another container (mkv and webm are common merge outputs).
	if path, ok := largestByExt(destDir, videoExts); ok {
		a.log.Warn("no mp4 downloaded, using fallback container", zap.String("path", path))
		return path, nil
	}
	return "", fmt.Errorf("%w: %v", ErrFetch, lastErr)
}

// ValidateURL rejects inputs that cannot be a downloadable video URL before
// any subprocess runs.
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("invalid url %q: http or https is required", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: host is required", raw)
	}
	if u.User != nil {
		return fmt.Errorf("invalid url %q: userinfo is not allowed", raw)
	}
	return nil
}

// largestByExt returns the biggest file in dir whose extension is in exts.
// yt-dlp names files after the video title, so size is the only reliable way
// to pick the main download over thumbnails and partial fragments.
func largestByExt(dir string, exts []string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	var (
		best     string
		bestSize int64
	)
	for _, e := range entries {
		if e.IsDir() || !hasExt(e.Name(), exts) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if best == "" || info.Size() > bestSize {
			best = filepath.Join(dir, e.Name())
			bestSize = info.Size()
		}
	}
	return best, best != ""
}

func hasExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
