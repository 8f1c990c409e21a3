package ports

import (
	"context"
	"errors"

	"github.com/atarasenko/framegrab/internal/types"
)

// ErrSeekFailed reports that no frame could be decoded at or near a requested
// position. Callers treat it as a per-timestamp skip, never as fatal.
var ErrSeekFailed = errors.New("seek failed")

type VideoSource interface {
	Open(path string) (VideoHandle, error)
}

// VideoHandle is an exclusive decoder handle. Grab moves the decoder cursor,
// so calls must be serialized; Close releases the decoder and must run on
// every exit path.
type VideoHandle interface {
	Meta() types.VideoMeta
	Grab(ctx context.Context, spec types.TimeSpec, retries int) (*types.Frame, error)
	Close() error
}

type ImageWriter interface {
	Save(frame *types.Frame, path string) error
}

type Retriever interface {
	Fetch(ctx context.Context, url, destDir string) (string, error)
}

type MediaProber interface {
	Duration(path string) (float64, error)
	Remux(inPath, outPath string) error
}

// Exporter builds one derived artifact from the persisted frame files. Paths
// arrive in extraction order.
type Exporter interface {
	Export(ctx context.Context, imagePaths []string, outPath string) error
}
