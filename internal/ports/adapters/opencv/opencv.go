package opencv

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/atarasenko/framegrab/internal/domain/seek"
	"github.com/atarasenko/framegrab/internal/ports"
	"github.com/atarasenko/framegrab/internal/types"
)

// ErrUnopenable reports a video the decoder refuses to open. Nothing can be
// extracted from it, so callers abort the run.
var ErrUnopenable = errors.New("unopenable video")

type Source struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Source {
	if log == nil {
		log = zap.NewNop()
	}
	return &Source{log: log}
}

func (s *Source) Open(path string) (ports.VideoHandle, error) {
	vc, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnopenable, path, err)
	}
	if !vc.IsOpened() {
		_ = vc.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnopenable, path)
	}

	meta := readMeta(vc)
	s.log.Debug("opened video",
		zap.String("path", path),
		zap.Float64("fps", meta.FPS),
		zap.Int("frames", meta.FrameCount),
		zap.Float64("duration_sec", meta.DurationSec),
	)
	return &Handle{vc: vc, buf: gocv.NewMat(), meta: meta, log: s.log}, nil
}

func readMeta(vc *gocv.VideoCapture) types.VideoMeta {
	fps := vc.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = seek.DefaultFrameRate
	}
	count := int(vc.Get(gocv.VideoCaptureFrameCount))
	if count < 0 {
		count = 0
	}
	meta := types.VideoMeta{FPS: fps, FrameCount: count}
	if count > 0 {
		meta.DurationSec = float64(count) / fps
	}
	return meta
}

// Handle wraps one open capture. The mutex serializes cursor movement; a
// capture cannot service two seeks at once.
type Handle struct {
	mu   sync.Mutex
	vc   *gocv.VideoCapture
	buf  gocv.Mat
	meta types.VideoMeta
	log  *zap.Logger
}

func (h *Handle) Meta() types.VideoMeta { return h.meta }

func (h *Handle) Grab(ctx context.Context, spec types.TimeSpec, retries int) (*types.Frame, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	target := seek.Resolve(spec.Seconds, h.meta.FPS, h.meta.FrameCount)
	if target.Clamped {
		h.log.Debug("timestamp past end of video, clamped",
			zap.String("time", spec.Raw),
			zap.Float64("effective_sec", target.Seconds),
		)
	}

	for _, idx := range target.Candidates(retries) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h.vc.Set(gocv.VideoCapturePosFrames, float64(idx))
		if h.vc.Read(&h.buf) && !h.buf.Empty() {
			return h.frameFromBuf(spec)
		}
	}
	return nil, fmt.Errorf("%w: %q resolves to frame %d of %d",
		ports.ErrSeekFailed, spec.Raw, target.Index, h.meta.FrameCount)
}

func (h *Handle) frameFromBuf(spec types.TimeSpec) (*types.Frame, error) {
	sharp := laplacianVariance(h.buf)
	img, err := h.buf.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame at %q: %w", spec.Raw, err)
	}
	return &types.Frame{Spec: spec, Image: img, Sharpness: sharp}, nil
}

func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.buf.Close(); err != nil {
		_ = h.vc.Close()
		return err
	}
	return h.vc.Close()
}
