package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/atarasenko/framegrab/internal/domain/timestamp"
	"github.com/atarasenko/framegrab/internal/ports"
	"github.com/atarasenko/framegrab/internal/types"
)

// blurWarnThreshold is the Laplacian-variance score below which a frame is
// flagged as likely blurry in the logs. It never rejects frames on its own;
// rejection happens only when the caller sets MinSharpness.
const blurWarnThreshold = 5.0

// DefaultSeekRetries is how many earlier frame indices a seek falls back to
// before the timestamp is given up on.
const DefaultSeekRetries = 4

type Deps struct {
	Video  ports.VideoSource
	Images ports.ImageWriter
	Log    *zap.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return Usecase{d: d}
}

type Input struct {
	VideoPath string
	RawTimes  string
	OutDir    string
	// Format is the image extension without the dot: "jpg" or "png".
	Format string
	// MinSharpness rejects frames scoring below it; zero disables the gate.
	MinSharpness float64
	SeekRetries  int
}

// Result reports every requested timestamp in input order. Images holds only
// the persisted file paths, also in input order.
type Result struct {
	Meta        types.VideoMeta
	Extractions []types.Extraction
	Images      []string
}

// Run extracts one frame per requested timestamp. A malformed timestamp list
// or an unopenable video is fatal; a timestamp that cannot be decoded or a
// frame that cannot be written only fails that entry and the batch goes on.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	specs, err := timestamp.ParseList(in.RawTimes)
	if err != nil {
		return Result{}, err
	}

	retries := in.SeekRetries
	if retries <= 0 {
		retries = DefaultSeekRetries
	}

	h, err := u.d.Video.Open(in.VideoPath)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if cerr := h.Close(); cerr != nil {
			u.d.Log.Warn("closing video", zap.Error(cerr))
		}
	}()

	res := Result{Meta: h.Meta(), Extractions: make([]types.Extraction, 0, len(specs))}
	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.append(u.extractOne(ctx, h, spec, in, retries))
	}

	u.d.Log.Info("extraction finished",
		zap.Int("requested", len(specs)),
		zap.Int("extracted", len(res.Images)),
	)
	return res, nil
}

func (u Usecase) extractOne(ctx context.Context, h ports.VideoHandle, spec types.TimeSpec, in Input, retries int) types.Extraction {
	out := types.Extraction{Spec: spec}

	frame, err := h.Grab(ctx, spec, retries)
	if err != nil {
		if errors.Is(err, ports.ErrSeekFailed) {
			u.d.Log.Warn("skipping timestamp", zap.String("time", spec.Raw), zap.Error(err))
			out.Status = types.StatusSkipped
			out.Reason = err.Error()
			return out
		}
		u.d.Log.Error("decoding frame", zap.String("time", spec.Raw), zap.Error(err))
		out.Status = types.StatusFailed
		out.Reason = err.Error()
		return out
	}

	out.Sharpness = frame.Sharpness
	u.d.Log.Debug("frame decoded",
		zap.String("time", spec.Raw),
		zap.Float64("sharpness", frame.Sharpness),
	)
	if frame.Sharpness < blurWarnThreshold {
		u.d.Log.Warn("frame looks blurry",
			zap.String("time", spec.Raw),
			zap.Float64("sharpness", frame.Sharpness),
		)
	}
	if in.MinSharpness > 0 && frame.Sharpness < in.MinSharpness {
		out.Status = types.StatusSkipped
		out.Reason = fmt.Sprintf("sharpness %.2f below minimum %.2f", frame.Sharpness, in.MinSharpness)
		return out
	}

	// Specs rounding to the same millisecond share a name: the last write
	// wins and earlier entries end up pointing at the survivor.
	path := filepath.Join(in.OutDir, fmt.Sprintf("frame_%dms.%s", spec.Millis(), in.Format))
	if err := u.d.Images.Save(frame, path); err != nil {
		u.d.Log.Error("persisting frame", zap.String("time", spec.Raw), zap.Error(err))
		out.Status = types.StatusFailed
		out.Reason = err.Error()
		return out
	}

	out.Status = types.StatusOK
	out.File = path
	return out
}

func (r *Result) append(e types.Extraction) {
	r.Extractions = append(r.Extractions, e)
	if e.Status == types.StatusOK {
		r.Images = append(r.Images, e.File)
	}
}
