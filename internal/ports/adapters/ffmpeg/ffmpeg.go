package ffmpeg

import (
	"fmt"
	"strconv"

	"github.com/xfrr/goffmpeg/transcoder"
	"go.uber.org/zap"
)

type Adapter struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{log: log}
}

// Duration probes the container metadata for the stream duration in seconds.
func (a *Adapter) Duration(path string) (float64, error) {
	trans := new(transcoder.Transcoder)
	if err := trans.Initialize(path, ""); err != nil {
		return 0, fmt.Errorf("probe %s: %w", path, err)
	}

	raw := trans.MediaFile().Metadata().Format.Duration
	sec, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q of %s: %w", raw, path, err)
	}
	return sec, nil
}

// Remux rewraps the streams of inPath into an mp4 container without
// re-encoding. Index-based seeking over mkv and webm downloads is unreliable,
// mp4 is not.
func (a *Adapter) Remux(inPath, outPath string) error {
	trans := new(transcoder.Transcoder)
	if err := trans.Initialize(inPath, outPath); err != nil {
		return fmt.Errorf("remux init %s: %w", inPath, err)
	}
	trans.MediaFile().SetVideoCodec("copy")
	trans.MediaFile().SetAudioCodec("copy")
	trans.MediaFile().SetOutputFormat("mp4")

	a.log.Debug("remuxing to mp4", zap.String("in", inPath), zap.String("out", outPath))
	done := trans.Run(false)
	if err := <-done; err != nil {
		return fmt.Errorf("remux %s: %w", inPath, err)
	}
	return nil
}
