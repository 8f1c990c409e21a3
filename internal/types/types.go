package types

import (
	"image"
	"math"
)

// TimeSpec is a single requested extraction point: the raw token as the user
// typed it plus its parsed position in seconds.
type TimeSpec struct {
	Raw     string
	Seconds float64
}

// Millis returns the position rounded to whole milliseconds. It names the
// output file, so two specs rounding to the same millisecond share one file.
func (t TimeSpec) Millis() int64 {
	return int64(math.Round(t.Seconds * 1000))
}

// VideoMeta describes an opened video as the decoder reports it.
type VideoMeta struct {
	FPS         float64
	FrameCount  int
	DurationSec float64
}

// Frame is a decoded still. Image holds the raster in RGB channel order,
// already converted from whatever the decoder produced natively.
type Frame struct {
	Spec      TimeSpec
	Image     image.Image
	Sharpness float64
}

type ExtractionStatus string

const (
	StatusOK      ExtractionStatus = "ok"
	StatusSkipped ExtractionStatus = "skipped"
	StatusFailed  ExtractionStatus = "failed"
)

// Extraction is the per-timestamp outcome. File and Sharpness are set only
// when a frame was decoded; Reason explains skips and failures.
type Extraction struct {
	Spec      TimeSpec
	Status    ExtractionStatus
	File      string
	Sharpness float64
	Reason    string
}

type Manifest struct {
	Session     string          `json:"session"`
	Input       string          `json:"input"`
	Video       string          `json:"video"`
	DurationSec float64         `json:"duration_sec,omitempty"`
	Frames      []ManifestFrame `json:"frames"`
	Images      []string        `json:"images"`
	PDF         string          `json:"pdf,omitempty"`
	Deck        string          `json:"pptx,omitempty"`
	Zip         string          `json:"zip,omitempty"`
}

type ManifestFrame struct {
	Time      string  `json:"time"`
	TimeSec   float64 `json:"time_sec"`
	Millis    int64   `json:"millis"`
	File      string  `json:"file,omitempty"`
	Sharpness float64 `json:"sharpness,omitempty"`
	Status    string  `json:"status"`
	Reason    string  `json:"reason,omitempty"`
}
