// Package seek maps requested times to decodable frame indices. The rules
// live here, away from the decoder bindings, so they stay unit-testable.
package seek

import "math"

// DefaultFrameRate substitutes for containers whose headers report no usable
// frame rate.
const DefaultFrameRate = 30.0

// endMargin is how far before the reported end a past-the-end request lands.
// The very last frames of many files fail to decode after an index seek.
const endMargin = 0.1

// Target is a resolved seek position.
type Target struct {
	// Index is the frame to request from the decoder.
	Index int
	// Seconds is the effective time after clamping.
	Seconds float64
	// Clamped reports that the request pointed past the end of the video.
	Clamped bool
}

// Resolve computes the frame index for a requested position. Times past the
// end of a video with known duration are pulled back to just before the end;
// the index is always within [0, frameCount-1].
func Resolve(sec, fps float64, frameCount int) Target {
	if fps <= 0 || math.IsNaN(fps) {
		fps = DefaultFrameRate
	}

	var duration float64
	if frameCount > 0 {
		duration = float64(frameCount) / fps
	}

	t := Target{Seconds: sec}
	if sec > duration && duration > 0 {
		t.Seconds = math.Max(0, duration-endMargin)
		t.Clamped = true
	}

	idx := int(math.Round(t.Seconds * fps))
	if idx > frameCount-1 {
		idx = frameCount - 1
	}
	if idx < 0 {
		idx = 0
	}
	t.Index = idx
	return t
}

// Candidates lists the frame indices to try in order: the target itself, then
// up to retries earlier neighbours. Stepping backward works around decoders
// that cannot produce the exact frame after a keyframe-based seek. Indices
// below zero are not frames and are dropped.
func (t Target) Candidates(retries int) []int {
	out := make([]int, 0, retries+1)
	for i := t.Index; i >= t.Index-retries && i >= 0; i-- {
		out = append(out, i)
	}
	return out
}
