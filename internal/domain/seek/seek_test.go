package seek

import (
	"reflect"
	"testing"
)

func TestResolve_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		sec         float64
		fps         float64
		frameCount  int
		wantIndex   int
		wantSeconds float64
		wantClamped bool
	}{
		{
			name: "start of video",
			sec:  0, fps: 30, frameCount: 300,
			wantIndex: 0, wantSeconds: 0,
		},
		{
			name: "exact frame",
			sec:  5, fps: 30, frameCount: 300,
			wantIndex: 150, wantSeconds: 5,
		},
		{
			name: "rounds to nearest frame",
			sec:  1.017, fps: 30, frameCount: 300,
			wantIndex: 31, wantSeconds: 1.017,
		},
		{
			name: "past end clamps to duration minus margin",
			sec:  15, fps: 30, frameCount: 300,
			wantIndex: 297, wantSeconds: 9.9, wantClamped: true,
		},
		{
			name: "exactly at duration bounds to last frame",
			sec:  10, fps: 30, frameCount: 300,
			wantIndex: 299, wantSeconds: 10,
		},
		{
			name: "zero fps falls back to default rate",
			sec:  2, fps: 0, frameCount: 300,
			wantIndex: 60, wantSeconds: 2,
		},
		{
			name: "unknown frame count disables clamping",
			sec:  120, fps: 30, frameCount: 0,
			wantIndex: 0, wantSeconds: 120,
		},
		{
			name: "single frame video",
			sec:  5, fps: 30, frameCount: 1,
			wantIndex: 0, wantSeconds: 0, wantClamped: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.sec, tt.fps, tt.frameCount)
			if got.Index != tt.wantIndex {
				t.Fatalf("index = %d, want %d", got.Index, tt.wantIndex)
			}
			if !almostEqual(got.Seconds, tt.wantSeconds) {
				t.Fatalf("seconds = %v, want %v", got.Seconds, tt.wantSeconds)
			}
			if got.Clamped != tt.wantClamped {
				t.Fatalf("clamped = %v, want %v", got.Clamped, tt.wantClamped)
			}
		})
	}
}

func TestCandidates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		target  Target
		retries int
		want    []int
	}{
		{name: "full window", target: Target{Index: 150}, retries: 4, want: []int{150, 149, 148, 147, 146}},
		{name: "near start drops negatives", target: Target{Index: 2}, retries: 4, want: []int{2, 1, 0}},
		{name: "index zero", target: Target{Index: 0}, retries: 4, want: []int{0}},
		{name: "no retries", target: Target{Index: 7}, retries: 0, want: []int{7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.target.Candidates(tt.retries); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("candidates = %v, want %v", got, tt.want)
			}
		})
	}
}

func almostEqual(a, b float64) bool {
	const eps = 1e-9
	d := a - b
	return d < eps && d > -eps
}
