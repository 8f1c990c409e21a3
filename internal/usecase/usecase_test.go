package usecase

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atarasenko/framegrab/internal/domain/timestamp"
	"github.com/atarasenko/framegrab/internal/ports"
	"github.com/atarasenko/framegrab/internal/types"
)

func TestRun_OrderAndNaming(t *testing.T) {
	t.Parallel()

	src := &fakeSource{handle: newFakeHandle(nil)}
	w := &fakeWriter{}
	uc := New(Deps{Video: src, Images: w})

	res, err := uc.Run(context.Background(), Input{
		VideoPath: "in.mp4",
		RawTimes:  "0:00, 0:05\n0:09",
		OutDir:    "out",
		Format:    "jpg",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []string{
		filepath.Join("out", "frame_0ms.jpg"),
		filepath.Join("out", "frame_5000ms.jpg"),
		filepath.Join("out", "frame_9000ms.jpg"),
	}
	if len(res.Images) != len(want) {
		t.Fatalf("expected %d images, got %d", len(want), len(res.Images))
	}
	for i, p := range want {
		if res.Images[i] != p {
			t.Fatalf("image %d: expected %s, got %s", i, p, res.Images[i])
		}
		if res.Extractions[i].Status != types.StatusOK {
			t.Fatalf("extraction %d: expected ok, got %s (%s)", i, res.Extractions[i].Status, res.Extractions[i].Reason)
		}
	}
	if !src.handle.closed {
		t.Fatalf("expected handle to be closed")
	}
}

func TestRun_InvalidTimesIsFatal(t *testing.T) {
	t.Parallel()

	src := &fakeSource{handle: newFakeHandle(nil)}
	uc := New(Deps{Video: src, Images: &fakeWriter{}})

	_, err := uc.Run(context.Background(), Input{
		VideoPath: "in.mp4",
		RawTimes:  "0:05, 1:2:3:4",
		OutDir:    "out",
		Format:    "jpg",
	})
	if !errors.Is(err, timestamp.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	if src.opens != 0 {
		t.Fatalf("expected video to stay unopened on a bad batch, got %d opens", src.opens)
	}
}

func TestRun_OpenFailureIsFatal(t *testing.T) {
	t.Parallel()

	src := &fakeSource{openErr: errors.New("unopenable video")}
	uc := New(Deps{Video: src, Images: &fakeWriter{}})

	_, err := uc.Run(context.Background(), Input{
		VideoPath: "in.mp4",
		RawTimes:  "0:05",
		OutDir:    "out",
		Format:    "jpg",
	})
	if err == nil || !strings.Contains(err.Error(), "unopenable") {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestRun_SeekFailureSkipsEntry(t *testing.T) {
	t.Parallel()

	src := &fakeSource{handle: newFakeHandle(map[float64]error{
		5: fmt.Errorf("%w: no frame near 0:05", ports.ErrSeekFailed),
	})}
	w := &fakeWriter{}
	uc := New(Deps{Video: src, Images: w})

	res, err := uc.Run(context.Background(), Input{
		VideoPath: "in.mp4",
		RawTimes:  "0:00 0:05 0:09",
		OutDir:    "out",
		Format:    "jpg",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Extractions) != 3 {
		t.Fatalf("expected 3 extraction entries, got %d", len(res.Extractions))
	}
	if res.Extractions[1].Status != types.StatusSkipped {
		t.Fatalf("expected skipped, got %s", res.Extractions[1].Status)
	}
	if len(res.Images) != 2 {
		t.Fatalf("expected 2 persisted images, got %d", len(res.Images))
	}
	if !src.handle.closed {
		t.Fatalf("expected handle to be closed after partial batch")
	}
}

func TestRun_PersistFailureIsRecordedNotFatal(t *testing.T) {
	t.Parallel()

	src := &fakeSource{handle: newFakeHandle(nil)}
	w := &fakeWriter{failPaths: map[string]bool{
		filepath.Join("out", "frame_5000ms.jpg"): true,
	}}
	uc := New(Deps{Video: src, Images: w})

	res, err := uc.Run(context.Background(), Input{
		VideoPath: "in.mp4",
		RawTimes:  "0:00 0:05 0:09",
		OutDir:    "out",
		Format:    "jpg",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Extractions[1].Status != types.StatusFailed {
		t.Fatalf("expected failed, got %s", res.Extractions[1].Status)
	}
	if res.Extractions[1].Reason == "" {
		t.Fatalf("expected a reason on the failed entry")
	}
	if len(res.Images) != 2 {
		t.Fatalf("expected 2 persisted images, got %d", len(res.Images))
	}
}

func TestRun_SharpnessGate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		minSharpness float64
		wantImages   int
		wantStatus   types.ExtractionStatus
	}{
		{name: "gate disabled keeps blurry frames", minSharpness: 0, wantImages: 2, wantStatus: types.StatusOK},
		{name: "gate rejects below minimum", minSharpness: 50, wantImages: 1, wantStatus: types.StatusSkipped},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := newFakeHandle(nil)
			h.sharpness = map[float64]float64{0: 1.5, 5: 200}
			src := &fakeSource{handle: h}
			w := &fakeWriter{}
			uc := New(Deps{Video: src, Images: w})

			res, err := uc.Run(context.Background(), Input{
				VideoPath:    "in.mp4",
				RawTimes:     "0:00 0:05",
				OutDir:       "out",
				Format:       "jpg",
				MinSharpness: tc.minSharpness,
			})
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if len(res.Images) != tc.wantImages {
				t.Fatalf("expected %d images, got %d", tc.wantImages, len(res.Images))
			}
			if res.Extractions[0].Status != tc.wantStatus {
				t.Fatalf("expected blurry entry %s, got %s", tc.wantStatus, res.Extractions[0].Status)
			}
			if res.Extractions[0].Sharpness != 1.5 {
				t.Fatalf("expected the score recorded either way, got %v", res.Extractions[0].Sharpness)
			}
		})
	}
}

func TestRun_DuplicateMillisShareOneFile(t *testing.T) {
	t.Parallel()

	src := &fakeSource{handle: newFakeHandle(nil)}
	w := &fakeWriter{}
	uc := New(Deps{Video: src, Images: w})

	res, err := uc.Run(context.Background(), Input{
		VideoPath: "in.mp4",
		RawTimes:  "0:05 5",
		OutDir:    "out",
		Format:    "jpg",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Extractions) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(res.Extractions))
	}
	if res.Extractions[0].File != res.Extractions[1].File {
		t.Fatalf("expected both specs to share a file, got %s and %s",
			res.Extractions[0].File, res.Extractions[1].File)
	}
	if len(w.saved) != 2 {
		t.Fatalf("expected 2 saves (last write wins), got %d", len(w.saved))
	}
}

func TestRun_CancelledContextStopsBatch(t *testing.T) {
	t.Parallel()

	src := &fakeSource{handle: newFakeHandle(nil)}
	uc := New(Deps{Video: src, Images: &fakeWriter{}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := uc.Run(ctx, Input{
		VideoPath: "in.mp4",
		RawTimes:  "0:00 0:05",
		OutDir:    "out",
		Format:    "jpg",
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !src.handle.closed {
		t.Fatalf("expected handle to be closed on cancellation")
	}
}

type fakeSource struct {
	handle  *fakeHandle
	openErr error
	opens   int
}

func (f *fakeSource) Open(string) (ports.VideoHandle, error) {
	f.opens++
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.handle, nil
}

// fakeHandle serves a synthetic 10s/30fps video. grabErr fails specific
// seconds; sharpness overrides the default score per second.
type fakeHandle struct {
	grabErr   map[float64]error
	sharpness map[float64]float64
	closed    bool
}

func newFakeHandle(grabErr map[float64]error) *fakeHandle {
	return &fakeHandle{grabErr: grabErr}
}

func (f *fakeHandle) Meta() types.VideoMeta {
	return types.VideoMeta{FPS: 30, FrameCount: 300, DurationSec: 10}
}

func (f *fakeHandle) Grab(_ context.Context, spec types.TimeSpec, _ int) (*types.Frame, error) {
	if err := f.grabErr[spec.Seconds]; err != nil {
		return nil, err
	}
	sharp := 100.0
	if v, ok := f.sharpness[spec.Seconds]; ok {
		sharp = v
	}
	return &types.Frame{
		Spec:      spec,
		Image:     image.NewRGBA(image.Rect(0, 0, 4, 4)),
		Sharpness: sharp,
	}, nil
}

func (f *fakeHandle) Close() error {
	f.closed = true
	return nil
}

type fakeWriter struct {
	saved     []string
	failPaths map[string]bool
}

func (f *fakeWriter) Save(_ *types.Frame, path string) error {
	if f.failPaths[path] {
		return fmt.Errorf("persist image: %s: disk full", path)
	}
	f.saved = append(f.saved, path)
	return nil
}
