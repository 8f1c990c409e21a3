package imagefile

import (
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/atarasenko/framegrab/internal/types"
)

// ErrPersist reports a frame that could not be written to disk. It is
// surfaced per image, never swallowed.
var ErrPersist = errors.New("persist image")

const jpegQuality = 95

type Writer struct{}

func New() *Writer { return &Writer{} }

// Save encodes the frame under path, creating parent directories as needed.
// The extension picks the codec: .jpg/.jpeg or .png.
func (w *Writer) Save(frame *types.Frame, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, frame.Image, &jpeg.Options{Quality: jpegQuality})
	case ".png":
		err = png.Encode(f, frame.Image)
	default:
		err = fmt.Errorf("unsupported image extension %q", ext)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPersist, path, err)
	}
	return nil
}
