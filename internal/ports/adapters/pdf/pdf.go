package pdf

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

// a4 is the portrait page size in millimeters; landscape pages swap it.
var a4 = fpdf.SizeType{Wd: 210, Ht: 297}

const pageMargin = 10

type Adapter struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{log: log}
}

// Export writes one page per image, orienting each page to match the image's
// aspect ratio and fitting the image to the page width inside a fixed margin.
func (a *Adapter) Export(ctx context.Context, imagePaths []string, outPath string) error {
	doc := fpdf.New("P", "mm", "A4", "")
	for _, path := range imagePaths {
		if err := ctx.Err(); err != nil {
			return err
		}

		w, h, err := imageSize(path)
		if err != nil {
			return fmt.Errorf("pdf export: %w", err)
		}
		orientation := "P"
		if w > h {
			orientation = "L"
		}
		doc.AddPageFormat(orientation, a4)

		pageW, _ := doc.GetPageSize()
		doc.ImageOptions(path, pageMargin, pageMargin, pageW-2*pageMargin, 0, false, fpdf.ImageOptions{}, 0, "")
	}

	if err := doc.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("pdf export: %w", err)
	}
	a.log.Info("pdf written", zap.String("path", outPath), zap.Int("pages", len(imagePaths)))
	return nil
}

func imageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}
