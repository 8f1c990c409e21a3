// Package zipper bundles the extracted frame files into a flat zip archive.
package zipper

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

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

// Export writes the archive at outPath with one entry per image, named by
// base name, in the given order.
func (a *Adapter) Export(ctx context.Context, imagePaths []string, outPath string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("zip export: %w", err)
	}
	zw := zip.NewWriter(f)

	err = addAll(ctx, zw, imagePaths)
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("zip export: %w", err)
	}

	a.log.Info("zip written", zap.String("path", outPath), zap.Int("entries", len(imagePaths)))
	return nil
}

func addAll(ctx context.Context, zw *zip.Writer, paths []string) error {
	for _, path := range paths {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := addOne(zw, path); err != nil {
			return err
		}
	}
	return nil
}

func addOne(zw *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = filepath.Base(path)
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
