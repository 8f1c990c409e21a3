package pptx

import (
	"archive/zip"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 16, 9))))
	require.NoError(t, f.Close())
	return path
}

func TestExport_OneSlidePerImage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths := []string{
		writePNG(t, dir, "frame_0ms.png"),
		writePNG(t, dir, "frame_5000ms.png"),
	}
	out := filepath.Join(dir, "frames.pptx")

	require.NoError(t, New(nil).Export(context.Background(), paths, out))

	zr, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer zr.Close()

	parts := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		parts[f.Name] = true
	}
	for _, want := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"ppt/presentation.xml",
		"ppt/_rels/presentation.xml.rels",
		"ppt/slideMasters/slideMaster1.xml",
		"ppt/slideLayouts/slideLayout1.xml",
		"ppt/theme/theme1.xml",
	} {
		require.True(t, parts[want], "missing part %s", want)
	}
	for i := 1; i <= len(paths); i++ {
		require.True(t, parts[fmt.Sprintf("ppt/slides/slide%d.xml", i)], "missing slide %d", i)
		require.True(t, parts[fmt.Sprintf("ppt/media/image%d.png", i)], "missing media %d", i)
	}
	require.False(t, parts[fmt.Sprintf("ppt/slides/slide%d.xml", len(paths)+1)])
}

func TestExport_SlideReferencesItsImage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "frames.pptx")
	require.NoError(t, New(nil).Export(context.Background(),
		[]string{writePNG(t, dir, "frame_0ms.png")}, out))

	zr, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "ppt/slides/_rels/slide1.xml.rels" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		require.Contains(t, string(b), "../media/image1.png")
		return
	}
	t.Fatalf("slide1 relationships part not found")
}

func TestExport_RejectsUnknownExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bad := filepath.Join(dir, "frame_0ms.gif")
	require.NoError(t, os.WriteFile(bad, []byte("gif"), 0o644))

	err := New(nil).Export(context.Background(), []string{bad}, filepath.Join(dir, "frames.pptx"))
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "unsupported image extension"))
}
