// Package export flattens a Figure and writes it as a PNG.
package export

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"basemap/internal/render"
)

var ErrWrite = errors.New("write failed")

// Artifact describes a written image.
type Artifact struct {
	Path   string
	Width  int
	Height int
	Bytes  int64
}

// Write flattens fig into dir/filename, replacing any existing file. The
// figure is closed on return whether or not the write succeeded.
func Write(fig *render.Figure, dir, filename string) (a Artifact, err error) {
	defer func() {
		if cerr := fig.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close figure: %w", cerr)
		}
	}()

	img, err := Flatten(fig)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Artifact{}, fmt.Errorf("%w: encode png: %w", ErrWrite, err)
	}
	data, err := withDPI(buf.Bytes(), fig.DPI)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Artifact{}, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Artifact{}, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return Artifact{
		Path:   path,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Bytes:  int64(len(data)),
	}, nil
}

// Flatten stacks basemap, vector and overlay layers onto one canvas, white
// underneath unless the figure is transparent.
func Flatten(fig *render.Figure) (*image.RGBA, error) {
	if fig.Closed() {
		return nil, render.ErrClosed
	}
	canvas := image.NewRGBA(image.Rect(0, 0, fig.Width, fig.Height))
	if !fig.Transparent {
		draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	}
	if base := fig.Base(); base != nil {
		draw.Draw(canvas, fig.Plot, base, base.Bounds().Min, draw.Over)
	}
	vec, err := fig.Vector()
	if err != nil {
		return nil, err
	}
	draw.Draw(canvas, fig.Plot, vec, vec.Bounds().Min, draw.Over)
	ov, err := fig.Overlay()
	if err != nil {
		return nil, err
	}
	draw.Draw(canvas, canvas.Bounds(), ov, ov.Bounds().Min, draw.Over)
	return canvas, nil
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// withDPI inserts a pHYs chunk right after IHDR.
func withDPI(data []byte, dpi float64) ([]byte, error) {
	// signature + IHDR (length, type, 13 bytes, crc)
	const ihdrEnd = 8 + 4 + 4 + 13 + 4
	if len(data) < ihdrEnd || !bytes.Equal(data[:8], pngSignature) || string(data[12:16]) != "IHDR" {
		return nil, errors.New("not a png stream")
	}
	if dpi <= 0 {
		return data, nil
	}
	ppm := uint32(math.Round(dpi / 0.0254))

	chunk := make([]byte, 4+4+9+4)
	binary.BigEndian.PutUint32(chunk[0:], 9)
	copy(chunk[4:], "pHYs")
	binary.BigEndian.PutUint32(chunk[8:], ppm)
	binary.BigEndian.PutUint32(chunk[12:], ppm)
	chunk[16] = 1 // metre
	binary.BigEndian.PutUint32(chunk[17:], crc32.ChecksumIEEE(chunk[4:17]))

	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:ihdrEnd]...)
	out = append(out, chunk...)
	return append(out, data[ihdrEnd:]...), nil
}
