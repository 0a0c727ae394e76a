package converter

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"

	"webp2jpg/internal/models"
)

// JPEGQuality is the fixed quality used for every encoded image
const JPEGQuality = 95

// JPEGPath rewrites the extension of path to .jpg
func JPEGPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".jpg"
}

// ConvertFile decodes the WebP image at src and writes it to dst as JPEG.
// Nothing is written to dst when decoding or encoding fails.
func ConvertFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return &models.ConversionError{Path: src, Err: err}
	}

	// Check the magic number first so a renamed file gets a clear error
	if !filetype.Is(data, "webp") {
		return &models.ConversionError{Path: src, Err: models.ErrNotWebP}
	}

	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		return &models.ConversionError{Path: src, Err: fmt.Errorf("failed to decode webp: %w", err)}
	}

	var buf bytes.Buffer
	if err := Convert(&buf, img); err != nil {
		return &models.ConversionError{Path: src, Err: err}
	}

	if err := writeAtomic(dst, buf.Bytes()); err != nil {
		return &models.ConversionError{Path: src, Err: fmt.Errorf("failed to write jpeg file: %w", err)}
	}

	return nil
}

// writeAtomic writes data to a temp file next to dst and renames it into
// place, so a failed write never leaves a partial dst behind.
func writeAtomic(dst string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".webp2jpg-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Convert encodes img as a baseline RGB JPEG. Images with an alpha channel
// are flattened onto an opaque white canvas first.
func Convert(w io.Writer, img image.Image) error {
	var rgb *image.NRGBA
	if hasAlpha(img) {
		rgb = flatten(img)
	} else {
		// Clone normalises gray, paletted and YCbCr images to 8-bit RGB
		rgb = imaging.Clone(img)
	}

	if err := imaging.Encode(w, rgb, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return nil
}

// flatten composites img over white using its alpha as the blend mask
func flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	background := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
}

// hasAlpha reports whether the color model of img carries an alpha channel
func hasAlpha(img image.Image) bool {
	switch img.ColorModel() {
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model,
		color.AlphaModel, color.Alpha16Model:
		return true
	}

	if p, ok := img.ColorModel().(color.Palette); ok {
		for _, c := range p {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
	}

	return false
}
