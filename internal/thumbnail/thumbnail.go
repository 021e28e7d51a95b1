package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"photo-gallery/internal/logging"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP decode support
)

// Geometry is the requested output size. When Crop is set the source is
// center-cropped to the target aspect ratio before resizing, so the result
// fills the box instead of being letterboxed.
type Geometry struct {
	Width  int
	Height int
	Crop   bool
}

// SaveOptions carries the per-format encoder settings supplied by the
// configuration layer.
type SaveOptions struct {
	JPEGQuality    int // 1-100
	PNGCompression png.CompressionLevel
	GIFNumColors   int // 1-256
}

// DefaultSaveOptions returns the encoder settings used when the
// configuration does not override them.
func DefaultSaveOptions() SaveOptions {
	return SaveOptions{
		JPEGQuality:    85,
		PNGCompression: png.DefaultCompression,
		GIFNumColors:   256,
	}
}

// DecodeError indicates the source file is not a readable image.
type DecodeError struct {
	err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unreadable source image: %v", e.err)
}

func (e *DecodeError) Unwrap() error { return e.err }

// Engine generates thumbnails. It holds no per-invocation state: every Make
// call is independent and re-entrant. Callers own any single-flight policy
// across concurrent requests for the same target path.
type Engine struct {
	save    SaveOptions
	useVips bool
}

// NewEngine creates a thumbnail engine. When useVips is set and libvips has
// been initialized, generation goes through decode-time shrinking with a
// fallback to the pure-Go pipeline.
func NewEngine(save SaveOptions, useVips bool) *Engine {
	if useVips && !IsVipsAvailable() {
		logging.Warn("thumbnail: vips requested but not available, using pure-Go pipeline")
		useVips = false
	}
	return &Engine{save: save, useVips: useVips}
}

// Make derives a thumbnail of the image at sourcePath and writes it to
// targetPath. The target directory must already exist. On any failure no
// file, partial or otherwise, is left at targetPath.
func (e *Engine) Make(sourcePath, targetPath string, g Geometry) error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("invalid geometry %dx%d", g.Width, g.Height)
	}

	if e.useVips {
		if err := e.makeWithVips(sourcePath, targetPath, g); err == nil {
			return nil
		} else {
			logging.Debug("thumbnail: vips path failed for %s: %v, falling back", sourcePath, err)
		}
	}

	f, err := os.Open(sourcePath)
	if err != nil {
		return &DecodeError{err}
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("thumbnail: failed to close %s: %v", sourcePath, err)
		}
	}()

	img, format, err := image.Decode(f)
	if err != nil {
		return &DecodeError{err}
	}

	// Auto-rotate JPEGs. The parse error is deliberately discarded:
	// orientation is an enhancement, not a correctness requirement.
	if format == "jpeg" {
		if _, err := f.Seek(0, io.SeekStart); err == nil {
			if o, err := ReadOrientation(f); err == nil {
				img = o.Apply(img)
			}
		}
	}

	if g.Crop {
		img = cropToAspect(img, g.Width, g.Height)
	}

	// Fit scales down only, so sources already within the box pass
	// through at their original size.
	img = imaging.Fit(img, g.Width, g.Height, imaging.Lanczos)

	return e.encode(img, encodeFormat(targetPath, format), targetPath)
}

// cropToAspect center-crops img so its aspect ratio matches tw:th. The
// comparison cross-multiplies integers, so there is no floating-point
// rounding to fight with; the result is within one pixel of the exact
// ratio.
func cropToAspect(img image.Image, tw, th int) image.Image {
	b := img.Bounds()
	sw, sh := b.Dx(), b.Dy()

	switch {
	case tw*sh > sw*th:
		// Target is relatively wider: trim height, keeping the middle.
		cropped := sw * th / tw
		top := (sh - cropped) / 2
		return imaging.Crop(img, image.Rect(0, top, sw, top+cropped))
	case tw*sh < sw*th:
		// Target is relatively taller: trim width.
		cropped := sh * tw / th
		left := (sw - cropped) / 2
		return imaging.Crop(img, image.Rect(left, 0, left+cropped, sh))
	}
	return img
}

// encodeFormat picks the output format: the target path's extension wins,
// then the source format, then JPEG for anything we cannot encode (WebP
// sources, for example).
func encodeFormat(targetPath, sourceFormat string) imaging.Format {
	if f, err := imaging.FormatFromFilename(targetPath); err == nil {
		return f
	}
	if f, err := imaging.FormatFromExtension(sourceFormat); err == nil {
		return f
	}
	return imaging.JPEG
}

func (e *Engine) encodeOptions(format imaging.Format) []imaging.EncodeOption {
	switch format {
	case imaging.JPEG:
		return []imaging.EncodeOption{imaging.JPEGQuality(e.save.JPEGQuality)}
	case imaging.PNG:
		return []imaging.EncodeOption{imaging.PNGCompressionLevel(e.save.PNGCompression)}
	case imaging.GIF:
		return []imaging.EncodeOption{imaging.GIFNumColors(e.save.GIFNumColors)}
	}
	return nil
}

// encode writes img to targetPath without ever exposing a partial file: the
// image is encoded to memory first and the bytes land under the final name
// via a rename.
func (e *Engine) encode(img image.Image, format imaging.Format, targetPath string) error {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, e.encodeOptions(format)...); err != nil {
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return writeFileAtomic(targetPath, buf.Bytes())
}

// writeFileAtomic writes data to path through a temporary file in the same
// directory followed by a rename. On any error the temporary file is
// removed and nothing is left at path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".thumb-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write thumbnail: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close thumbnail file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to move thumbnail into place: %w", err)
	}
	return nil
}
