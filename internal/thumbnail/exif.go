package thumbnail

import (
	"fmt"
	"io"

	"github.com/rwcarlsen/goexif/exif"
)

// ReadOrientation extracts the orientation tag (EXIF tag 274) from a JPEG
// stream. Orientation is a best-effort enhancement: callers discard the
// error and treat the image as already upright. Most sources simply carry
// no EXIF block, so a failure here is the normal case, not a fault.
func ReadOrientation(r io.Reader) (Orientation, error) {
	meta, err := exif.Decode(r)
	if err != nil {
		return 0, fmt.Errorf("no exif data: %w", err)
	}

	tag, err := meta.Get(exif.Orientation)
	if err != nil {
		return 0, fmt.Errorf("no orientation tag: %w", err)
	}

	v, err := tag.Int(0)
	if err != nil {
		return 0, fmt.Errorf("malformed orientation tag: %w", err)
	}

	o := Orientation(v)
	if !o.Valid() {
		return 0, fmt.Errorf("orientation %d out of range", v)
	}
	return o, nil
}
