package thumbnail

import (
	"image"

	"github.com/disintegration/imaging"
)

// Orientation is an EXIF orientation tag value (1 through 8). It names the
// position of the row-0/column-0 corner in the stored pixel data, which
// determines the geometric transform needed to display the image upright.
type Orientation int

const (
	// OrientTopLeft is an image that is already upright.
	OrientTopLeft Orientation = iota + 1
	// OrientTopRight needs a horizontal flip.
	OrientTopRight
	// OrientBottomRight needs a 180 degree rotation.
	OrientBottomRight
	// OrientBottomLeft needs a vertical flip.
	OrientBottomLeft
	// OrientLeftTop needs a transposition (flip over the main diagonal).
	OrientLeftTop
	// OrientRightTop needs a 90 degree clockwise rotation.
	OrientRightTop
	// OrientRightBottom needs a transversion (flip over the anti-diagonal).
	OrientRightBottom
	// OrientLeftBottom needs a 90 degree counter-clockwise rotation.
	OrientLeftBottom
)

// Valid reports whether o is one of the eight orientations EXIF defines.
func (o Orientation) Valid() bool {
	return o >= OrientTopLeft && o <= OrientLeftBottom
}

// Apply returns img transformed so that it displays upright. Orientations
// outside the valid range leave the image untouched.
func (o Orientation) Apply(img image.Image) image.Image {
	switch o {
	case OrientTopRight:
		return imaging.FlipH(img)
	case OrientBottomRight:
		return imaging.Rotate180(img)
	case OrientBottomLeft:
		return imaging.FlipV(img)
	case OrientLeftTop:
		return imaging.Transpose(img)
	case OrientRightTop:
		// imaging rotates counter-clockwise, so a 270 here is the
		// clockwise quarter turn the tag calls for.
		return imaging.Rotate270(img)
	case OrientRightBottom:
		return imaging.Transverse(img)
	case OrientLeftBottom:
		return imaging.Rotate90(img)
	}
	return img
}

// Inverse returns the orientation whose transform undoes o's transform.
func (o Orientation) Inverse() Orientation {
	switch o {
	case OrientRightTop:
		return OrientLeftBottom
	case OrientLeftBottom:
		return OrientRightTop
	default:
		// Flips, the half turn, and both diagonal flips are their own
		// inverses, as is the identity.
		return o
	}
}
