// Package metric compares decoded PPM frames.
package metric

import (
	"fmt"

	"github.com/cwbudde/msecompare/internal/ppm"
)

// ShapeError is returned when two images do not share (height, width, 3).
type ShapeError struct {
	A, B [3]int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("images must have the same dimensions: (%d, %d, %d) vs (%d, %d, %d)",
		e.A[0], e.A[1], e.A[2], e.B[0], e.B[1], e.B[2])
}

// SSD returns the sum of squared differences over every sample of a and b.
func SSD(a, b *ppm.Image) (float64, error) {
	if err := checkShape(a, b); err != nil {
		return 0, err
	}
	return fastSSD(a.Pix, b.Pix, a.Stride(), a.Width, a.Height), nil
}

// MSE returns the squared error summed over all three channels, divided by
// the pixel count (height*width). This is three times the per-channel MSE.
func MSE(a, b *ppm.Image) (float64, error) {
	sum, err := SSD(a, b)
	if err != nil {
		return 0, err
	}
	return sum / float64(a.Width*a.Height), nil
}

func checkShape(a, b *ppm.Image) error {
	if a.Shape() != b.Shape() {
		return &ShapeError{A: a.Shape(), B: b.Shape()}
	}
	want, err := ppm.PixLen(a.Width, a.Height)
	if err != nil {
		return err
	}
	if len(a.Pix) != want || len(b.Pix) != want {
		return fmt.Errorf("pixel buffer length mismatch: got %d and %d, want %d", len(a.Pix), len(b.Pix), want)
	}
	return nil
}
