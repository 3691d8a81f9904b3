package metric

import (
	"math"

	"github.com/cwbudde/msecompare/internal/ppm"
)

// maxDiffMagnitude is the Euclidean distance between black and white.
var maxDiffMagnitude = math.Sqrt(3 * 255 * 255)

// DiffImage builds a false-color difference map: black where the images
// agree, bright red where they differ the most.
func DiffImage(a, b *ppm.Image) (*ppm.Image, error) {
	if err := checkShape(a, b); err != nil {
		return nil, err
	}

	diff := ppm.New(a.Width, a.Height)
	for i := 0; i < len(a.Pix); i += ppm.Channels {
		dr := float64(a.Pix[i+0]) - float64(b.Pix[i+0])
		dg := float64(a.Pix[i+1]) - float64(b.Pix[i+1])
		db := float64(a.Pix[i+2]) - float64(b.Pix[i+2])

		mag := math.Sqrt(dr*dr + dg*dg + db*db)
		diff.Pix[i] = uint8(math.Min(255, math.Round(mag*255/maxDiffMagnitude)))
	}

	return diff, nil
}
