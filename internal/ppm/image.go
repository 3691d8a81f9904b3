package ppm

import (
	"errors"
	"image"
	"image/color"
	"math"
)

// Channels is the number of samples per pixel in a P6 image.
const Channels = 3

// Image holds 8-bit RGB samples packed row-major, top-to-bottom.
// Its logical shape is (Height, Width, 3).
type Image struct {
	Width  int
	Height int
	Pix    []uint8 // len(Pix) == Width*Height*3
}

// ErrTooLarge is returned when width*height*3 does not fit in an int.
var ErrTooLarge = errors.New("image dimensions too large")

// PixLen returns width*height*Channels, or ErrTooLarge on overflow.
func PixLen(width, height int) (int, error) {
	if width < 0 || height < 0 {
		return 0, errors.New("negative image size")
	}
	if width > 0 && height > math.MaxInt/Channels/width {
		return 0, ErrTooLarge
	}
	return width * height * Channels, nil
}

// New allocates a black image of the given size.
func New(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*Channels),
	}
}

// Shape returns (height, width, channels).
func (m *Image) Shape() [3]int {
	return [3]int{m.Height, m.Width, Channels}
}

// Stride is the number of bytes per row.
func (m *Image) Stride() int {
	return m.Width * Channels
}

// PixOffset returns the index of the first sample of pixel (x, y).
func (m *Image) PixOffset(x, y int) int {
	return y*m.Stride() + x*Channels
}

// RGB returns the samples of pixel (x, y).
func (m *Image) RGB(x, y int) (r, g, b uint8) {
	i := m.PixOffset(x, y)
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

// SetRGB writes the samples of pixel (x, y).
func (m *Image) SetRGB(x, y int, r, g, b uint8) {
	i := m.PixOffset(x, y)
	m.Pix[i+0] = r
	m.Pix[i+1] = g
	m.Pix[i+2] = b
}

// ColorModel implements image.Image.
func (m *Image) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements image.Image.
func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// At implements image.Image. Pixels are always opaque.
func (m *Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(m.Bounds())) {
		return color.RGBA{}
	}
	r, g, b := m.RGB(x, y)
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
