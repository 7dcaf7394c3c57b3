package drawconf

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/gogpu/gputypes"
)

// Surface is the RGB8 pixel buffer a backend renders into and the
// comparison engine reads back. Pixels are stored RGBA with the alpha
// channel forced opaque; alpha never participates in comparison.
type Surface struct {
	width  int
	height int
	data   []uint8 // RGBA, 4 bytes per pixel
}

// NewSurface creates an opaque black surface with the given dimensions.
func NewSurface(width, height int) *Surface {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("drawconf: invalid surface size %dx%d", width, height))
	}
	s := &Surface{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
	for i := 3; i < len(s.data); i += 4 {
		s.data[i] = 255
	}
	return s
}

// Width returns the width of the surface.
func (s *Surface) Width() int {
	return s.width
}

// Height returns the height of the surface.
func (s *Surface) Height() int {
	return s.height
}

// Data returns the raw pixel data (RGBA format).
func (s *Surface) Data() []uint8 {
	return s.data
}

// SetPixel sets the color of a single pixel. Out-of-bounds writes are
// ignored.
func (s *Surface) SetPixel(x, y int, r, g, b uint8) {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return
	}
	i := (y*s.width + x) * 4
	s.data[i+0] = r
	s.data[i+1] = g
	s.data[i+2] = b
	s.data[i+3] = 255
}

// Pixel returns the color of a single pixel. Out-of-bounds reads return
// black.
func (s *Surface) Pixel(x, y int) (r, g, b uint8) {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return 0, 0, 0
	}
	i := (y*s.width + x) * 4
	return s.data[i+0], s.data[i+1], s.data[i+2]
}

// Clear fills the whole surface with the given color.
func (s *Surface) Clear(c gputypes.Color) {
	r := clamp255(c.R)
	g := clamp255(c.G)
	b := clamp255(c.B)
	for i := 0; i < len(s.data); i += 4 {
		s.data[i+0] = r
		s.data[i+1] = g
		s.data[i+2] = b
		s.data[i+3] = 255
	}
}

// clamp255 maps a [0,1] channel to a byte.
func clamp255(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}

// RGBA returns an image view sharing the surface's pixel storage.
func (s *Surface) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    s.data,
		Stride: s.width * 4,
		Rect:   image.Rect(0, 0, s.width, s.height),
	}
}

// SavePNG writes the surface as a PNG file, for inspecting failures.
func (s *Surface) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("drawconf: save surface: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, s.RGBA()); err != nil {
		return fmt.Errorf("drawconf: encode surface: %w", err)
	}
	return nil
}
