/**
 * Raster primitives for the page pipeline.
 *
 * All analysis operates on single-channel 8-bit images (image.Gray).
 * Binary masks use the convention foreground=255, background=0.
 */

package imaging

import (
	"image"
	"image/color"
	"image/draw"
)

// ToGray converts any image to a single-channel 8-bit image. The input is
// returned as-is when it is already *image.Gray.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// Clone returns an independent copy of g.
func Clone(g *image.Gray) *image.Gray {
	out := image.NewGray(g.Bounds())
	copy(out.Pix, g.Pix)
	return out
}

// CountNonZero returns the number of foreground (non-zero) pixels in a mask.
func CountNonZero(mask *image.Gray) int {
	n := 0
	for _, p := range mask.Pix {
		if p != 0 {
			n++
		}
	}
	return n
}

// Crop returns a copy of the sub-image of g bounded by r, clamped to g's
// bounds. An empty intersection yields a 0x0 image.
func Crop(g *image.Gray, r image.Rectangle) *image.Gray {
	r = r.Intersect(g.Bounds())
	out := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		src := g.Pix[g.PixOffset(r.Min.X, y) : g.PixOffset(r.Min.X, y)+r.Dx()]
		dst := out.Pix[out.PixOffset(0, y-r.Min.Y):]
		copy(dst, src)
	}
	return out
}

// FillRect paints r on g with the given gray level, clamped to bounds.
// Used to mask table regions out before the prose OCR pass.
func FillRect(g *image.Gray, r image.Rectangle, level uint8) {
	r = r.Intersect(g.Bounds())
	c := color.Gray{Y: level}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			g.SetGray(x, y, c)
		}
	}
}

// Pad grows r by margin on every side, clamped to bounds.
func Pad(r image.Rectangle, margin int, bounds image.Rectangle) image.Rectangle {
	return image.Rect(r.Min.X-margin, r.Min.Y-margin, r.Max.X+margin, r.Max.Y+margin).Intersect(bounds)
}

// AspectRatio returns width/height of the image, 0 for a degenerate image.
func AspectRatio(img image.Image) float64 {
	b := img.Bounds()
	if b.Dy() == 0 {
		return 0
	}
	return float64(b.Dx()) / float64(b.Dy())
}
