package imaging

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Rotate rotates g counter-clockwise by the given angle in degrees.
// Multiples of 90 use exact pixel shuffles; any other angle goes through a
// bilinear affine transform around the image center, with the canvas grown
// to hold the rotated page.
func Rotate(g *image.Gray, degrees int) *image.Gray {
	switch ((degrees % 360) + 360) % 360 {
	case 0:
		return g
	case 90:
		return rotate90(g)
	case 180:
		return rotate180(g)
	case 270:
		return rotate90(rotate180(g))
	}
	return rotateArbitrary(g, float64(degrees))
}

func rotate90(g *image.Gray) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Pix[(w-1-x)*out.Stride+y] = g.Pix[y*g.Stride+x]
		}
	}
	return out
}

func rotate180(g *image.Gray) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Pix[(h-1-y)*out.Stride+(w-1-x)] = g.Pix[y*g.Stride+x]
		}
	}
	return out
}

func rotateArbitrary(g *image.Gray, degrees float64) *image.Gray {
	b := g.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	rad := degrees * math.Pi / 180
	sin, cos := math.Abs(math.Sin(rad)), math.Abs(math.Cos(rad))
	nw := int(math.Ceil(w*cos + h*sin))
	nh := int(math.Ceil(w*sin + h*cos))

	out := image.NewGray(image.Rect(0, 0, nw, nh))
	// White background so the page margin stays paper-colored.
	for i := range out.Pix {
		out.Pix[i] = 255
	}

	s, c := math.Sin(rad), math.Cos(rad)
	cx, cy := w/2, h/2
	ncx, ncy := float64(nw)/2, float64(nh)/2
	m := f64.Aff3{
		c, -s, ncx - c*cx + s*cy,
		s, c, ncy - s*cx - c*cy,
	}
	xdraw.BiLinear.Transform(out, m, g, g.Bounds(), xdraw.Src, nil)
	return out
}
