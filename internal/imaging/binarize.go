package imaging

import (
	"image"
	"math"
)

// OtsuLevel computes the global threshold that maximizes between-class
// variance of the gray histogram.
func OtsuLevel(g *image.Gray) uint8 {
	var hist [256]int
	for _, p := range g.Pix {
		hist[p]++
	}
	total := len(g.Pix)
	if total == 0 {
		return 0
	}

	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var sumB, wB float64
	var best float64
	var level uint8
	for i := 0; i < 256; i++ {
		wB += float64(hist[i])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(i) * float64(hist[i])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			level = uint8(i)
		}
	}
	return level
}

// Threshold binarizes g at the given level. With inverse=false pixels above
// the level become foreground (255); with inverse=true pixels at or below
// the level become foreground, which puts dark ink and table lines in the
// foreground of the resulting mask.
func Threshold(g *image.Gray, level uint8, inverse bool) *image.Gray {
	out := image.NewGray(g.Bounds())
	for i, p := range g.Pix {
		fg := p > level
		if inverse {
			fg = !fg
		}
		if fg {
			out.Pix[i] = 255
		}
	}
	return out
}

// BinarizeOtsu is the common Otsu-threshold shorthand used across the
// table detector.
func BinarizeOtsu(g *image.Gray, inverse bool) *image.Gray {
	return Threshold(g, OtsuLevel(g), inverse)
}

// AdaptiveThreshold binarizes g against a Gaussian-weighted local mean:
// a pixel becomes foreground when it exceeds the local mean minus bias.
// block must be odd. This follows the rendered-page binarization settings
// of the pipeline (block 31, bias 15).
func AdaptiveThreshold(g *image.Gray, block int, bias int) *image.Gray {
	if block < 3 {
		block = 3
	}
	if block%2 == 0 {
		block++
	}
	blurred := gaussianBlur(g, block)
	out := image.NewGray(g.Bounds())
	for i, p := range g.Pix {
		if int(p) > int(blurred.Pix[i])-bias {
			out.Pix[i] = 255
		}
	}
	return out
}

// gaussianBlur applies a separable Gaussian with the sigma conventionally
// derived from the kernel size: 0.3*((k-1)*0.5 - 1) + 0.8.
func gaussianBlur(g *image.Gray, ksize int) *image.Gray {
	sigma := 0.3*(float64(ksize-1)*0.5-1) + 0.8
	half := ksize / 2
	kernel := make([]float64, ksize)
	var norm float64
	for i := range kernel {
		d := float64(i - half)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
		norm += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= norm
	}

	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	tmp := make([]float64, w*h)

	// Horizontal pass with edge clamping.
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+w]
		for x := 0; x < w; x++ {
			var acc float64
			for k := -half; k <= half; k++ {
				xx := x + k
				if xx < 0 {
					xx = 0
				} else if xx >= w {
					xx = w - 1
				}
				acc += float64(row[xx]) * kernel[k+half]
			}
			tmp[y*w+x] = acc
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for k := -half; k <= half; k++ {
				yy := y + k
				if yy < 0 {
					yy = 0
				} else if yy >= h {
					yy = h - 1
				}
				acc += tmp[yy*w+x] * kernel[k+half]
			}
			out.Pix[y*out.Stride+x] = uint8(math.Round(acc))
		}
	}
	return out
}

// EqualizeCLAHE applies tiled local histogram equalization (contrast-limited)
// with the given clip limit and an 8x8 tile grid. Tile LUTs are blended
// bilinearly so tile seams do not show.
func EqualizeCLAHE(g *image.Gray, clipLimit float64, tiles int) *image.Gray {
	if tiles < 1 {
		tiles = 1
	}
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return Clone(g)
	}

	tileW := (w + tiles - 1) / tiles
	tileH := (h + tiles - 1) / tiles

	// Per-tile clipped-histogram LUTs.
	luts := make([][256]uint8, tiles*tiles)
	for ty := 0; ty < tiles; ty++ {
		for tx := 0; tx < tiles; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := min(x0+tileW, w), min(y0+tileH, h)

			var hist [256]float64
			n := 0
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					hist[g.Pix[y*g.Stride+x]]++
					n++
				}
			}
			if n == 0 {
				continue
			}

			// Clip and redistribute excess uniformly.
			clip := clipLimit * float64(n) / 256
			if clip < 1 {
				clip = 1
			}
			var excess float64
			for i := range hist {
				if hist[i] > clip {
					excess += hist[i] - clip
					hist[i] = clip
				}
			}
			redist := excess / 256
			for i := range hist {
				hist[i] += redist
			}

			var cdf float64
			scale := 255.0 / float64(n)
			lut := &luts[ty*tiles+tx]
			for i := range hist {
				cdf += hist[i]
				v := cdf * scale
				if v > 255 {
					v = 255
				}
				lut[i] = uint8(v)
			}
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		// Fractional tile position for vertical blending.
		fy := (float64(y) - float64(tileH)/2) / float64(tileH)
		ty0 := int(math.Floor(fy))
		wy := fy - float64(ty0)
		ty1 := ty0 + 1
		ty0 = clampInt(ty0, 0, tiles-1)
		ty1 = clampInt(ty1, 0, tiles-1)

		for x := 0; x < w; x++ {
			fx := (float64(x) - float64(tileW)/2) / float64(tileW)
			tx0 := int(math.Floor(fx))
			wx := fx - float64(tx0)
			tx1 := tx0 + 1
			tx0 = clampInt(tx0, 0, tiles-1)
			tx1 = clampInt(tx1, 0, tiles-1)

			p := g.Pix[y*g.Stride+x]
			v00 := float64(luts[ty0*tiles+tx0][p])
			v01 := float64(luts[ty0*tiles+tx1][p])
			v10 := float64(luts[ty1*tiles+tx0][p])
			v11 := float64(luts[ty1*tiles+tx1][p])
			top := v00*(1-wx) + v01*wx
			bot := v10*(1-wx) + v11*wx
			out.Pix[y*out.Stride+x] = uint8(math.Round(top*(1-wy) + bot*wy))
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
