package imaging

import "image"

// Morphological operators over binary masks with flat rectangular
// structuring elements. Wide-flat and tall-thin kernels isolate horizontal
// and vertical ruling lines; small square kernels bridge gaps.

// Erode shrinks foreground: a pixel survives only when every pixel under
// the kw x kh kernel centered on it is foreground.
func Erode(mask *image.Gray, kw, kh int) *image.Gray {
	return erodeOrDilate(mask, kw, kh, true)
}

// Dilate grows foreground: a pixel becomes foreground when any pixel under
// the kernel is foreground.
func Dilate(mask *image.Gray, kw, kh int) *image.Gray {
	return erodeOrDilate(mask, kw, kh, false)
}

// Open is erosion followed by dilation; it removes foreground features
// smaller than the kernel while preserving larger ones.
func Open(mask *image.Gray, kw, kh int) *image.Gray {
	return Dilate(Erode(mask, kw, kh), kw, kh)
}

// DilateN applies Dilate iterations times.
func DilateN(mask *image.Gray, kw, kh, iterations int) *image.Gray {
	out := mask
	for i := 0; i < iterations; i++ {
		out = Dilate(out, kw, kh)
	}
	return out
}

// Union merges two masks (saturating add of binary masks).
func Union(a, b *image.Gray) *image.Gray {
	out := image.NewGray(a.Bounds())
	for i := range a.Pix {
		if a.Pix[i] != 0 || b.Pix[i] != 0 {
			out.Pix[i] = 255
		}
	}
	return out
}

// Invert flips foreground and background.
func Invert(mask *image.Gray) *image.Gray {
	out := image.NewGray(mask.Bounds())
	for i, p := range mask.Pix {
		out.Pix[i] = 255 - p
	}
	return out
}

// erodeOrDilate runs two separable passes (horizontal then vertical), which
// is equivalent to the full rectangular kernel for flat structuring elements.
func erodeOrDilate(mask *image.Gray, kw, kh int, erode bool) *image.Gray {
	if kw < 1 {
		kw = 1
	}
	if kh < 1 {
		kh = 1
	}
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	halfW, halfH := kw/2, kh/2

	pass1 := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		for x := 0; x < w; x++ {
			v := scanRun(row, x-halfW, x-halfW+kw-1, w, erode)
			pass1.Pix[y*pass1.Stride+x] = v
		}
	}
	if kh == 1 {
		return pass1
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	col := make([]uint8, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = pass1.Pix[y*pass1.Stride+x]
		}
		for y := 0; y < h; y++ {
			v := scanRun(col, y-halfH, y-halfH+kh-1, h, erode)
			out.Pix[y*out.Stride+x] = v
		}
	}
	return out
}

// scanRun evaluates a 1-D min (erode) or max (dilate) over [lo, hi].
// Out-of-range samples count as background, so erosion clips at edges.
func scanRun(line []uint8, lo, hi, n int, erode bool) uint8 {
	for i := lo; i <= hi; i++ {
		var p uint8
		if i >= 0 && i < n {
			p = line[i]
		}
		if erode && p == 0 {
			return 0
		}
		if !erode && p != 0 {
			return 255
		}
	}
	if erode {
		return 255
	}
	return 0
}
