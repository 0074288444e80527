package imaging

import "image"

// Component is a connected foreground region of a binary mask.
type Component struct {
	Rect image.Rectangle
	Area int // foreground pixel count
}

// Components labels the 8-connected foreground regions of a mask and
// returns one entry per region. This stands in for external-contour
// extraction: each component's bounding box is the box its contour would
// produce.
func Components(mask *image.Gray) []Component {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	visited := make([]bool, w*h)
	var out []Component
	stack := make([]int, 0, 256)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if visited[idx] || mask.Pix[y*mask.Stride+x] == 0 {
				continue
			}

			comp := Component{Rect: image.Rect(x, y, x+1, y+1)}
			visited[idx] = true
			stack = append(stack[:0], idx)

			for len(stack) > 0 {
				cur := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				cy, cx := cur/w, cur%w
				comp.Area++

				if cx < comp.Rect.Min.X {
					comp.Rect.Min.X = cx
				}
				if cx+1 > comp.Rect.Max.X {
					comp.Rect.Max.X = cx + 1
				}
				if cy < comp.Rect.Min.Y {
					comp.Rect.Min.Y = cy
				}
				if cy+1 > comp.Rect.Max.Y {
					comp.Rect.Max.Y = cy + 1
				}

				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if dx == 0 && dy == 0 {
							continue
						}
						nx, ny := cx+dx, cy+dy
						if nx < 0 || ny < 0 || nx >= w || ny >= h {
							continue
						}
						nidx := ny*w + nx
						if visited[nidx] || mask.Pix[ny*mask.Stride+nx] == 0 {
							continue
						}
						visited[nidx] = true
						stack = append(stack, nidx)
					}
				}
			}
			out = append(out, comp)
		}
	}
	return out
}

// CountComponents returns the number of connected foreground regions,
// the statistic the sparse-layout heuristic runs on.
func CountComponents(mask *image.Gray) int {
	return len(Components(mask))
}
