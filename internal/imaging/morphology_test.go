package imaging

import (
	"image"
	"testing"
)

// mask builds a w x h zero mask with the given foreground rectangles.
func mask(w, h int, fg ...image.Rectangle) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for _, r := range fg {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				g.Pix[y*g.Stride+x] = 255
			}
		}
	}
	return g
}

func TestOpenRemovesSpeckleKeepsLine(t *testing.T) {
	m := mask(100, 50,
		image.Rect(10, 25, 90, 26), // 80x1 horizontal line
		image.Rect(50, 5, 51, 6),   // single-pixel speckle
	)

	out := Open(m, 40, 1)

	if out.GrayAt(50, 5).Y != 0 {
		t.Errorf("speckle survived a 40x1 opening")
	}
	if out.GrayAt(50, 25).Y != 255 {
		t.Errorf("long horizontal line did not survive a 40x1 opening")
	}
	// The same opening with a vertical kernel must erase the thin line.
	if CountNonZero(Open(m, 1, 40)) != 0 {
		t.Errorf("1x40 opening kept pixels of a 1px-tall structure")
	}
}

func TestDilateGrowsAndUnionCombines(t *testing.T) {
	a := mask(20, 20, image.Rect(5, 5, 6, 6))
	b := mask(20, 20, image.Rect(15, 15, 16, 16))

	grown := Dilate(a, 3, 3)
	if grown.GrayAt(4, 5).Y != 255 || grown.GrayAt(6, 5).Y != 255 {
		t.Errorf("3x3 dilation did not grow the pixel horizontally")
	}

	u := Union(a, b)
	if u.GrayAt(5, 5).Y != 255 || u.GrayAt(15, 15).Y != 255 {
		t.Errorf("union lost a foreground pixel")
	}
	if CountNonZero(u) != 2 {
		t.Errorf("union has %d foreground pixels, want 2", CountNonZero(u))
	}
}

func TestInvertIsInvolution(t *testing.T) {
	m := mask(10, 10, image.Rect(2, 2, 5, 5))
	back := Invert(Invert(m))
	for i := range m.Pix {
		if m.Pix[i] != back.Pix[i] {
			t.Fatalf("double inversion changed pixel %d", i)
		}
	}
}

func TestComponentsSeparatesBlobs(t *testing.T) {
	m := mask(60, 40,
		image.Rect(5, 5, 15, 15),
		image.Rect(30, 20, 50, 30),
	)

	comps := Components(m)
	if len(comps) != 2 {
		t.Fatalf("Components found %d regions, want 2", len(comps))
	}

	areas := map[int]bool{}
	for _, c := range comps {
		areas[c.Area] = true
	}
	if !areas[100] || !areas[200] {
		t.Errorf("component areas = %v, want 100 and 200", comps)
	}
}

func TestComponentsEightConnectivity(t *testing.T) {
	// Two pixels touching only diagonally belong to one component.
	m := mask(10, 10, image.Rect(3, 3, 4, 4), image.Rect(4, 4, 5, 5))
	if n := CountComponents(m); n != 1 {
		t.Errorf("diagonal neighbors split into %d components, want 1", n)
	}
}
