package imaging

import (
	"image"
	"testing"
)

func TestCropIsClampedCopy(t *testing.T) {
	g := mask(20, 20, image.Rect(0, 0, 20, 20))

	crop := Crop(g, image.Rect(15, 15, 30, 30))
	if crop.Bounds().Dx() != 5 || crop.Bounds().Dy() != 5 {
		t.Fatalf("crop bounds = %v, want 5x5 after clamping", crop.Bounds())
	}

	// Mutating the crop must not write through to the original.
	crop.Pix[0] = 0
	if g.GrayAt(15, 15).Y != 255 {
		t.Errorf("crop aliases the source image")
	}
}

func TestPadClampsToBounds(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)

	tests := []struct {
		name string
		in   image.Rectangle
		want image.Rectangle
	}{
		{"interior", image.Rect(30, 30, 50, 50), image.Rect(20, 20, 60, 60)},
		{"at origin", image.Rect(0, 0, 20, 20), image.Rect(0, 0, 30, 30)},
		{"at far edge", image.Rect(85, 85, 100, 100), image.Rect(75, 75, 100, 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Pad(tt.in, 10, bounds); got != tt.want {
				t.Errorf("Pad(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFillRectMasks(t *testing.T) {
	g := mask(20, 20, image.Rect(0, 0, 20, 20))
	FillRect(g, image.Rect(5, 5, 10, 10), 0)

	if g.GrayAt(7, 7).Y != 0 {
		t.Errorf("masked pixel unchanged")
	}
	if g.GrayAt(12, 12).Y != 255 {
		t.Errorf("pixel outside the mask changed")
	}
}

func TestRotateQuarterTurns(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 4, 2))
	g.Pix[0] = 255 // mark the top-left corner

	r90 := Rotate(g, 90)
	if r90.Bounds().Dx() != 2 || r90.Bounds().Dy() != 4 {
		t.Fatalf("90 degree rotation bounds = %v, want 2x4", r90.Bounds())
	}

	r180 := Rotate(g, 180)
	if r180.Bounds() != g.Bounds() {
		t.Fatalf("180 degree rotation changed bounds: %v", r180.Bounds())
	}
	if r180.GrayAt(3, 1).Y != 255 {
		t.Errorf("180 degree rotation misplaced the marker")
	}

	if out := Rotate(g, 0); out.GrayAt(0, 0).Y != 255 {
		t.Errorf("zero rotation must be identity")
	}
}
