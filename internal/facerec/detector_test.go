package facerec

import (
	"image"
	"image/color"
	"testing"
)

func TestLargestFace(t *testing.T) {
	tests := []struct {
		name     string
		faces    []image.Rectangle
		expected image.Rectangle
		ok       bool
	}{
		{"empty", nil, image.Rectangle{}, false},
		{"single", []image.Rectangle{image.Rect(0, 0, 10, 10)}, image.Rect(0, 0, 10, 10), true},
		{
			"largest wins",
			[]image.Rectangle{
				image.Rect(0, 0, 10, 10),
				image.Rect(0, 0, 50, 50),
				image.Rect(0, 0, 20, 20),
			},
			image.Rect(0, 0, 50, 50),
			true,
		},
		{
			"tie keeps first encountered",
			[]image.Rectangle{
				image.Rect(0, 0, 30, 30),
				image.Rect(40, 40, 70, 70),
			},
			image.Rect(0, 0, 30, 30),
			true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := LargestFace(tc.faces)
			if ok != tc.ok {
				t.Fatalf("ok = %v; want %v", ok, tc.ok)
			}
			if got != tc.expected {
				t.Errorf("LargestFace = %v; want %v", got, tc.expected)
			}
		})
	}
}

func TestFaceCrop_PaddingClampedToFrame(t *testing.T) {
	img := createTestImage(100, 100, color.White)

	// A face touching the frame edge: padding cannot extend past bounds.
	crop := FaceCrop(img, image.Rect(0, 0, 40, 40))

	bounds := crop.Bounds()
	if bounds.Dx() != 60 || bounds.Dy() != 60 {
		t.Errorf("expected 60x60 crop (40 + padding clamped at origin), got %dx%d",
			bounds.Dx(), bounds.Dy())
	}
}

func TestFaceCrop_InteriorFaceGetsFullPadding(t *testing.T) {
	img := createTestImage(200, 200, color.White)

	crop := FaceCrop(img, image.Rect(50, 50, 100, 100))

	bounds := crop.Bounds()
	if bounds.Dx() != 90 || bounds.Dy() != 90 {
		t.Errorf("expected 90x90 crop (50 + 2*20 padding), got %dx%d",
			bounds.Dx(), bounds.Dy())
	}
}

func TestUnavailableDetector(t *testing.T) {
	var d UnavailableDetector
	if faces := d.Detect(createTestImage(10, 10, color.Black)); len(faces) != 0 {
		t.Errorf("expected no detections, got %d", len(faces))
	}
}
