package facerec

import (
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
)

// Detector finds face-like regions in a frame. Implementations return
// bounding boxes in image coordinates; an empty slice means no face.
type Detector interface {
	Detect(img image.Image) []image.Rectangle
}

// minDetectionQuality filters out low-confidence cascade responses.
const minDetectionQuality = 5.0

// PigoDetector runs the pigo frontal-face cascade.
type PigoDetector struct {
	classifier *pigo.Pigo
}

// NewPigoDetector loads a facefinder cascade from disk.
func NewPigoDetector(cascadePath string) (*PigoDetector, error) {
	cascade, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("reading cascade file: %w", err)
	}

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpacking cascade: %w", err)
	}

	return &PigoDetector{classifier: classifier}, nil
}

// Detect runs the cascade over the frame and returns clustered detections.
func (d *PigoDetector) Detect(img image.Image) []image.Rectangle {
	bounds := img.Bounds()
	rows := bounds.Dy()
	cols := bounds.Dx()
	if rows == 0 || cols == 0 {
		return nil
	}

	pixels := pigo.RgbToGrayscale(img)

	params := pigo.CascadeParams{
		MinSize:     30,
		MaxSize:     max(rows, cols),
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, 0.2)

	var faces []image.Rectangle
	for _, det := range dets {
		if float64(det.Q) < minDetectionQuality {
			continue
		}
		half := det.Scale / 2
		rect := image.Rect(
			bounds.Min.X+det.Col-half,
			bounds.Min.Y+det.Row-half,
			bounds.Min.X+det.Col+half,
			bounds.Min.Y+det.Row+half,
		).Intersect(bounds)
		if !rect.Empty() {
			faces = append(faces, rect)
		}
	}
	return faces
}

// UnavailableDetector reports no faces. Used when the cascade file is
// missing so the service can keep running; every attempt then resolves as
// a no-face outcome rather than an internal error.
type UnavailableDetector struct{}

func (UnavailableDetector) Detect(image.Image) []image.Rectangle { return nil }

// LargestFace picks the detection with the biggest bounding-box area.
// Ties keep the first-encountered box; the driver's face is assumed to
// dominate the frame. ok is false for an empty slice.
func LargestFace(faces []image.Rectangle) (image.Rectangle, bool) {
	if len(faces) == 0 {
		return image.Rectangle{}, false
	}

	best := faces[0]
	bestArea := best.Dx() * best.Dy()
	for _, f := range faces[1:] {
		if area := f.Dx() * f.Dy(); area > bestArea {
			best = f
			bestArea = area
		}
	}
	return best, true
}

// facePadding is added around the detected box when extracting the crop
// stored with audit records.
const facePadding = 20

// FaceCrop extracts the detected face region with padding, clamped to the
// frame, as a standalone image for audit storage.
func FaceCrop(img image.Image, face image.Rectangle) image.Image {
	bounds := img.Bounds()
	padded := image.Rect(
		face.Min.X-facePadding,
		face.Min.Y-facePadding,
		face.Max.X+facePadding,
		face.Max.Y+facePadding,
	).Intersect(bounds)

	crop := image.NewRGBA(image.Rect(0, 0, padded.Dx(), padded.Dy()))
	for y := 0; y < padded.Dy(); y++ {
		for x := 0; x < padded.Dx(); x++ {
			crop.Set(x, y, img.At(padded.Min.X+x, padded.Min.Y+y))
		}
	}
	return crop
}
