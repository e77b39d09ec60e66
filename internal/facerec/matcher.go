package facerec

import (
	"errors"
	"image"
	"math"
)

// ErrNoFace is returned when no face-like region is found in a frame.
var ErrNoFace = errors.New("no face detected")

// Matcher couples a detector with the match tolerance.
type Matcher struct {
	detector  Detector
	tolerance float64
}

func NewMatcher(detector Detector, tolerance float64) *Matcher {
	return &Matcher{detector: detector, tolerance: tolerance}
}

// Tolerance is the configured minimum confidence to accept a match.
func (m *Matcher) Tolerance() float64 { return m.tolerance }

// DetectAndEncode finds the dominant face in the frame and derives its
// encoding. Returns ErrNoFace when the detector finds nothing.
func (m *Matcher) DetectAndEncode(img image.Image) (Encoding, image.Rectangle, error) {
	face, ok := LargestFace(m.detector.Detect(img))
	if !ok {
		return nil, image.Rectangle{}, ErrNoFace
	}
	return ExtractEncoding(img, face), face, nil
}

// Match scans the candidate set for the minimum-distance encoding.
// Candidates whose dimensions differ from the probe are skipped, not
// errors. An empty candidate set yields (0, false, +Inf).
func (m *Matcher) Match(enc Encoding, candidates map[int64]Encoding) (int64, bool, float64) {
	bestID := int64(0)
	found := false
	bestDist := math.Inf(1)

	for id, candidate := range candidates {
		if len(candidate) != len(enc) {
			continue
		}
		if d := EuclideanDistance(enc, candidate); d < bestDist {
			bestDist = d
			bestID = id
			found = true
		}
	}
	return bestID, found, bestDist
}

// Accepts reports whether a confidence score clears the tolerance.
func (m *Matcher) Accepts(confidence float64) bool {
	return confidence >= m.tolerance
}
