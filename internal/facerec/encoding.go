// Package facerec implements face detection, encoding and matching for
// driver authentication. An encoding is a fixed-size equalized grayscale
// grid; two encodings are compared by elementwise Euclidean distance.
package facerec

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// EncodingSize is the side of the square grid every face is normalized to.
// All encodings share this resolution so any two are directly comparable.
const EncodingSize = 200

// EncodingDim is the flattened length of an encoding.
const EncodingDim = EncodingSize * EncodingSize

// Encoding is a flattened EncodingSize×EncodingSize grayscale grid with
// intensity values in [0, 255].
type Encoding []float32

// ExtractEncoding crops the image to the face bounding box (no padding),
// resizes to the canonical square, converts to grayscale and applies
// histogram equalization to reduce lighting sensitivity.
func ExtractEncoding(img image.Image, face image.Rectangle) Encoding {
	face = face.Intersect(img.Bounds())

	resized := image.NewRGBA(image.Rect(0, 0, EncodingSize, EncodingSize))
	draw.BiLinear.Scale(resized, resized.Bounds(), img, face, draw.Over, nil)

	gray := toGrayscale(resized)
	equalizeHistogram(gray)
	return gray
}

// toGrayscale flattens an RGBA image into row-major luma values (0-255)
// using the ITU-R BT.601 formula.
func toGrayscale(img *image.RGBA) []float32 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	gray := make([]float32, 0, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			luma := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			gray = append(gray, float32(luma))
		}
	}
	return gray
}

// equalizeHistogram stretches the intensity distribution in place so the
// cumulative histogram is approximately linear. Uniform images are left
// unchanged.
func equalizeHistogram(gray []float32) {
	if len(gray) == 0 {
		return
	}

	var hist [256]int
	for _, v := range gray {
		idx := int(v)
		if idx < 0 {
			idx = 0
		} else if idx > 255 {
			idx = 255
		}
		hist[idx]++
	}

	// Cumulative distribution, anchored at the first non-empty bin.
	var cdf [256]int
	sum := 0
	cdfMin := 0
	for i, count := range hist {
		sum += count
		cdf[i] = sum
		if cdfMin == 0 && count > 0 {
			cdfMin = cdf[i]
		}
	}

	total := len(gray)
	if total == cdfMin {
		// Single intensity value, nothing to stretch.
		return
	}

	var lut [256]float32
	for i := range lut {
		lut[i] = float32(math.Round(float64(cdf[i]-cdfMin) / float64(total-cdfMin) * 255))
	}

	for i, v := range gray {
		idx := int(v)
		if idx < 0 {
			idx = 0
		} else if idx > 255 {
			idx = 255
		}
		gray[i] = lut[idx]
	}
}

// EuclideanDistance computes the L2 distance between two encodings.
// Returns +Inf for dimension mismatch so malformed candidates never win.
func EuclideanDistance(a, b Encoding) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Confidence maps a raw distance to a score in [0, 1]. The linear decay
// constant is empirical and tolerance values are calibrated against this
// exact formula, so it must not change.
func Confidence(distance float64) float64 {
	c := 1 - distance/10000
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// MarshalBinary serializes an encoding as little-endian float32 values for
// whole-record storage.
func (e Encoding) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 4*len(e))
	for i, v := range e {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf, nil
}

// DecodeEncoding deserializes an encoding written by MarshalBinary.
func DecodeEncoding(data []byte) (Encoding, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("encoding blob length %d is not a multiple of 4", len(data))
	}
	enc := make(Encoding, len(data)/4)
	for i := range enc {
		enc[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return enc, nil
}
