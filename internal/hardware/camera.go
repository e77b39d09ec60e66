package hardware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"strings"
	"time"

	"github.com/blackjack/webcam"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
)

// ErrCaptureFailed is returned when no frame could be acquired.
var ErrCaptureFailed = errors.New("camera capture failed")

// Camera grabs a single frame for authentication.
type Camera interface {
	Capture(ctx context.Context) (image.Image, error)
}

// v4l2Camera captures one MJPEG frame from a V4L2 device.
type v4l2Camera struct {
	device string
	logger *zap.Logger
}

func NewV4L2Camera(device string, logger *zap.Logger) Camera {
	return &v4l2Camera{device: device, logger: logger}
}

func (c *v4l2Camera) Capture(ctx context.Context) (image.Image, error) {
	cam, err := webcam.Open(c.device)
	if err != nil {
		c.logger.Debug("camera open failed", zap.String("device", c.device), zap.Error(err))
		return nil, ErrCaptureFailed
	}
	defer cam.Close()

	format, ok := findMJPEGFormat(cam.GetSupportedFormats())
	if !ok {
		c.logger.Warn("camera has no MJPEG format", zap.String("device", c.device))
		return nil, ErrCaptureFailed
	}

	if _, _, _, err := cam.SetImageFormat(format, 640, 480); err != nil {
		return nil, fmt.Errorf("setting camera format: %w", err)
	}
	if err := cam.StartStreaming(); err != nil {
		return nil, fmt.Errorf("starting camera stream: %w", err)
	}
	defer cam.StopStreaming()

	// Warm-up: the sensor needs a moment before exposure settles.
	select {
	case <-time.After(500 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := cam.WaitForFrame(2); err != nil {
		return nil, ErrCaptureFailed
	}
	frame, err := cam.ReadFrame()
	if err != nil || len(frame) == 0 {
		return nil, ErrCaptureFailed
	}

	img, err := jpeg.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("decoding camera frame: %w", err)
	}
	return img, nil
}

// findMJPEGFormat picks the motion-JPEG pixel format if the device has one.
func findMJPEGFormat(formats map[webcam.PixelFormat]string) (webcam.PixelFormat, bool) {
	for format, name := range formats {
		if strings.Contains(strings.ToUpper(name), "JPEG") {
			return format, true
		}
	}
	return 0, false
}

// SimulatedCamera serves a frame from a configured file, or fails cleanly
// when none is set. Lets the rest of the pipeline run on a bench machine.
type SimulatedCamera struct {
	FramePath string
}

func (c *SimulatedCamera) Capture(context.Context) (image.Image, error) {
	if c.FramePath == "" {
		return nil, ErrCaptureFailed
	}
	data, err := os.ReadFile(c.FramePath)
	if err != nil {
		return nil, ErrCaptureFailed
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding simulated frame: %w", err)
	}
	return img, nil
}
