package handlers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kmuriithi/vehicleguard/internal/auth"
	"github.com/kmuriithi/vehicleguard/internal/facerec"
	"github.com/kmuriithi/vehicleguard/internal/hardware"
	"github.com/kmuriithi/vehicleguard/internal/store"
	"github.com/kmuriithi/vehicleguard/internal/store/memory"
)

type stubDetector struct{ rect image.Rectangle }

func (d stubDetector) Detect(image.Image) []image.Rectangle {
	if d.rect.Empty() {
		return nil
	}
	return []image.Rectangle{d.rect}
}

type stubGPS struct {
	loc hardware.Location
	err error
}

func (g stubGPS) Read(context.Context) (hardware.Location, error) { return g.loc, g.err }

type stubCamera struct {
	img image.Image
	err error
}

func (c stubCamera) Capture(context.Context) (image.Image, error) { return c.img, c.err }

var testFace = image.Rect(20, 20, 80, 80)

type env struct {
	store *memory.Store
	coord *auth.Coordinator
	gsm   *hardware.SimulatedGSM
}

// newEnv builds a coordinator over in-memory storage and simulated
// hardware, the same wiring the serve command uses on a bench.
func newEnv(t *testing.T) *env {
	t.Helper()
	st := memory.New()
	gsm := hardware.NewSimulatedGSM()
	coord := auth.New(auth.Config{
		Store:         st,
		Matcher:       facerec.NewMatcher(stubDetector{rect: testFace}, 0.5),
		Relay:         hardware.NewSimulatedRelay(),
		GPS:           stubGPS{loc: hardware.Location{Latitude: -1.0927, Longitude: 37.0143}},
		GSM:           gsm,
		Camera:        stubCamera{err: hardware.ErrCaptureFailed},
		LockoutWindow: 30 * time.Second,
		Logger:        zap.NewNop(),
	})
	return &env{store: st, coord: coord, gsm: gsm}
}

func (e *env) seedVehicle(t *testing.T, id int64) {
	t.Helper()
	err := e.store.PutVehicle(context.Background(), store.Vehicle{
		ID:                 id,
		RegistrationNumber: "KDA 123X",
		OwnerName:          "Jane Wairimu",
		OwnerPhone:         "+254711000000",
		Status:             "active",
	})
	if err != nil {
		t.Fatalf("PutVehicle: %v", err)
	}
}

func (e *env) enrollDriver(t *testing.T, userID, vehicleID int64, enc facerec.Encoding) {
	t.Helper()
	ctx := context.Background()
	err := e.store.PutUser(ctx, store.User{
		ID:               userID,
		Name:             "Daniel Otieno",
		AuthorizedDriver: true,
		VehicleID:        vehicleID,
	})
	if err != nil {
		t.Fatalf("PutUser: %v", err)
	}
	blob, err := enc.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if err := e.store.PutEncoding(ctx, userID, blob); err != nil {
		t.Fatalf("PutEncoding: %v", err)
	}
}

// testFrameJPEG renders a gradient frame and returns both the JPEG bytes a
// client would upload and the image the handler will decode from them.
func testFrameJPEG(t *testing.T) ([]byte, image.Image) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			v := uint8((x*255 + y*137) % 256)
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}
	decoded, err := jpeg.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("jpeg.Decode: %v", err)
	}
	return buf.Bytes(), decoded
}

// multipartFrame builds a multipart body with vehicle_id and an image part.
func multipartFrame(t *testing.T, vehicleID string, frame []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("vehicle_id", vehicleID); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	if frame != nil {
		part, err := mw.CreateFormFile("image", "frame.jpg")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := part.Write(frame); err != nil {
			t.Fatalf("writing image part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return &body, mw.FormDataContentType()
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func doRequest(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}
