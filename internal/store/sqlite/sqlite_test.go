package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kmuriithi/vehicleguard/internal/store"
)

// openTestStore opens a store against a temp file and registers cleanup.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestVehicleRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	v := store.Vehicle{
		ID:                 1,
		RegistrationNumber: "KCA 123X",
		OwnerName:          "Jane Wanjiku",
		OwnerPhone:         "+254712345678",
	}
	if err := s.PutVehicle(ctx, v); err != nil {
		t.Fatalf("PutVehicle failed: %v", err)
	}

	got, err := s.GetVehicle(ctx, 1)
	if err != nil {
		t.Fatalf("GetVehicle failed: %v", err)
	}
	if got.RegistrationNumber != v.RegistrationNumber {
		t.Errorf("registration mismatch: %q vs %q", got.RegistrationNumber, v.RegistrationNumber)
	}
	if got.EngineEnabled {
		t.Error("new vehicle should start with engine disabled")
	}
	if got.Status != "active" {
		t.Errorf("expected default status active, got %q", got.Status)
	}
}

func TestGetVehicle_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetVehicle(context.Background(), 99)
	if err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetEngineEnabled(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.PutVehicle(ctx, store.Vehicle{ID: 1, RegistrationNumber: "KCA 123X"}); err != nil {
		t.Fatalf("PutVehicle failed: %v", err)
	}

	if err := s.SetEngineEnabled(ctx, 1, true); err != nil {
		t.Fatalf("SetEngineEnabled failed: %v", err)
	}
	got, _ := s.GetVehicle(ctx, 1)
	if !got.EngineEnabled {
		t.Error("expected engine enabled after update")
	}

	if err := s.SetEngineEnabled(ctx, 42, true); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound for unknown vehicle, got %v", err)
	}
}

func TestAuthLogRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.PutVehicle(ctx, store.Vehicle{ID: 1, RegistrationNumber: "KCA 123X"}); err != nil {
		t.Fatalf("PutVehicle failed: %v", err)
	}

	userID := int64(7)
	lat, lon := -1.0927, 37.0143
	rec := store.AuthenticationLog{
		ID:         uuid.NewString(),
		VehicleID:  1,
		UserID:     &userID,
		Outcome:    store.OutcomeSuccess,
		Confidence: 0.91,
		Latitude:   &lat,
		Longitude:  &lon,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.CreateAuthLog(ctx, rec); err != nil {
		t.Fatalf("CreateAuthLog failed: %v", err)
	}

	// A second record without optional fields.
	if err := s.CreateAuthLog(ctx, store.AuthenticationLog{
		ID:        uuid.NewString(),
		VehicleID: 1,
		Outcome:   store.OutcomeUnauthorized,
	}); err != nil {
		t.Fatalf("CreateAuthLog without optionals failed: %v", err)
	}

	logs, err := s.ListAuthLogsByVehicle(ctx, 1, 10)
	if err != nil {
		t.Fatalf("ListAuthLogsByVehicle failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}

	var success store.AuthenticationLog
	for _, l := range logs {
		if l.Outcome == store.OutcomeSuccess {
			success = l
		}
	}
	if success.UserID == nil || *success.UserID != userID {
		t.Errorf("user id not preserved: %v", success.UserID)
	}
	if success.Latitude == nil || *success.Latitude != lat {
		t.Errorf("latitude not preserved: %v", success.Latitude)
	}
}

func TestAuthorizedEncodings(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.PutVehicle(ctx, store.Vehicle{ID: 1, RegistrationNumber: "KCA 123X"}); err != nil {
		t.Fatalf("PutVehicle failed: %v", err)
	}

	users := []store.User{
		{ID: 1, Name: "Authorized", AuthorizedDriver: true, VehicleID: 1},
		{ID: 2, Name: "Not a driver", AuthorizedDriver: false, VehicleID: 1},
		{ID: 3, Name: "Other vehicle", AuthorizedDriver: true, VehicleID: 0},
		{ID: 4, Name: "No encoding", AuthorizedDriver: true, VehicleID: 1},
	}
	for _, u := range users {
		if err := s.PutUser(ctx, u); err != nil {
			t.Fatalf("PutUser(%d) failed: %v", u.ID, err)
		}
	}

	for _, id := range []int64{1, 2, 3} {
		if err := s.PutEncoding(ctx, id, []byte{1, 2, 3, 4}); err != nil {
			t.Fatalf("PutEncoding(%d) failed: %v", id, err)
		}
	}

	encs, err := s.AuthorizedEncodings(ctx, 1)
	if err != nil {
		t.Fatalf("AuthorizedEncodings failed: %v", err)
	}
	if len(encs) != 1 {
		t.Fatalf("expected exactly 1 authorized encoding, got %d", len(encs))
	}
	if _, ok := encs[1]; !ok {
		t.Error("expected user 1 in the authorization set")
	}
}

func TestPutEncoding_Replaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.PutVehicle(ctx, store.Vehicle{ID: 1, RegistrationNumber: "KCA 123X"}); err != nil {
		t.Fatalf("PutVehicle failed: %v", err)
	}
	if err := s.PutUser(ctx, store.User{ID: 1, Name: "Driver", AuthorizedDriver: true, VehicleID: 1}); err != nil {
		t.Fatalf("PutUser failed: %v", err)
	}

	if err := s.PutEncoding(ctx, 1, []byte{1, 1, 1, 1}); err != nil {
		t.Fatalf("first PutEncoding failed: %v", err)
	}
	if err := s.PutEncoding(ctx, 1, []byte{2, 2, 2, 2}); err != nil {
		t.Fatalf("second PutEncoding failed: %v", err)
	}

	got, err := s.GetEncoding(ctx, 1)
	if err != nil {
		t.Fatalf("GetEncoding failed: %v", err)
	}
	if got[0] != 2 {
		t.Error("expected second enrollment to replace the first")
	}
}

func TestMarkOffline(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.PutVehicle(ctx, store.Vehicle{ID: 1, RegistrationNumber: "KCA 123X"}); err != nil {
		t.Fatalf("PutVehicle failed: %v", err)
	}

	now := time.Now().UTC()
	stale := now.Add(-10 * time.Minute)
	fresh := now

	devices := []store.Device{
		{DeviceID: "pi-stale", VehicleID: 1, Type: "raspberry_pi", Status: store.DeviceOnline, LastHeartbeat: &stale},
		{DeviceID: "pi-fresh", VehicleID: 1, Type: "raspberry_pi", Status: store.DeviceOnline, LastHeartbeat: &fresh},
		{DeviceID: "pi-never", VehicleID: 1, Type: "raspberry_pi", Status: store.DeviceOnline},
	}
	for _, d := range devices {
		if err := s.PutDevice(ctx, d); err != nil {
			t.Fatalf("PutDevice(%s) failed: %v", d.DeviceID, err)
		}
	}

	n, err := s.MarkOffline(ctx, now.Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("MarkOffline failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 devices marked offline, got %d", n)
	}

	d, _ := s.GetDevice(ctx, "pi-fresh")
	if d.Status != store.DeviceOnline {
		t.Errorf("fresh device should stay online, got %q", d.Status)
	}
	d, _ = s.GetDevice(ctx, "pi-stale")
	if d.Status != store.DeviceOffline {
		t.Errorf("stale device should be offline, got %q", d.Status)
	}
}

func TestLatestLocation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.PutVehicle(ctx, store.Vehicle{ID: 1, RegistrationNumber: "KCA 123X"}); err != nil {
		t.Fatalf("PutVehicle failed: %v", err)
	}

	if _, err := s.LatestLocation(ctx, 1); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound before any location, got %v", err)
	}

	older := time.Now().UTC().Add(-time.Hour)
	newer := time.Now().UTC()
	for _, l := range []store.VehicleLocation{
		{VehicleID: 1, Latitude: -1.1, Longitude: 37.0, RecordedAt: older},
		{VehicleID: 1, Latitude: -1.2, Longitude: 37.1, RecordedAt: newer},
	} {
		if err := s.CreateLocation(ctx, l); err != nil {
			t.Fatalf("CreateLocation failed: %v", err)
		}
	}

	got, err := s.LatestLocation(ctx, 1)
	if err != nil {
		t.Fatalf("LatestLocation failed: %v", err)
	}
	if got.Latitude != -1.2 {
		t.Errorf("expected latest location latitude -1.2, got %f", got.Latitude)
	}
}
