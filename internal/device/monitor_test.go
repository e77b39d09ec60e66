package device

import (
	"context"
	"testing"
	"time"

	"github.com/kmuriithi/vehicleguard/internal/store"
	"github.com/kmuriithi/vehicleguard/internal/store/memory"
)

func TestRecord_RegistersUnknownDevice(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	err := Record(ctx, st, Heartbeat{
		DeviceID:  "unit-001",
		VehicleID: 1,
		Type:      "engine_controller",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	d, err := st.GetDevice(ctx, "unit-001")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if d.Status != store.DeviceOnline {
		t.Errorf("status = %q, want online", d.Status)
	}
	if d.LastHeartbeat == nil {
		t.Error("heartbeat timestamp should be set")
	}
}

func TestRecord_UpdatesExistingDevice(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	first := time.Now().Add(-time.Hour)
	if err := Record(ctx, st, Heartbeat{DeviceID: "unit-001", VehicleID: 1, At: first}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	second := time.Now()
	if err := Record(ctx, st, Heartbeat{DeviceID: "unit-001", VehicleID: 1, Status: store.DeviceError, At: second}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	d, err := st.GetDevice(ctx, "unit-001")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if d.Status != store.DeviceError {
		t.Errorf("status = %q, want error", d.Status)
	}
	if d.LastHeartbeat == nil || !d.LastHeartbeat.After(first) {
		t.Errorf("heartbeat not advanced: %v", d.LastHeartbeat)
	}
}

func TestMonitor_SweepsStaleDevices(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	stale := time.Now().Add(-10 * time.Minute)
	if err := Record(ctx, st, Heartbeat{DeviceID: "stale", VehicleID: 1, At: stale}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := Record(ctx, st, Heartbeat{DeviceID: "fresh", VehicleID: 1}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	m := NewMonitor(st, 10*time.Millisecond, 5*time.Minute, nil)
	m.Start(ctx)
	defer m.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for {
		d, err := st.GetDevice(ctx, "stale")
		if err != nil {
			t.Fatalf("GetDevice: %v", err)
		}
		if d.Status == store.DeviceOffline {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("stale device was never marked offline")
		}
		time.Sleep(10 * time.Millisecond)
	}

	d, err := st.GetDevice(ctx, "fresh")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if d.Status != store.DeviceOnline {
		t.Errorf("fresh device status = %q, want online", d.Status)
	}
}

func TestMonitor_StopIsIdempotentBeforeStart(t *testing.T) {
	m := NewMonitor(memory.New(), time.Second, time.Minute, nil)
	m.Stop()
}
