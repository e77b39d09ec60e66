package hardware

import (
	"testing"

	"go.uber.org/zap"
)

func TestRelay_StartsDisabled(t *testing.T) {
	relay := NewSimulatedRelay()
	if relay.Enabled() {
		t.Error("relay must start disabled")
	}
}

func TestRelay_EnableDisable(t *testing.T) {
	relay := NewSimulatedRelay()

	if err := relay.Enable(); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	if !relay.Enabled() {
		t.Error("expected enabled state after Enable")
	}

	if err := relay.Disable(); err != nil {
		t.Fatalf("Disable failed: %v", err)
	}
	if relay.Enabled() {
		t.Error("expected disabled state after Disable")
	}
}

func TestRelay_EnableIdempotent(t *testing.T) {
	relay := NewSimulatedRelay()

	for i := 0; i < 2; i++ {
		if err := relay.Enable(); err != nil {
			t.Fatalf("Enable call %d failed: %v", i+1, err)
		}
		if !relay.Enabled() {
			t.Fatalf("state not Enabled after call %d", i+1)
		}
	}
}

func TestRelay_DisableIdempotent(t *testing.T) {
	relay := NewSimulatedRelay()

	for i := 0; i < 2; i++ {
		if err := relay.Disable(); err != nil {
			t.Fatalf("Disable call %d failed: %v", i+1, err)
		}
		if relay.Enabled() {
			t.Fatalf("state not Disabled after call %d", i+1)
		}
	}
}

func TestRelay_SimulatedModeObservable(t *testing.T) {
	relay := NewSimulatedRelay()
	if !relay.Simulated() {
		t.Error("simulated relay must report Simulated() = true")
	}
}

func TestNewRelay_ForceSimulated(t *testing.T) {
	relay := NewRelay("GPIO17", true, zap.NewNop())
	if !relay.Simulated() {
		t.Error("forced simulated relay must report Simulated() = true")
	}
	if relay.Enabled() {
		t.Error("relay must start disabled")
	}
}
