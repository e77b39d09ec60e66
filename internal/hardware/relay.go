// Package hardware wraps the physical modules of the vehicle unit: the
// engine relay, the GPS receiver, the GSM modem and the cabin camera.
// Every module degrades to a simulated backend when its hardware is
// missing, so startup never fails on a bench machine.
package hardware

import (
	"sync"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Relay is the binary actuator controlling engine power.
// Enable and Disable are idempotent: calling either in the matching state
// succeeds and leaves the state unchanged.
type Relay interface {
	Enable() error
	Disable() error
	// Enabled reports the last commanded state.
	Enabled() bool
	// Simulated reports whether actuation has any physical effect.
	Simulated() bool
}

// gpioRelay drives a relay board through a GPIO pin.
type gpioRelay struct {
	mu      sync.Mutex
	pin     gpio.PinIO
	enabled bool
}

// simulatedRelay tracks state without hardware.
type simulatedRelay struct {
	mu      sync.Mutex
	enabled bool
}

// NewRelay initializes the GPIO relay on pinName, falling back to a
// simulated relay when the GPIO host or the pin is unavailable. The relay
// always starts disabled: the engine is not drivable until authenticated.
func NewRelay(pinName string, forceSimulated bool, logger *zap.Logger) Relay {
	if forceSimulated {
		logger.Info("relay controller running in simulated mode", zap.String("pin", pinName))
		return &simulatedRelay{}
	}

	if _, err := host.Init(); err != nil {
		logger.Warn("GPIO host init failed, relay degraded to simulated mode", zap.Error(err))
		return &simulatedRelay{}
	}

	pin := gpioreg.ByName(pinName)
	if pin == nil {
		logger.Warn("GPIO pin not found, relay degraded to simulated mode", zap.String("pin", pinName))
		return &simulatedRelay{}
	}

	// Fail-safe default: engine disabled at startup.
	if err := pin.Out(gpio.Low); err != nil {
		logger.Warn("GPIO pin setup failed, relay degraded to simulated mode",
			zap.String("pin", pinName), zap.Error(err))
		return &simulatedRelay{}
	}

	logger.Info("relay controller initialized", zap.String("pin", pinName))
	return &gpioRelay{pin: pin}
}

func (r *gpioRelay) Enable() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.pin.Out(gpio.High); err != nil {
		return err
	}
	r.enabled = true
	return nil
}

func (r *gpioRelay) Disable() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.pin.Out(gpio.Low); err != nil {
		return err
	}
	r.enabled = false
	return nil
}

func (r *gpioRelay) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

func (r *gpioRelay) Simulated() bool { return false }

func (r *simulatedRelay) Enable() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = true
	return nil
}

func (r *simulatedRelay) Disable() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = false
	return nil
}

func (r *simulatedRelay) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

func (r *simulatedRelay) Simulated() bool { return true }

// NewSimulatedRelay returns a relay with no physical backend. Exported for
// tests and for wiring when no GPIO stack exists at all.
func NewSimulatedRelay() Relay { return &simulatedRelay{} }
