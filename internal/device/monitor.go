// Package device tracks the health of on-vehicle units. Units report
// heartbeats over the HTTP API; a background monitor flips silent units
// to offline.
package device

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kmuriithi/vehicleguard/internal/store"
)

// Heartbeat is one report from a unit.
type Heartbeat struct {
	DeviceID  string
	VehicleID int64
	Type      string
	Status    string
	At        time.Time
}

// Record upserts the device row and stamps its heartbeat. Unknown devices
// are registered on first contact.
func Record(ctx context.Context, st store.DeviceStore, hb Heartbeat) error {
	if hb.Status == "" {
		hb.Status = store.DeviceOnline
	}
	if hb.At.IsZero() {
		hb.At = time.Now()
	}

	if _, err := st.GetDevice(ctx, hb.DeviceID); err != nil {
		d := store.Device{
			DeviceID:  hb.DeviceID,
			VehicleID: hb.VehicleID,
			Type:      hb.Type,
			Status:    hb.Status,
		}
		if err := st.PutDevice(ctx, d); err != nil {
			return fmt.Errorf("registering device %s: %w", hb.DeviceID, err)
		}
	}
	if err := st.UpdateHeartbeat(ctx, hb.DeviceID, hb.Status, hb.At); err != nil {
		return fmt.Errorf("updating heartbeat for %s: %w", hb.DeviceID, err)
	}
	return nil
}

// Monitor periodically marks devices offline when their last heartbeat is
// older than the timeout.
type Monitor struct {
	store    store.DeviceStore
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewMonitor(st store.DeviceStore, interval, timeout time.Duration, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		store:    st,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start launches the sweep loop. Stop shuts it down and waits for the
// in-flight sweep to finish.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sweep(ctx)
			}
		}
	}()
}

func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}

func (m *Monitor) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-m.timeout)
	n, err := m.store.MarkOffline(ctx, cutoff)
	if err != nil {
		m.logger.Error("heartbeat sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		m.logger.Warn("devices went offline", zap.Int("count", n))
	}
}
