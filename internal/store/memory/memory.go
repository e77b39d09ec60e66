// Package memory provides an in-process Store used by tests and by
// deployments that configure no database path.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kmuriithi/vehicleguard/internal/store"
)

type Store struct {
	mu        sync.RWMutex
	vehicles  map[int64]store.Vehicle
	users     map[int64]store.User
	authLogs  []store.AuthenticationLog
	alerts    []store.Alert
	events    []store.VehicleEvent
	locations []store.VehicleLocation
	devices   map[string]store.Device
	encodings map[int64][]byte
}

func New() *Store {
	return &Store{
		vehicles:  make(map[int64]store.Vehicle),
		users:     make(map[int64]store.User),
		devices:   make(map[string]store.Device),
		encodings: make(map[int64][]byte),
	}
}

func (s *Store) GetVehicle(_ context.Context, id int64) (store.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[id]
	if !ok {
		return store.Vehicle{}, store.ErrNotFound
	}
	return v, nil
}

func (s *Store) PutVehicle(_ context.Context, v store.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[v.ID] = v
	return nil
}

func (s *Store) SetEngineEnabled(_ context.Context, id int64, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return store.ErrNotFound
	}
	v.EngineEnabled = enabled
	s.vehicles[id] = v
	return nil
}

func (s *Store) GetUser(_ context.Context, id int64) (store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *Store) PutUser(_ context.Context, u store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *Store) CreateAuthLog(_ context.Context, rec store.AuthenticationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authLogs = append(s.authLogs, rec)
	return nil
}

func (s *Store) ListAuthLogsByVehicle(_ context.Context, vehicleID int64, limit int) ([]store.AuthenticationLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.AuthenticationLog
	for _, rec := range s.authLogs {
		if rec.VehicleID == vehicleID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreateAlert(_ context.Context, a store.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
	return nil
}

func (s *Store) CreateEvent(_ context.Context, e store.VehicleEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *Store) ListEventsByVehicle(_ context.Context, vehicleID int64, limit int) ([]store.VehicleEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.VehicleEvent
	for _, e := range s.events {
		if e.VehicleID == vehicleID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreateLocation(_ context.Context, l store.VehicleLocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations = append(s.locations, l)
	return nil
}

func (s *Store) LatestLocation(_ context.Context, vehicleID int64) (store.VehicleLocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := false
	var latest store.VehicleLocation
	for _, l := range s.locations {
		if l.VehicleID != vehicleID {
			continue
		}
		if !found || l.RecordedAt.After(latest.RecordedAt) {
			latest = l
			found = true
		}
	}
	if !found {
		return store.VehicleLocation{}, store.ErrNotFound
	}
	return latest, nil
}

func (s *Store) GetDevice(_ context.Context, deviceID string) (store.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices[deviceID]
	if !ok {
		return store.Device{}, store.ErrNotFound
	}
	return d, nil
}

func (s *Store) PutDevice(_ context.Context, d store.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices[d.DeviceID] = d
	return nil
}

func (s *Store) UpdateHeartbeat(_ context.Context, deviceID, status string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[deviceID]
	if !ok {
		return store.ErrNotFound
	}
	d.Status = status
	d.LastHeartbeat = &at
	s.devices[deviceID] = d
	return nil
}

func (s *Store) MarkOffline(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for id, d := range s.devices {
		if d.Status == store.DeviceOffline {
			continue
		}
		if d.LastHeartbeat == nil || d.LastHeartbeat.Before(cutoff) {
			d.Status = store.DeviceOffline
			s.devices[id] = d
			changed++
		}
	}
	return changed, nil
}

func (s *Store) PutEncoding(_ context.Context, userID int64, encoding []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Whole-record replacement; encodings are immutable once written.
	cp := make([]byte, len(encoding))
	copy(cp, encoding)
	s.encodings[userID] = cp
	return nil
}

func (s *Store) GetEncoding(_ context.Context, userID int64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	enc, ok := s.encodings[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return enc, nil
}

func (s *Store) AuthorizedEncodings(_ context.Context, vehicleID int64) (map[int64][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64][]byte)
	for id, u := range s.users {
		if !u.AuthorizedDriver || u.VehicleID != vehicleID {
			continue
		}
		if enc, ok := s.encodings[id]; ok {
			out[id] = enc
		}
	}
	return out, nil
}

func (s *Store) Close() error { return nil }
