package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kmuriithi/vehicleguard/internal/store"
)

func (s *Store) CreateLocation(ctx context.Context, l store.VehicleLocation) error {
	if l.RecordedAt.IsZero() {
		l.RecordedAt = time.Now().UTC()
	}
	var altitude, speed, heading any
	if l.Altitude != nil {
		altitude = *l.Altitude
	}
	if l.Speed != nil {
		speed = *l.Speed
	}
	if l.Heading != nil {
		heading = *l.Heading
	}
	var satellites any
	if l.Satellites != nil {
		satellites = *l.Satellites
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO vehicle_locations(vehicle_id, latitude, longitude, altitude, speed, heading, satellites, recorded_at_ms)
VALUES(?, ?, ?, ?, ?, ?, ?, ?);`,
		l.VehicleID, l.Latitude, l.Longitude, altitude, speed, heading, satellites, ms(l.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("CreateLocation: %w", err)
	}
	return nil
}

func (s *Store) LatestLocation(ctx context.Context, vehicleID int64) (store.VehicleLocation, error) {
	var l store.VehicleLocation
	var altitude, speed, heading sql.NullFloat64
	var satellites sql.NullInt64
	var recordedMs int64

	err := s.db.QueryRowContext(ctx, `
SELECT vehicle_id, latitude, longitude, altitude, speed, heading, satellites, recorded_at_ms
FROM vehicle_locations WHERE vehicle_id = ?
ORDER BY recorded_at_ms DESC LIMIT 1;`, vehicleID).Scan(
		&l.VehicleID, &l.Latitude, &l.Longitude, &altitude, &speed, &heading, &satellites, &recordedMs,
	)
	if err == sql.ErrNoRows {
		return store.VehicleLocation{}, store.ErrNotFound
	}
	if err != nil {
		return store.VehicleLocation{}, fmt.Errorf("LatestLocation: %w", err)
	}

	if altitude.Valid {
		v := altitude.Float64
		l.Altitude = &v
	}
	if speed.Valid {
		v := speed.Float64
		l.Speed = &v
	}
	if heading.Valid {
		v := heading.Float64
		l.Heading = &v
	}
	if satellites.Valid {
		v := int(satellites.Int64)
		l.Satellites = &v
	}
	l.RecordedAt = fromMS(recordedMs)
	return l, nil
}

func (s *Store) GetDevice(ctx context.Context, deviceID string) (store.Device, error) {
	var d store.Device
	var heartbeatMs sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
SELECT device_id, vehicle_id, device_type, status, last_heartbeat_ms
FROM devices WHERE device_id = ?;`, deviceID).Scan(
		&d.DeviceID, &d.VehicleID, &d.Type, &d.Status, &heartbeatMs,
	)
	if err == sql.ErrNoRows {
		return store.Device{}, store.ErrNotFound
	}
	if err != nil {
		return store.Device{}, fmt.Errorf("GetDevice: %w", err)
	}
	if heartbeatMs.Valid {
		t := fromMS(heartbeatMs.Int64)
		d.LastHeartbeat = &t
	}
	return d, nil
}

func (s *Store) PutDevice(ctx context.Context, d store.Device) error {
	if d.Status == "" {
		d.Status = store.DeviceOffline
	}
	var heartbeatMs any
	if d.LastHeartbeat != nil {
		heartbeatMs = ms(*d.LastHeartbeat)
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO devices(device_id, vehicle_id, device_type, status, last_heartbeat_ms)
VALUES(?, ?, ?, ?, ?)
ON CONFLICT(device_id) DO UPDATE SET
  vehicle_id = excluded.vehicle_id,
  device_type = excluded.device_type,
  status = excluded.status,
  last_heartbeat_ms = excluded.last_heartbeat_ms;`,
		d.DeviceID, d.VehicleID, d.Type, d.Status, heartbeatMs,
	)
	if err != nil {
		return fmt.Errorf("PutDevice: %w", err)
	}
	return nil
}

func (s *Store) UpdateHeartbeat(ctx context.Context, deviceID, status string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE devices SET status = ?, last_heartbeat_ms = ? WHERE device_id = ?;",
		status, ms(at), deviceID)
	if err != nil {
		return fmt.Errorf("UpdateHeartbeat: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateHeartbeat rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) MarkOffline(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
UPDATE devices SET status = ?
WHERE status != ? AND (last_heartbeat_ms IS NULL OR last_heartbeat_ms < ?);`,
		store.DeviceOffline, store.DeviceOffline, ms(cutoff))
	if err != nil {
		return 0, fmt.Errorf("MarkOffline: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("MarkOffline rows affected: %w", err)
	}
	return int(n), nil
}

func (s *Store) PutEncoding(ctx context.Context, userID int64, encoding []byte) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO face_encodings(user_id, encoding, updated_at_ms)
VALUES(?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
  encoding = excluded.encoding,
  updated_at_ms = excluded.updated_at_ms;`,
		userID, encoding, ms(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("PutEncoding: %w", err)
	}
	return nil
}

func (s *Store) GetEncoding(ctx context.Context, userID int64) ([]byte, error) {
	var encoding []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT encoding FROM face_encodings WHERE user_id = ?;", userID).Scan(&encoding)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetEncoding: %w", err)
	}
	return encoding, nil
}

func (s *Store) AuthorizedEncodings(ctx context.Context, vehicleID int64) (map[int64][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT u.id, e.encoding
FROM users u
JOIN face_encodings e ON e.user_id = u.id
WHERE u.vehicle_id = ? AND u.authorized_driver = 1;`, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("AuthorizedEncodings: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]byte)
	for rows.Next() {
		var id int64
		var encoding []byte
		if err := rows.Scan(&id, &encoding); err != nil {
			return nil, fmt.Errorf("AuthorizedEncodings scan: %w", err)
		}
		out[id] = encoding
	}
	return out, rows.Err()
}
