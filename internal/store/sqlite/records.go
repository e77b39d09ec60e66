package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kmuriithi/vehicleguard/internal/store"
)

func (s *Store) CreateAuthLog(ctx context.Context, rec store.AuthenticationLog) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var userID any
	if rec.UserID != nil {
		userID = *rec.UserID
	}
	var lat, lon any
	if rec.Latitude != nil {
		lat = *rec.Latitude
	}
	if rec.Longitude != nil {
		lon = *rec.Longitude
	}
	var face any
	if len(rec.FaceImage) > 0 {
		face = rec.FaceImage
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO auth_logs(id, vehicle_id, user_id, outcome, confidence, face_image, latitude, longitude, created_at_ms)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		rec.ID, rec.VehicleID, userID, rec.Outcome, rec.Confidence, face, lat, lon, ms(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("CreateAuthLog: %w", err)
	}
	return nil
}

func (s *Store) ListAuthLogsByVehicle(ctx context.Context, vehicleID int64, limit int) ([]store.AuthenticationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, vehicle_id, user_id, outcome, confidence, face_image, latitude, longitude, created_at_ms
FROM auth_logs WHERE vehicle_id = ?
ORDER BY created_at_ms DESC LIMIT ?;`, vehicleID, limit)
	if err != nil {
		return nil, fmt.Errorf("ListAuthLogsByVehicle: %w", err)
	}
	defer rows.Close()

	var out []store.AuthenticationLog
	for rows.Next() {
		var rec store.AuthenticationLog
		var userID sql.NullInt64
		var lat, lon sql.NullFloat64
		var createdMs int64
		if err := rows.Scan(&rec.ID, &rec.VehicleID, &userID, &rec.Outcome,
			&rec.Confidence, &rec.FaceImage, &lat, &lon, &createdMs); err != nil {
			return nil, fmt.Errorf("ListAuthLogsByVehicle scan: %w", err)
		}
		if userID.Valid {
			v := userID.Int64
			rec.UserID = &v
		}
		if lat.Valid {
			v := lat.Float64
			rec.Latitude = &v
		}
		if lon.Valid {
			v := lon.Float64
			rec.Longitude = &v
		}
		rec.CreatedAt = fromMS(createdMs)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) CreateAlert(ctx context.Context, a store.Alert) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	var image any
	if len(a.Image) > 0 {
		image = a.Image
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO alerts(id, vehicle_id, alert_type, severity, title, message, image, created_at_ms)
VALUES(?, ?, ?, ?, ?, ?, ?, ?);`,
		a.ID, a.VehicleID, a.Type, a.Severity, a.Title, a.Message, image, ms(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("CreateAlert: %w", err)
	}
	return nil
}

func (s *Store) CreateEvent(ctx context.Context, e store.VehicleEvent) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	var userID any
	if e.UserID != nil {
		userID = *e.UserID
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO vehicle_events(id, vehicle_id, event_type, description, user_id, created_at_ms)
VALUES(?, ?, ?, ?, ?, ?);`,
		e.ID, e.VehicleID, e.Type, e.Description, userID, ms(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("CreateEvent: %w", err)
	}
	return nil
}

func (s *Store) ListEventsByVehicle(ctx context.Context, vehicleID int64, limit int) ([]store.VehicleEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, vehicle_id, event_type, description, user_id, created_at_ms
FROM vehicle_events WHERE vehicle_id = ?
ORDER BY created_at_ms DESC LIMIT ?;`, vehicleID, limit)
	if err != nil {
		return nil, fmt.Errorf("ListEventsByVehicle: %w", err)
	}
	defer rows.Close()

	var out []store.VehicleEvent
	for rows.Next() {
		var e store.VehicleEvent
		var userID sql.NullInt64
		var createdMs int64
		if err := rows.Scan(&e.ID, &e.VehicleID, &e.Type, &e.Description, &userID, &createdMs); err != nil {
			return nil, fmt.Errorf("ListEventsByVehicle scan: %w", err)
		}
		if userID.Valid {
			v := userID.Int64
			e.UserID = &v
		}
		e.CreatedAt = fromMS(createdMs)
		out = append(out, e)
	}
	return out, rows.Err()
}
