package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kmuriithi/vehicleguard/internal/store"
)

func (s *Store) GetVehicle(ctx context.Context, id int64) (store.Vehicle, error) {
	var v store.Vehicle
	var enabled int
	err := s.db.QueryRowContext(ctx, `
SELECT id, registration_number, owner_name, owner_phone, engine_enabled, status
FROM vehicles WHERE id = ?;`, id).Scan(
		&v.ID, &v.RegistrationNumber, &v.OwnerName, &v.OwnerPhone, &enabled, &v.Status,
	)
	if err == sql.ErrNoRows {
		return store.Vehicle{}, store.ErrNotFound
	}
	if err != nil {
		return store.Vehicle{}, fmt.Errorf("GetVehicle: %w", err)
	}
	v.EngineEnabled = enabled != 0
	return v, nil
}

func (s *Store) PutVehicle(ctx context.Context, v store.Vehicle) error {
	enabled := 0
	if v.EngineEnabled {
		enabled = 1
	}
	if v.Status == "" {
		v.Status = "active"
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO vehicles(id, registration_number, owner_name, owner_phone, engine_enabled, status)
VALUES(?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  registration_number = excluded.registration_number,
  owner_name = excluded.owner_name,
  owner_phone = excluded.owner_phone,
  engine_enabled = excluded.engine_enabled,
  status = excluded.status;`,
		v.ID, v.RegistrationNumber, v.OwnerName, v.OwnerPhone, enabled, v.Status,
	)
	if err != nil {
		return fmt.Errorf("PutVehicle: %w", err)
	}
	return nil
}

func (s *Store) SetEngineEnabled(ctx context.Context, id int64, enabled bool) error {
	v := 0
	if enabled {
		v = 1
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE vehicles SET engine_enabled = ? WHERE id = ?;", v, id)
	if err != nil {
		return fmt.Errorf("SetEngineEnabled: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("SetEngineEnabled rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (store.User, error) {
	var u store.User
	var authorized int
	var vehicleID sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
SELECT id, name, phone, authorized_driver, vehicle_id
FROM users WHERE id = ?;`, id).Scan(&u.ID, &u.Name, &u.Phone, &authorized, &vehicleID)
	if err == sql.ErrNoRows {
		return store.User{}, store.ErrNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("GetUser: %w", err)
	}
	u.AuthorizedDriver = authorized != 0
	if vehicleID.Valid {
		u.VehicleID = vehicleID.Int64
	}
	return u, nil
}

func (s *Store) PutUser(ctx context.Context, u store.User) error {
	authorized := 0
	if u.AuthorizedDriver {
		authorized = 1
	}
	var vehicleID any
	if u.VehicleID != 0 {
		vehicleID = u.VehicleID
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users(id, name, phone, authorized_driver, vehicle_id)
VALUES(?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name = excluded.name,
  phone = excluded.phone,
  authorized_driver = excluded.authorized_driver,
  vehicle_id = excluded.vehicle_id;`,
		u.ID, u.Name, u.Phone, authorized, vehicleID,
	)
	if err != nil {
		return fmt.Errorf("PutUser: %w", err)
	}
	return nil
}
