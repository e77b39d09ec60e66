// Package store defines the persistence collaborators of the authorization
// pipeline. The coordinator only creates and queries records; schema and
// retention belong to the backends.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by lookups for absent records.
var ErrNotFound = errors.New("record not found")

// Authentication outcomes. Rejected attempts (lockout, missing input) are
// not logged, so they have no outcome value here.
const (
	OutcomeSuccess      = "success"
	OutcomeUnauthorized = "unauthorized"
)

// Vehicle event types.
const (
	EventAuthSuccess        = "auth_success"
	EventUnauthorizedAccess = "unauthorized_access"
	EventRemoteEnable       = "remote_enable"
	EventRemoteImmobilize   = "remote_immobilize"
)

// Device statuses.
const (
	DeviceOnline  = "online"
	DeviceOffline = "offline"
	DeviceError   = "error"
)

type Vehicle struct {
	ID                 int64
	RegistrationNumber string
	OwnerName          string
	OwnerPhone         string
	EngineEnabled      bool
	Status             string
}

type User struct {
	ID               int64
	Name             string
	Phone            string
	AuthorizedDriver bool
	VehicleID        int64 // 0 = not assigned to a vehicle
}

// AuthenticationLog is the immutable audit record of one authentication
// attempt, written exactly once after the match decision.
type AuthenticationLog struct {
	ID         string
	VehicleID  int64
	UserID     *int64 // nil when no identity matched
	Outcome    string
	Confidence float64
	FaceImage  []byte // JPEG crop of the detected face, optional
	Latitude   *float64
	Longitude  *float64
	CreatedAt  time.Time
}

type Alert struct {
	ID        string
	VehicleID int64
	Type      string
	Severity  string
	Title     string
	Message   string
	Image     []byte
	CreatedAt time.Time
}

type VehicleEvent struct {
	ID          string
	VehicleID   int64
	Type        string
	Description string
	UserID      *int64 // actor, when the event is attributable
	CreatedAt   time.Time
}

type VehicleLocation struct {
	VehicleID  int64
	Latitude   float64
	Longitude  float64
	Altitude   *float64
	Speed      *float64
	Heading    *float64
	Satellites *int
	RecordedAt time.Time
}

type Device struct {
	DeviceID      string
	VehicleID     int64
	Type          string
	Status        string
	LastHeartbeat *time.Time
}

type VehicleStore interface {
	GetVehicle(ctx context.Context, id int64) (Vehicle, error)
	PutVehicle(ctx context.Context, v Vehicle) error
	// SetEngineEnabled persists the relay's last commanded state so the
	// rest of the system can query it without touching hardware.
	SetEngineEnabled(ctx context.Context, id int64, enabled bool) error
}

type UserStore interface {
	GetUser(ctx context.Context, id int64) (User, error)
	PutUser(ctx context.Context, u User) error
}

type AuthLogStore interface {
	CreateAuthLog(ctx context.Context, rec AuthenticationLog) error
	ListAuthLogsByVehicle(ctx context.Context, vehicleID int64, limit int) ([]AuthenticationLog, error)
}

type AlertStore interface {
	CreateAlert(ctx context.Context, a Alert) error
}

type EventStore interface {
	CreateEvent(ctx context.Context, e VehicleEvent) error
	ListEventsByVehicle(ctx context.Context, vehicleID int64, limit int) ([]VehicleEvent, error)
}

type LocationStore interface {
	CreateLocation(ctx context.Context, l VehicleLocation) error
	LatestLocation(ctx context.Context, vehicleID int64) (VehicleLocation, error)
}

type DeviceStore interface {
	GetDevice(ctx context.Context, deviceID string) (Device, error)
	PutDevice(ctx context.Context, d Device) error
	UpdateHeartbeat(ctx context.Context, deviceID, status string, at time.Time) error
	// MarkOffline flips devices whose last heartbeat is older than cutoff
	// to offline and returns how many were changed.
	MarkOffline(ctx context.Context, cutoff time.Time) (int, error)
}

// EncodingStore keeps one face encoding per enrolled identity. Enrollment
// replaces the previous encoding whole, never partially.
type EncodingStore interface {
	PutEncoding(ctx context.Context, userID int64, encoding []byte) error
	GetEncoding(ctx context.Context, userID int64) ([]byte, error)
	// AuthorizedEncodings returns the encodings of every authorized driver
	// assigned to the vehicle. Loaded fresh per authentication attempt;
	// authorization can change between attempts.
	AuthorizedEncodings(ctx context.Context, vehicleID int64) (map[int64][]byte, error)
}

// Store aggregates every collaborator backed by one database.
type Store interface {
	VehicleStore
	UserStore
	AuthLogStore
	AlertStore
	EventStore
	LocationStore
	DeviceStore
	EncodingStore

	Close() error
}
