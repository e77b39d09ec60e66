// Package auth runs the engine-authorization pipeline: one attempt takes a
// camera frame, matches it against the vehicle's authorized drivers and
// drives the relay, the audit trail and the owner alert from the decision.
package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kmuriithi/vehicleguard/internal/facerec"
	"github.com/kmuriithi/vehicleguard/internal/hardware"
	"github.com/kmuriithi/vehicleguard/internal/store"
)

// Request carries the inputs of one authentication attempt. When Image is
// nil the coordinator captures a frame from the on-board camera.
type Request struct {
	VehicleID int64
	Image     image.Image
}

// Config wires the coordinator's collaborators.
type Config struct {
	Store         store.Store
	Matcher       *facerec.Matcher
	Relay         hardware.Relay
	GPS           hardware.LocationProvider
	GSM           hardware.MessagingGateway
	Camera        hardware.Camera
	LockoutWindow time.Duration
	// UnauthorizedDir receives a JPEG of every denied face for later
	// review. Empty disables the export.
	UnauthorizedDir string
	Logger          *zap.Logger
}

// Coordinator serializes authentication attempts per vehicle and owns the
// lockout state. Safe for concurrent use.
type Coordinator struct {
	store   store.Store
	matcher *facerec.Matcher
	relay   hardware.Relay
	gps     hardware.LocationProvider
	gsm     hardware.MessagingGateway
	camera  hardware.Camera
	evidDir string
	logger  *zap.Logger

	lockouts *lockoutTracker
	locks    *vehicleLocks
	now      func() time.Time
}

func New(cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:    cfg.Store,
		matcher:  cfg.Matcher,
		relay:    cfg.Relay,
		gps:      cfg.GPS,
		gsm:      cfg.GSM,
		camera:   cfg.Camera,
		evidDir:  cfg.UnauthorizedDir,
		logger:   logger,
		lockouts: newLockoutTracker(cfg.LockoutWindow),
		locks:    newVehicleLocks(),
		now:      time.Now,
	}
}

// Authenticate runs one full attempt: lockout gate, frame acquisition,
// detection, matching, relay actuation, audit record and alerting. It
// holds the vehicle's lock for the whole attempt, so two concurrent
// attempts for the same vehicle never interleave.
func (c *Coordinator) Authenticate(ctx context.Context, req Request) Result {
	vehicle, err := c.store.GetVehicle(ctx, req.VehicleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return rejected(RejectNotFound, "Vehicle not found")
		}
		c.logger.Error("vehicle lookup failed", zap.Int64("vehicle_id", req.VehicleID), zap.Error(err))
		return rejected(RejectInternal, "Vehicle lookup failed")
	}

	mu := c.locks.get(vehicle.ID)
	mu.Lock()
	defer mu.Unlock()

	now := c.now()
	if locked, until := c.lockouts.locked(vehicle.ID, now); locked {
		c.logger.Warn("attempt during lockout",
			zap.Int64("vehicle_id", vehicle.ID),
			zap.Time("locked_until", until))
		res := rejected(RejectLocked, "Too many failed attempts. Try again later.")
		res.LockedUntil = &until
		return res
	}

	img := req.Image
	if img == nil {
		img, err = c.camera.Capture(ctx)
		if err != nil {
			c.logger.Error("camera capture failed", zap.Int64("vehicle_id", vehicle.ID), zap.Error(err))
			return rejected(RejectNoImage, "Failed to capture image from camera")
		}
	}

	// Location is best effort. A missing fix never blocks the decision,
	// it only leaves the audit record and SMS without coordinates.
	loc, locErr := c.gps.Read(ctx)
	hasFix := locErr == nil

	candidates, err := c.loadCandidates(ctx, vehicle.ID)
	if err != nil {
		c.logger.Error("loading authorized encodings failed", zap.Int64("vehicle_id", vehicle.ID), zap.Error(err))
		return rejected(RejectInternal, "Authorization data unavailable")
	}

	var (
		matchedID  int64
		found      bool
		confidence float64
		faceCrop   image.Image
	)
	enc, face, encErr := c.matcher.DetectAndEncode(img)
	if encErr == nil {
		faceCrop = facerec.FaceCrop(img, face)
		matchedID, found, confidence = match(c.matcher, enc, candidates)
	} else if !errors.Is(encErr, facerec.ErrNoFace) {
		c.logger.Error("face encoding failed", zap.Int64("vehicle_id", vehicle.ID), zap.Error(encErr))
	}

	authenticated := found && c.matcher.Accepts(confidence)

	var user store.User
	if authenticated {
		user, err = c.store.GetUser(ctx, matchedID)
		if err != nil {
			// The encoding outlived its user record. Treat as unauthorized.
			c.logger.Warn("matched encoding has no user",
				zap.Int64("vehicle_id", vehicle.ID),
				zap.Int64("user_id", matchedID),
				zap.Error(err))
			authenticated = false
		}
	}

	// The audit record is written from the match decision alone, before
	// actuation, so a relay fault can never suppress it.
	rec := store.AuthenticationLog{
		ID:         uuid.NewString(),
		VehicleID:  vehicle.ID,
		Outcome:    store.OutcomeUnauthorized,
		Confidence: confidence,
		FaceImage:  encodeJPEG(faceCrop),
		CreatedAt:  now,
	}
	if authenticated {
		rec.Outcome = store.OutcomeSuccess
		rec.UserID = &user.ID
	}
	if hasFix {
		rec.Latitude = &loc.Latitude
		rec.Longitude = &loc.Longitude
	}
	if err := c.store.CreateAuthLog(ctx, rec); err != nil {
		c.logger.Error("writing authentication log failed", zap.Int64("vehicle_id", vehicle.ID), zap.Error(err))
	}
	if hasFix {
		c.recordLocation(ctx, vehicle.ID, loc)
	}

	if authenticated {
		return c.grantAccess(ctx, vehicle, user, confidence)
	}
	return c.denyAccess(ctx, vehicle, confidence, rec.FaceImage, loc, hasFix, now)
}

func (c *Coordinator) grantAccess(ctx context.Context, vehicle store.Vehicle, user store.User, confidence float64) Result {
	if err := c.relay.Enable(); err != nil {
		c.logger.Warn("relay enable failed", zap.Int64("vehicle_id", vehicle.ID), zap.Error(err))
	}
	if err := c.store.SetEngineEnabled(ctx, vehicle.ID, true); err != nil {
		c.logger.Error("persisting engine state failed", zap.Int64("vehicle_id", vehicle.ID), zap.Error(err))
	}
	c.lockouts.clear(vehicle.ID)

	c.writeEvent(ctx, vehicle.ID, store.EventAuthSuccess,
		fmt.Sprintf("Successful authentication by %s", user.Name), &user.ID)

	c.logger.Info("authentication succeeded",
		zap.Int64("vehicle_id", vehicle.ID),
		zap.Int64("user_id", user.ID),
		zap.Float64("confidence", confidence))

	return Result{
		Success:       true,
		Outcome:       OutcomeSuccess,
		Message:       fmt.Sprintf("Welcome, %s!", user.Name),
		UserID:        &user.ID,
		UserName:      user.Name,
		Confidence:    confidence,
		EngineEnabled: true,
	}
}

func (c *Coordinator) denyAccess(ctx context.Context, vehicle store.Vehicle, confidence float64, faceImage []byte, loc hardware.Location, hasFix bool, now time.Time) Result {
	if err := c.relay.Disable(); err != nil {
		c.logger.Warn("relay disable failed", zap.Int64("vehicle_id", vehicle.ID), zap.Error(err))
	}
	if err := c.store.SetEngineEnabled(ctx, vehicle.ID, false); err != nil {
		c.logger.Error("persisting engine state failed", zap.Int64("vehicle_id", vehicle.ID), zap.Error(err))
	}
	c.lockouts.fail(vehicle.ID, now)

	c.writeEvent(ctx, vehicle.ID, store.EventUnauthorizedAccess, "Unauthorized access attempt detected", nil)

	alert := store.Alert{
		ID:        uuid.NewString(),
		VehicleID: vehicle.ID,
		Type:      "unauthorized_access",
		Severity:  "critical",
		Title:     "Unauthorized Access Attempt",
		Message:   fmt.Sprintf("Unauthorized person attempted to start vehicle %s at %s", vehicle.RegistrationNumber, now.Format(time.RFC3339)),
		Image:     faceImage,
		CreatedAt: now,
	}
	alertCreated := true
	if err := c.store.CreateAlert(ctx, alert); err != nil {
		alertCreated = false
		c.logger.Error("creating alert failed", zap.Int64("vehicle_id", vehicle.ID), zap.Error(err))
	}

	if len(faceImage) > 0 {
		c.exportUnauthorizedFrame(vehicle.ID, faceImage, now)
	}

	if vehicle.OwnerPhone != "" && hasFix {
		body := hardware.FormatUnauthorizedAccessSMS(vehicle.RegistrationNumber, loc, now)
		if ok, diag := c.gsm.SendSMS(vehicle.OwnerPhone, body); !ok {
			c.logger.Warn("owner SMS failed",
				zap.Int64("vehicle_id", vehicle.ID),
				zap.String("diagnostic", diag))
		}
	}

	c.logger.Warn("authentication denied",
		zap.Int64("vehicle_id", vehicle.ID),
		zap.Float64("confidence", confidence))

	return Result{
		Outcome:      OutcomeUnauthorized,
		Message:      "Authentication failed. Unauthorized access detected.",
		Confidence:   confidence,
		AlertCreated: alertCreated,
	}
}

// SetEngine is the remote-control path: no camera, no lockout interaction.
// The actor is whoever issued the command, attributed in the event trail.
func (c *Coordinator) SetEngine(ctx context.Context, vehicleID int64, enable bool, actor string, actorID *int64) Result {
	vehicle, err := c.store.GetVehicle(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return rejected(RejectNotFound, "Vehicle not found")
		}
		c.logger.Error("vehicle lookup failed", zap.Int64("vehicle_id", vehicleID), zap.Error(err))
		return rejected(RejectInternal, "Vehicle lookup failed")
	}

	mu := c.locks.get(vehicle.ID)
	mu.Lock()
	defer mu.Unlock()

	if enable {
		err = c.relay.Enable()
	} else {
		err = c.relay.Disable()
	}
	if err != nil {
		c.logger.Warn("relay actuation failed", zap.Int64("vehicle_id", vehicle.ID), zap.Bool("enable", enable), zap.Error(err))
	}
	if err := c.store.SetEngineEnabled(ctx, vehicle.ID, enable); err != nil {
		c.logger.Error("persisting engine state failed", zap.Int64("vehicle_id", vehicle.ID), zap.Error(err))
	}

	eventType := store.EventRemoteImmobilize
	verb := "immobilized"
	if enable {
		eventType = store.EventRemoteEnable
		verb = "enabled"
	}
	c.writeEvent(ctx, vehicle.ID, eventType,
		fmt.Sprintf("Engine remotely %s by %s", verb, actor), actorID)

	if vehicle.OwnerPhone != "" {
		body := hardware.FormatEngineStatusSMS(vehicle.RegistrationNumber, enable, actor)
		if ok, diag := c.gsm.SendSMS(vehicle.OwnerPhone, body); !ok {
			c.logger.Warn("owner SMS failed",
				zap.Int64("vehicle_id", vehicle.ID),
				zap.String("diagnostic", diag))
		}
	}

	return Result{
		Success:       true,
		Outcome:       OutcomeSuccess,
		Message:       fmt.Sprintf("Engine %s", verb),
		EngineEnabled: enable,
	}
}

// UpdateLocation takes one GPS reading and persists it as the vehicle's
// latest position.
func (c *Coordinator) UpdateLocation(ctx context.Context, vehicleID int64) (store.VehicleLocation, error) {
	if _, err := c.store.GetVehicle(ctx, vehicleID); err != nil {
		return store.VehicleLocation{}, fmt.Errorf("vehicle %d: %w", vehicleID, err)
	}
	loc, err := c.gps.Read(ctx)
	if err != nil {
		return store.VehicleLocation{}, fmt.Errorf("reading gps: %w", err)
	}
	rec := locationRecord(vehicleID, loc)
	if err := c.store.CreateLocation(ctx, rec); err != nil {
		return store.VehicleLocation{}, fmt.Errorf("persisting location: %w", err)
	}
	return rec, nil
}

func (c *Coordinator) loadCandidates(ctx context.Context, vehicleID int64) (map[int64]facerec.Encoding, error) {
	raw, err := c.store.AuthorizedEncodings(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	candidates := make(map[int64]facerec.Encoding, len(raw))
	for userID, data := range raw {
		enc, err := facerec.DecodeEncoding(data)
		if err != nil {
			c.logger.Warn("skipping undecodable encoding",
				zap.Int64("user_id", userID),
				zap.Error(err))
			continue
		}
		candidates[userID] = enc
	}
	return candidates, nil
}

// match converts the minimum distance to a confidence score. An empty or
// all-mismatched candidate set leaves confidence at zero.
func match(m *facerec.Matcher, enc facerec.Encoding, candidates map[int64]facerec.Encoding) (int64, bool, float64) {
	id, found, dist := m.Match(enc, candidates)
	return id, found, facerec.Confidence(dist)
}

func (c *Coordinator) writeEvent(ctx context.Context, vehicleID int64, eventType, description string, userID *int64) {
	err := c.store.CreateEvent(ctx, store.VehicleEvent{
		ID:          uuid.NewString(),
		VehicleID:   vehicleID,
		Type:        eventType,
		Description: description,
		UserID:      userID,
		CreatedAt:   c.now(),
	})
	if err != nil {
		c.logger.Error("writing vehicle event failed",
			zap.Int64("vehicle_id", vehicleID),
			zap.String("type", eventType),
			zap.Error(err))
	}
}

func (c *Coordinator) recordLocation(ctx context.Context, vehicleID int64, loc hardware.Location) {
	if err := c.store.CreateLocation(ctx, locationRecord(vehicleID, loc)); err != nil {
		c.logger.Error("persisting location failed", zap.Int64("vehicle_id", vehicleID), zap.Error(err))
	}
}

func locationRecord(vehicleID int64, loc hardware.Location) store.VehicleLocation {
	at := loc.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	return store.VehicleLocation{
		VehicleID:  vehicleID,
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		Altitude:   loc.Altitude,
		Speed:      loc.Speed,
		Heading:    loc.Heading,
		Satellites: loc.Satellites,
		RecordedAt: at,
	}
}

// exportUnauthorizedFrame drops the denied face crop on disk for review.
// Best effort, never blocks the decision path.
func (c *Coordinator) exportUnauthorizedFrame(vehicleID int64, jpegData []byte, at time.Time) {
	if c.evidDir == "" {
		return
	}
	if err := os.MkdirAll(c.evidDir, 0o755); err != nil {
		c.logger.Warn("creating unauthorized frame dir failed", zap.Error(err))
		return
	}
	name := fmt.Sprintf("unauthorized_v%d_%s.jpg", vehicleID, at.Format("20060102T150405"))
	if err := os.WriteFile(filepath.Join(c.evidDir, name), jpegData, 0o644); err != nil {
		c.logger.Warn("writing unauthorized frame failed", zap.Error(err))
	}
}

func encodeJPEG(img image.Image) []byte {
	if img == nil {
		return nil
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil
	}
	return buf.Bytes()
}
