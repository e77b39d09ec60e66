package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kmuriithi/vehicleguard/internal/auth"
	"github.com/kmuriithi/vehicleguard/internal/device"
	"github.com/kmuriithi/vehicleguard/internal/store"
)

// TelemetryHandler serves location queries, on-demand GPS probes and
// device heartbeats.
type TelemetryHandler struct {
	coord  *auth.Coordinator
	store  store.Store
	logger *zap.Logger
}

func NewTelemetryHandler(coord *auth.Coordinator, st store.Store, logger *zap.Logger) *TelemetryHandler {
	return &TelemetryHandler{coord: coord, store: st, logger: logger}
}

// Location returns the vehicle's last recorded position.
func (h *TelemetryHandler) Location(w http.ResponseWriter, r *http.Request) {
	vehicleID, ok := vehicleIDParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid vehicle id")
		return
	}

	loc, err := h.store.LatestLocation(r.Context(), vehicleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "no location recorded")
			return
		}
		h.logger.Error("location lookup failed", zap.Int64("vehicle_id", vehicleID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "location lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, toLocationResponse(loc))
}

// ProbeLocation records a position for the vehicle. A body with latitude
// and longitude stores the device-reported reading as-is; an empty body
// takes a fresh reading from the on-board GPS.
func (h *TelemetryHandler) ProbeLocation(w http.ResponseWriter, r *http.Request) {
	vehicleID, ok := vehicleIDParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid vehicle id")
		return
	}

	var body struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondError(w, http.StatusBadRequest, errInvalidRequestBody)
			return
		}
	}
	if body.Latitude != nil && body.Longitude != nil {
		h.reportedLocation(w, r, vehicleID, *body.Latitude, *body.Longitude)
		return
	}

	loc, err := h.coord.UpdateLocation(r.Context(), vehicleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "vehicle not found")
			return
		}
		h.logger.Warn("gps probe failed", zap.Int64("vehicle_id", vehicleID), zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "no GPS fix available")
		return
	}
	respondJSON(w, http.StatusOK, toLocationResponse(loc))
}

// reportedLocation persists coordinates supplied by the device itself.
func (h *TelemetryHandler) reportedLocation(w http.ResponseWriter, r *http.Request, vehicleID int64, lat, lon float64) {
	if _, err := h.store.GetVehicle(r.Context(), vehicleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "vehicle not found")
			return
		}
		h.logger.Error("vehicle lookup failed", zap.Int64("vehicle_id", vehicleID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "vehicle lookup failed")
		return
	}

	loc := store.VehicleLocation{
		VehicleID:  vehicleID,
		Latitude:   lat,
		Longitude:  lon,
		RecordedAt: time.Now(),
	}
	if err := h.store.CreateLocation(r.Context(), loc); err != nil {
		h.logger.Error("recording location failed", zap.Int64("vehicle_id", vehicleID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "recording location failed")
		return
	}
	respondJSON(w, http.StatusOK, toLocationResponse(loc))
}

// Heartbeat registers a unit's liveness report.
func (h *TelemetryHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DeviceID  string `json:"device_id"`
		VehicleID int64  `json:"vehicle_id"`
		Type      string `json:"type"`
		Status    string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if body.DeviceID == "" {
		respondError(w, http.StatusBadRequest, "device_id is required")
		return
	}

	err := device.Record(r.Context(), h.store, device.Heartbeat{
		DeviceID:  body.DeviceID,
		VehicleID: body.VehicleID,
		Type:      body.Type,
		Status:    body.Status,
		At:        time.Now(),
	})
	if err != nil {
		h.logger.Error("recording heartbeat failed",
			zap.String("device_id", sanitizeForLog(body.DeviceID)),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "recording heartbeat failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}
