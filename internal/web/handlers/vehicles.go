package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kmuriithi/vehicleguard/internal/store"
)

// VehicleHandler serves vehicle status and history queries.
type VehicleHandler struct {
	store  store.Store
	logger *zap.Logger
}

func NewVehicleHandler(st store.Store, logger *zap.Logger) *VehicleHandler {
	return &VehicleHandler{store: st, logger: logger}
}

type locationResponse struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Altitude   *float64  `json:"altitude,omitempty"`
	Speed      *float64  `json:"speed,omitempty"`
	Heading    *float64  `json:"heading,omitempty"`
	Satellites *int      `json:"satellites,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

func toLocationResponse(l store.VehicleLocation) *locationResponse {
	return &locationResponse{
		Latitude:   l.Latitude,
		Longitude:  l.Longitude,
		Altitude:   l.Altitude,
		Speed:      l.Speed,
		Heading:    l.Heading,
		Satellites: l.Satellites,
		RecordedAt: l.RecordedAt,
	}
}

type vehicleStatusResponse struct {
	ID                 int64             `json:"id"`
	RegistrationNumber string            `json:"registration_number"`
	OwnerName          string            `json:"owner_name"`
	EngineEnabled      bool              `json:"engine_enabled"`
	Status             string            `json:"status"`
	LastLocation       *locationResponse `json:"last_location,omitempty"`
}

// Status returns the vehicle's current state with its last known position.
func (h *VehicleHandler) Status(w http.ResponseWriter, r *http.Request) {
	vehicleID, ok := vehicleIDParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid vehicle id")
		return
	}

	v, err := h.store.GetVehicle(r.Context(), vehicleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "vehicle not found")
			return
		}
		h.logger.Error("vehicle lookup failed", zap.Int64("vehicle_id", vehicleID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "vehicle lookup failed")
		return
	}

	resp := vehicleStatusResponse{
		ID:                 v.ID,
		RegistrationNumber: v.RegistrationNumber,
		OwnerName:          v.OwnerName,
		EngineEnabled:      v.EngineEnabled,
		Status:             v.Status,
	}
	if loc, err := h.store.LatestLocation(r.Context(), vehicleID); err == nil {
		resp.LastLocation = toLocationResponse(loc)
	}
	respondJSON(w, http.StatusOK, resp)
}

type authLogResponse struct {
	ID         string    `json:"id"`
	UserID     *int64    `json:"user_id,omitempty"`
	Outcome    string    `json:"outcome"`
	Confidence float64   `json:"confidence"`
	HasImage   bool      `json:"has_image"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Logs lists authentication attempts, newest first.
func (h *VehicleHandler) Logs(w http.ResponseWriter, r *http.Request) {
	vehicleID, ok := vehicleIDParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid vehicle id")
		return
	}

	logs, err := h.store.ListAuthLogsByVehicle(r.Context(), vehicleID, listLimit(r))
	if err != nil {
		h.logger.Error("listing auth logs failed", zap.Int64("vehicle_id", vehicleID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "listing logs failed")
		return
	}

	out := make([]authLogResponse, 0, len(logs))
	for _, rec := range logs {
		out = append(out, authLogResponse{
			ID:         rec.ID,
			UserID:     rec.UserID,
			Outcome:    rec.Outcome,
			Confidence: rec.Confidence,
			HasImage:   len(rec.FaceImage) > 0,
			Latitude:   rec.Latitude,
			Longitude:  rec.Longitude,
			CreatedAt:  rec.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"logs": out})
}

type eventResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	UserID      *int64    `json:"user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Events lists the vehicle's event trail, newest first.
func (h *VehicleHandler) Events(w http.ResponseWriter, r *http.Request) {
	vehicleID, ok := vehicleIDParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid vehicle id")
		return
	}

	events, err := h.store.ListEventsByVehicle(r.Context(), vehicleID, listLimit(r))
	if err != nil {
		h.logger.Error("listing events failed", zap.Int64("vehicle_id", vehicleID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "listing events failed")
		return
	}

	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			ID:          e.ID,
			Type:        e.Type,
			Description: e.Description,
			UserID:      e.UserID,
			CreatedAt:   e.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"events": out})
}

// listLimit parses the limit query parameter with a sane default and cap.
func listLimit(r *http.Request) int {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}
	return limit
}
