package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/kmuriithi/vehicleguard/internal/auth"
)

// EngineHandler serves remote engine control commands.
type EngineHandler struct {
	coord  *auth.Coordinator
	logger *zap.Logger
}

func NewEngineHandler(coord *auth.Coordinator, logger *zap.Logger) *EngineHandler {
	return &EngineHandler{coord: coord, logger: logger}
}

// Set enables or immobilizes the engine remotely.
func (h *EngineHandler) Set(w http.ResponseWriter, r *http.Request) {
	vehicleID, ok := vehicleIDParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid vehicle id")
		return
	}

	var body struct {
		Enable  bool   `json:"enable"`
		Actor   string `json:"actor"`
		ActorID *int64 `json:"actor_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if body.Actor == "" {
		respondError(w, http.StatusBadRequest, "actor is required")
		return
	}

	h.logger.Info("remote engine command",
		zap.Int64("vehicle_id", vehicleID),
		zap.Bool("enable", body.Enable),
		zap.String("actor", sanitizeForLog(body.Actor)))

	res := h.coord.SetEngine(r.Context(), vehicleID, body.Enable, body.Actor, body.ActorID)
	respondJSON(w, statusForResult(res), res)
}
