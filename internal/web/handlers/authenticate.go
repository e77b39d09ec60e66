package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kmuriithi/vehicleguard/internal/auth"
)

// maxUploadSize caps the in-memory portion of a frame upload.
const maxUploadSize = 10 << 20

// AuthHandler runs authentication attempts submitted over the device API.
type AuthHandler struct {
	coord  *auth.Coordinator
	logger *zap.Logger
}

func NewAuthHandler(coord *auth.Coordinator, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{coord: coord, logger: logger}
}

// Authenticate accepts either a multipart form with a vehicle_id field and
// an optional image file, or a JSON body with vehicle_id and an optional
// base64 image_data field. Without a frame the on-board camera is used.
func (h *AuthHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req auth.Request

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			respondError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		id, err := strconv.ParseInt(r.FormValue("vehicle_id"), 10, 64)
		if err != nil || id <= 0 {
			respondError(w, http.StatusBadRequest, "vehicle_id is required")
			return
		}
		req.VehicleID = id

		if file, _, err := r.FormFile("image"); err == nil {
			defer file.Close()
			img, format, err := image.Decode(file)
			if err != nil {
				respondError(w, http.StatusBadRequest, "unsupported image format")
				return
			}
			h.logger.Debug("frame uploaded",
				zap.Int64("vehicle_id", id),
				zap.String("format", sanitizeForLog(format)))
			req.Image = img
		}
	} else {
		var body struct {
			VehicleID int64  `json:"vehicle_id"`
			ImageData string `json:"image_data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondError(w, http.StatusBadRequest, errInvalidRequestBody)
			return
		}
		if body.VehicleID <= 0 {
			respondError(w, http.StatusBadRequest, "vehicle_id is required")
			return
		}
		req.VehicleID = body.VehicleID

		if body.ImageData != "" {
			raw, err := base64.StdEncoding.DecodeString(body.ImageData)
			if err != nil {
				respondError(w, http.StatusBadRequest, "image_data is not valid base64")
				return
			}
			img, _, err := image.Decode(bytes.NewReader(raw))
			if err != nil {
				respondError(w, http.StatusBadRequest, "unsupported image format")
				return
			}
			req.Image = img
		}
	}

	res := h.coord.Authenticate(r.Context(), req)
	respondJSON(w, statusForResult(res), res)
}
