package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kmuriithi/vehicleguard/internal/auth"
	"github.com/kmuriithi/vehicleguard/internal/config"
	"github.com/kmuriithi/vehicleguard/internal/facerec"
	"github.com/kmuriithi/vehicleguard/internal/hardware"
	"github.com/kmuriithi/vehicleguard/internal/store"
	"github.com/kmuriithi/vehicleguard/internal/store/memory"
	"github.com/kmuriithi/vehicleguard/internal/store/sqlite"
)

// openStore picks SQLite when a database path is configured, otherwise an
// in-memory store for bench runs.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	if cfg.Database.Path == "" {
		logger.Warn("DATABASE_PATH not set, using in-memory storage")
		return memory.New(), nil
	}
	st, err := sqlite.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	logger.Info("database ready", zap.String("path", cfg.Database.Path))
	return st, nil
}

// buildMatcher loads the face detection cascade. A missing cascade file
// degrades to a detector that never finds faces; the service keeps
// running so remote control and telemetry stay available.
func buildMatcher(cfg *config.Config, logger *zap.Logger) *facerec.Matcher {
	if cfg.Recognition.CascadePath == "" {
		logger.Warn("FACE_CASCADE_PATH not set, face detection unavailable")
		return facerec.NewMatcher(facerec.UnavailableDetector{}, cfg.Recognition.Tolerance)
	}
	detector, err := facerec.NewPigoDetector(cfg.Recognition.CascadePath)
	if err != nil {
		logger.Warn("loading face cascade failed, face detection unavailable",
			zap.String("path", cfg.Recognition.CascadePath),
			zap.Error(err))
		return facerec.NewMatcher(facerec.UnavailableDetector{}, cfg.Recognition.Tolerance)
	}
	logger.Info("face cascade loaded", zap.String("path", cfg.Recognition.CascadePath))
	return facerec.NewMatcher(detector, cfg.Recognition.Tolerance)
}

// buildHardware assembles the relay, GPS, GSM and camera backends. With
// HARDWARE_SIMULATED set every module is simulated; otherwise each module
// talks to its device and the relay falls back to simulation on its own
// when GPIO is absent.
func buildHardware(cfg *config.Config, logger *zap.Logger) (hardware.Relay, hardware.LocationProvider, hardware.MessagingGateway, hardware.Camera) {
	hw := cfg.Hardware
	relay := hardware.NewRelay(hw.RelayPin, hw.Simulated, logger)

	var gps hardware.LocationProvider
	var gsm hardware.MessagingGateway
	var camera hardware.Camera
	if hw.Simulated {
		gps = hardware.NewSimulatedGPS(hw.SimulatedLat, hw.SimulatedLon)
		gsm = hardware.NewSimulatedGSM()
		camera = &hardware.SimulatedCamera{FramePath: hw.CameraFrame}
		logger.Info("hardware simulation enabled")
	} else {
		gps = hardware.NewSerialGPS(hw.GPSPort, hw.GPSBaud, logger)
		gsm = hardware.NewSerialGSM(hw.GSMPort, hw.GSMBaud, logger)
		camera = hardware.NewV4L2Camera(hw.CameraDevice, logger)
		logModemState(gsm, logger)
	}
	return relay, gps, gsm, camera
}

// logModemState records signal strength and network registration at
// startup so field deployments can spot a dead SIM early.
func logModemState(gsm hardware.MessagingGateway, logger *zap.Logger) {
	diag, ok := gsm.(hardware.ModemDiagnostics)
	if !ok {
		return
	}
	if rssi, ok := diag.SignalStrength(); ok {
		logger.Info("GSM signal strength", zap.Int("rssi", rssi))
	}
	if status, ok := diag.NetworkRegistration(); ok {
		logger.Info("GSM network registration", zap.String("status", status))
	}
}

func buildCoordinator(cfg *config.Config, st store.Store, logger *zap.Logger) *auth.Coordinator {
	relay, gps, gsm, camera := buildHardware(cfg, logger)
	return auth.New(auth.Config{
		Store:           st,
		Matcher:         buildMatcher(cfg, logger),
		Relay:           relay,
		GPS:             gps,
		GSM:             gsm,
		Camera:          camera,
		LockoutWindow:   cfg.Recognition.LockoutWindow,
		UnauthorizedDir: cfg.Recognition.UnauthorizedDir,
		Logger:          logger,
	})
}
