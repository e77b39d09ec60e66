package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Web.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Web.Port)
	}
	if cfg.Recognition.Tolerance != 0.5 {
		t.Errorf("expected default tolerance 0.5, got %f", cfg.Recognition.Tolerance)
	}
	if cfg.Recognition.LockoutWindow != 30*time.Second {
		t.Errorf("expected default lockout window 30s, got %v", cfg.Recognition.LockoutWindow)
	}
	if cfg.Hardware.GPSPort != "/dev/ttyUSB0" {
		t.Errorf("expected embedded GPS port default, got %q", cfg.Hardware.GPSPort)
	}
	if cfg.Hardware.GSMBaud != 115200 {
		t.Errorf("expected embedded GSM baud default, got %d", cfg.Hardware.GSMBaud)
	}
	if cfg.Hardware.RelayPin != "GPIO17" {
		t.Errorf("expected embedded relay pin default, got %q", cfg.Hardware.RelayPin)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WEB_PORT", "9999")
	t.Setenv("RECOGNITION_TOLERANCE", "0.75")
	t.Setenv("AUTHENTICATION_TIMEOUT", "60")
	t.Setenv("GPS_PORT", "/dev/ttyAMA0")
	t.Setenv("HARDWARE_SIMULATED", "true")

	cfg := Load()

	if cfg.Web.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Web.Port)
	}
	if cfg.Recognition.Tolerance != 0.75 {
		t.Errorf("expected tolerance 0.75, got %f", cfg.Recognition.Tolerance)
	}
	if cfg.Recognition.LockoutWindow != 60*time.Second {
		t.Errorf("expected lockout window 60s, got %v", cfg.Recognition.LockoutWindow)
	}
	if cfg.Hardware.GPSPort != "/dev/ttyAMA0" {
		t.Errorf("expected GPS port override, got %q", cfg.Hardware.GPSPort)
	}
	if !cfg.Hardware.Simulated {
		t.Error("expected simulated hardware to be enabled")
	}
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("WEB_PORT", "not-a-number")
	t.Setenv("RECOGNITION_TOLERANCE", "garbage")

	cfg := Load()

	if cfg.Web.Port != 8080 {
		t.Errorf("expected fallback port 8080, got %d", cfg.Web.Port)
	}
	if cfg.Recognition.Tolerance != 0.5 {
		t.Errorf("expected fallback tolerance 0.5, got %f", cfg.Recognition.Tolerance)
	}
}
