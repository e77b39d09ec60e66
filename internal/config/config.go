package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Database    DatabaseConfig
	Web         WebConfig
	Recognition RecognitionConfig
	Hardware    HardwareConfig
}

type DatabaseConfig struct {
	Path string // SQLite database file (empty = in-memory stores, nothing survives restart)
}

type WebConfig struct {
	Host   string
	Port   int
	APIKey string // shared key for device endpoints; empty disables the check
}

type RecognitionConfig struct {
	Tolerance       float64       // minimum confidence to accept a match
	LockoutWindow   time.Duration // cooldown after a failed attempt
	CascadePath     string        // pigo facefinder cascade file
	UnauthorizedDir string        // where captured intruder frames are written (empty = skip)
}

type HardwareConfig struct {
	Simulated    bool    `yaml:"-"` // force simulated backends for every module
	GPSPort      string  `yaml:"gps_port"`
	GPSBaud      int     `yaml:"gps_baud"`
	GSMPort      string  `yaml:"gsm_port"`
	GSMBaud      int     `yaml:"gsm_baud"`
	RelayPin     string  `yaml:"relay_pin"`
	CameraDevice string  `yaml:"camera_device"`
	CameraFrame  string  `yaml:"-"` // still frame served by the simulated camera
	SimulatedLat float64 `yaml:"simulated_latitude"`
	SimulatedLon float64 `yaml:"simulated_longitude"`
}

type defaultsFile struct {
	Hardware HardwareConfig `yaml:"hardware"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

// envString reads an environment variable with a fallback.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envBool treats "1", "true" and "yes" as true.
func envBool(key string) bool {
	switch os.Getenv(key) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func Load() *Config {
	var defaults defaultsFile
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// Embedded file, so this can only be a build-time mistake.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	hw := defaults.Hardware

	hw.Simulated = envBool("HARDWARE_SIMULATED")
	hw.GPSPort = envString("GPS_PORT", hw.GPSPort)
	hw.GPSBaud = envInt("GPS_BAUDRATE", hw.GPSBaud)
	hw.GSMPort = envString("GSM_PORT", hw.GSMPort)
	hw.GSMBaud = envInt("GSM_BAUDRATE", hw.GSMBaud)
	hw.RelayPin = envString("RELAY_GPIO_PIN", hw.RelayPin)
	hw.CameraDevice = envString("CAMERA_DEVICE", hw.CameraDevice)
	hw.CameraFrame = os.Getenv("CAMERA_FRAME")

	return &Config{
		Database: DatabaseConfig{
			Path: os.Getenv("DATABASE_PATH"),
		},
		Web: WebConfig{
			Host:   envString("WEB_HOST", "0.0.0.0"),
			Port:   envInt("WEB_PORT", 8080),
			APIKey: os.Getenv("API_KEY"),
		},
		Recognition: RecognitionConfig{
			Tolerance:       envFloat("RECOGNITION_TOLERANCE", 0.5),
			LockoutWindow:   time.Duration(envInt("AUTHENTICATION_TIMEOUT", 30)) * time.Second,
			CascadePath:     os.Getenv("FACE_CASCADE_PATH"),
			UnauthorizedDir: os.Getenv("UNAUTHORIZED_IMAGES_DIR"),
		},
		Hardware: hw,
	}
}
