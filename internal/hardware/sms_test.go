package hardware

import (
	"strings"
	"testing"
	"time"
)

func TestFormatUnauthorizedAccessSMS(t *testing.T) {
	loc := Location{Latitude: -1.092700, Longitude: 37.014300}
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	msg := FormatUnauthorizedAccessSMS("KCA 123X", loc, at)

	for _, want := range []string{
		"ALERT",
		"KCA 123X",
		"2025-03-14 09:26:53",
		"-1.092700",
		"37.014300",
		"Engine has been disabled",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q: %s", want, msg)
		}
	}
	if len([]rune(msg)) > 160 {
		t.Errorf("message exceeds 160 characters: %d", len([]rune(msg)))
	}
}

func TestFormatEngineStatusSMS(t *testing.T) {
	enabled := FormatEngineStatusSMS("KCA 123X", true, "Jane Wanjiku")
	if !strings.Contains(enabled, "enabled by Jane Wanjiku") {
		t.Errorf("unexpected enabled message: %s", enabled)
	}

	disabled := FormatEngineStatusSMS("KCA 123X", false, "Jane Wanjiku")
	if !strings.Contains(disabled, "disabled by Jane Wanjiku") {
		t.Errorf("unexpected disabled message: %s", disabled)
	}
}

func TestFormatEngineStatusSMS_StripsDiacritics(t *testing.T) {
	msg := FormatEngineStatusSMS("KCA 123X", false, "Jiří Novák")
	if !strings.Contains(msg, "Jiri Novak") {
		t.Errorf("expected diacritics stripped from actor name: %s", msg)
	}
}

func TestFormatGeofenceAlertSMS(t *testing.T) {
	msg := FormatGeofenceAlertSMS("KCA 123X", "Depot", "exited")
	if !strings.Contains(msg, "KCA 123X") || !strings.Contains(msg, "exited") || !strings.Contains(msg, "Depot") {
		t.Errorf("unexpected geofence message: %s", msg)
	}
	if len([]rune(msg)) > 160 {
		t.Errorf("message exceeds 160 characters: %d", len([]rune(msg)))
	}
}

func TestSMSTemplates_AlwaysWithinLimit(t *testing.T) {
	// A hostile registration number cannot push any template past the
	// transport limit.
	longReg := strings.Repeat("X", 400)

	msgs := []string{
		FormatUnauthorizedAccessSMS(longReg, Location{}, time.Now()),
		FormatEngineStatusSMS(longReg, true, strings.Repeat("y", 200)),
		FormatGeofenceAlertSMS(longReg, "zone", "entered"),
	}
	for i, msg := range msgs {
		if len([]rune(msg)) > 160 {
			t.Errorf("template %d exceeds 160 characters: %d", i, len([]rune(msg)))
		}
	}
}
