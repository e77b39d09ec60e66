package hardware

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// removeDiacritics strips diacritical marks so names survive the GSM
// 7-bit alphabet (e.g. "Jiří" -> "Jiri").
func removeDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// FormatUnauthorizedAccessSMS builds the owner notification for a failed
// authentication attempt.
func FormatUnauthorizedAccessSMS(registration string, loc Location, at time.Time) string {
	message := fmt.Sprintf(
		"ALERT: Unauthorized access attempt on vehicle %s at %s. Location: %.6f, %.6f. Engine has been disabled.",
		registration,
		at.Format("2006-01-02 15:04:05"),
		loc.Latitude,
		loc.Longitude,
	)
	return truncateSMS(message)
}

// FormatEngineStatusSMS builds the owner notification for a remote engine
// state change.
func FormatEngineStatusSMS(registration string, enabled bool, actor string) string {
	status := "disabled"
	if enabled {
		status = "enabled"
	}
	message := fmt.Sprintf("Vehicle %s engine has been %s by %s.",
		registration, status, removeDiacritics(strings.TrimSpace(actor)))
	return truncateSMS(message)
}

// FormatGeofenceAlertSMS builds the owner notification for a geofence
// boundary crossing.
func FormatGeofenceAlertSMS(registration, geofenceName, action string) string {
	message := fmt.Sprintf("ALERT: Vehicle %s has %s geofence '%s'.",
		registration, action, geofenceName)
	return truncateSMS(message)
}
