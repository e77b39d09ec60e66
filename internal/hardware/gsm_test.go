package hardware

import (
	"strings"
	"testing"
)

func TestTruncateSMS(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"short message unchanged", "hello", 5},
		{"exactly at limit", strings.Repeat("a", 160), 160},
		{"over limit truncated", strings.Repeat("a", 300), 160},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := truncateSMS(tc.input)
			if len([]rune(got)) != tc.expected {
				t.Errorf("truncateSMS length = %d; want %d", len([]rune(got)), tc.expected)
			}
		})
	}
}

func TestSimulatedGSM_TruncatesBeforeSend(t *testing.T) {
	gsm := NewSimulatedGSM()

	ok, diag := gsm.SendSMS("+254712345678", strings.Repeat("x", 300))
	if !ok {
		t.Fatalf("simulated send failed: %s", diag)
	}

	sent := gsm.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 sent message, got %d", len(sent))
	}
	if len([]rune(sent[0].Message)) > 160 {
		t.Errorf("transmitted body exceeds 160 characters: %d", len([]rune(sent[0].Message)))
	}
}

func TestSimulatedGSM_RecordsRecipient(t *testing.T) {
	gsm := NewSimulatedGSM()

	gsm.SendSMS("+254700000001", "first")
	gsm.SendSMS("+254700000002", "second")

	sent := gsm.Sent()
	if len(sent) != 2 {
		t.Fatalf("expected 2 sent messages, got %d", len(sent))
	}
	if sent[0].PhoneNumber != "+254700000001" || sent[1].PhoneNumber != "+254700000002" {
		t.Errorf("recipients not recorded in order: %+v", sent)
	}
}

func TestParseCSQ(t *testing.T) {
	tests := []struct {
		name     string
		response string
		rssi     int
		ok       bool
	}{
		{"normal response", "\r\n+CSQ: 25,0\r\n\r\nOK\r\n", 25, true},
		{"weak signal", "+CSQ: 3,99\r\nOK", 3, true},
		{"no csq marker", "ERROR", 0, false},
		{"garbage value", "+CSQ: abc,0", 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rssi, ok := parseCSQ(tc.response)
			if ok != tc.ok {
				t.Fatalf("ok = %v; want %v", ok, tc.ok)
			}
			if ok && rssi != tc.rssi {
				t.Errorf("rssi = %d; want %d", rssi, tc.rssi)
			}
		})
	}
}

func TestParseCREG(t *testing.T) {
	tests := []struct {
		name     string
		response string
		status   string
		ok       bool
	}{
		{"registered home", "\r\n+CREG: 0,1\r\n\r\nOK\r\n", "Registered (home)", true},
		{"roaming", "+CREG: 0,5\r\nOK", "Registered (roaming)", true},
		{"searching", "+CREG: 0,2", "Searching", true},
		{"no creg marker", "OK", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, ok := parseCREG(tc.response)
			if ok != tc.ok {
				t.Fatalf("ok = %v; want %v", ok, tc.ok)
			}
			if ok && status != tc.status {
				t.Errorf("status = %q; want %q", status, tc.status)
			}
		})
	}
}
