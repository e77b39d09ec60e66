package hardware

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// MessagingGateway sends a bounded-length text message to a phone number.
// Failure is reported as ok=false with a diagnostic; it never propagates
// in a way that aborts the caller's flow.
type MessagingGateway interface {
	SendSMS(phoneNumber, message string) (ok bool, diagnostic string)
}

// ModemDiagnostics is implemented by gateways that can report modem
// state. Callers probe for it with a type assertion.
type ModemDiagnostics interface {
	SignalStrength() (rssi int, ok bool)
	NetworkRegistration() (status string, ok bool)
}

// smsMaxLength is the hard limit of the underlying transport. Longer
// bodies are truncated before the send, not inside it.
const smsMaxLength = 160

// truncateSMS enforces the transport limit on the message body.
func truncateSMS(message string) string {
	runes := []rune(message)
	if len(runes) <= smsMaxLength {
		return message
	}
	return string(runes[:smsMaxLength])
}

// serialGSM talks to a SIM800C modem over AT commands.
type serialGSM struct {
	mu     sync.Mutex
	port   string
	baud   int
	conn   serial.Port
	logger *zap.Logger
}

func NewSerialGSM(port string, baud int, logger *zap.Logger) MessagingGateway {
	return &serialGSM{port: port, baud: baud, logger: logger}
}

// connect opens the serial port and verifies the modem answers AT.
// Caller holds the mutex.
func (g *serialGSM) connect() error {
	if g.conn != nil {
		return nil
	}

	mode := &serial.Mode{BaudRate: g.baud}
	conn, err := serial.Open(g.port, mode)
	if err != nil {
		return fmt.Errorf("opening GSM port: %w", err)
	}
	if err := conn.SetReadTimeout(time.Second); err != nil {
		_ = conn.Close()
		return fmt.Errorf("setting GSM read timeout: %w", err)
	}
	g.conn = conn

	// Give the module time to settle after the port opens.
	time.Sleep(2 * time.Second)

	resp, err := g.sendAT("AT", time.Second)
	if err != nil || !strings.Contains(resp, "OK") {
		_ = conn.Close()
		g.conn = nil
		return fmt.Errorf("modem not responding to AT")
	}
	return nil
}

// sendAT writes one command and reads whatever the modem answers within
// the wait window. Caller holds the mutex.
func (g *serialGSM) sendAT(command string, wait time.Duration) (string, error) {
	if g.conn == nil {
		return "", fmt.Errorf("GSM port not open")
	}

	if err := g.conn.ResetInputBuffer(); err != nil {
		return "", fmt.Errorf("resetting input buffer: %w", err)
	}
	if _, err := g.conn.Write([]byte(command + "\r\n")); err != nil {
		return "", fmt.Errorf("writing AT command: %w", err)
	}
	time.Sleep(wait)

	buf := make([]byte, 256)
	n, err := g.conn.Read(buf)
	if err != nil {
		return "", fmt.Errorf("reading AT response: %w", err)
	}
	return string(buf[:n]), nil
}

// SendSMS runs the text-mode send sequence: CMGF=1, CMGS with the number,
// body terminated by Ctrl+Z.
func (g *serialGSM) SendSMS(phoneNumber, message string) (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	message = truncateSMS(message)

	if err := g.connect(); err != nil {
		g.logger.Warn("GSM connect failed", zap.Error(err))
		return false, err.Error()
	}

	resp, err := g.sendAT("AT+CMGF=1", time.Second)
	if err != nil || !strings.Contains(resp, "OK") {
		return false, "failed to set SMS text mode"
	}

	resp, err = g.sendAT(fmt.Sprintf(`AT+CMGS="%s"`, phoneNumber), 2*time.Second)
	if err != nil || !strings.Contains(resp, ">") {
		return false, "modem did not prompt for message body"
	}

	if _, err := g.conn.Write([]byte(message + "\x1a")); err != nil {
		return false, "failed to write message body"
	}
	time.Sleep(3 * time.Second)

	buf := make([]byte, 256)
	n, err := g.conn.Read(buf)
	if err != nil {
		return false, "no send confirmation from modem"
	}
	resp = string(buf[:n])
	if strings.Contains(resp, "OK") || strings.Contains(resp, "+CMGS") {
		return true, ""
	}
	return false, "modem rejected message: " + strings.TrimSpace(resp)
}

// SignalStrength queries AT+CSQ. The value is the raw RSSI index (0-31).
func (g *serialGSM) SignalStrength() (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.connect(); err != nil {
		return 0, false
	}
	resp, err := g.sendAT("AT+CSQ", time.Second)
	if err != nil {
		return 0, false
	}
	return parseCSQ(resp)
}

// parseCSQ extracts the RSSI from a "+CSQ: <rssi>,<ber>" response.
func parseCSQ(resp string) (int, bool) {
	idx := strings.Index(resp, "+CSQ:")
	if idx < 0 {
		return 0, false
	}
	fields := strings.SplitN(resp[idx+len("+CSQ:"):], ",", 2)
	rssi, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return 0, false
	}
	return rssi, true
}

// registrationStatuses maps AT+CREG? states to readable strings.
var registrationStatuses = map[int]string{
	0: "Not registered",
	1: "Registered (home)",
	2: "Searching",
	3: "Registration denied",
	4: "Unknown",
	5: "Registered (roaming)",
}

// NetworkRegistration queries AT+CREG? and reports the network state.
func (g *serialGSM) NetworkRegistration() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.connect(); err != nil {
		return "", false
	}
	resp, err := g.sendAT("AT+CREG?", time.Second)
	if err != nil {
		return "", false
	}
	return parseCREG(resp)
}

// parseCREG extracts the status from a "+CREG: <n>,<stat>" response.
func parseCREG(resp string) (string, bool) {
	idx := strings.Index(resp, "+CREG:")
	if idx < 0 {
		return "", false
	}
	fields := strings.Split(resp[idx:], ",")
	if len(fields) < 2 {
		return "", false
	}
	stat, err := strconv.Atoi(strings.TrimSpace(strings.TrimRight(fields[1], "\r\nOK ")))
	if err != nil {
		return "", false
	}
	status, ok := registrationStatuses[stat]
	if !ok {
		status = "Unknown"
	}
	return status, true
}

// SentSMS is one message recorded by the simulated gateway.
type SentSMS struct {
	PhoneNumber string
	Message     string
	At          time.Time
}

// SimulatedGSM records messages instead of transmitting them.
type SimulatedGSM struct {
	mu   sync.Mutex
	sent []SentSMS
}

func NewSimulatedGSM() *SimulatedGSM { return &SimulatedGSM{} }

func (g *SimulatedGSM) SendSMS(phoneNumber, message string) (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, SentSMS{
		PhoneNumber: phoneNumber,
		Message:     truncateSMS(message),
		At:          time.Now(),
	})
	return true, ""
}

// Sent returns a copy of every recorded message.
func (g *SimulatedGSM) Sent() []SentSMS {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]SentSMS, len(g.sent))
	copy(out, g.sent)
	return out
}
