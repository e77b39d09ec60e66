package hardware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
	"go.bug.st/serial"
	"go.uber.org/zap"
)

// ErrLocationUnavailable is returned when no usable fix could be read.
var ErrLocationUnavailable = errors.New("location unavailable")

// Location is one best-effort GPS fix.
type Location struct {
	Latitude   float64
	Longitude  float64
	Altitude   *float64
	Speed      *float64
	Heading    *float64
	Satellites *int
	Timestamp  time.Time
}

// LocationProvider yields the current position or signals unavailability.
// Read is a single probe; retrying is the caller's decision.
type LocationProvider interface {
	Read(ctx context.Context) (Location, error)
}

// serialGPS reads NMEA sentences from a Neo-6M style receiver.
type serialGPS struct {
	port   string
	baud   int
	logger *zap.Logger
}

// readWindow bounds one probe; the receiver emits a sentence burst every
// second, so two seconds is enough for a fix if one exists.
const readWindow = 2 * time.Second

func NewSerialGPS(port string, baud int, logger *zap.Logger) LocationProvider {
	return &serialGPS{port: port, baud: baud, logger: logger}
}

func (g *serialGPS) Read(ctx context.Context) (Location, error) {
	mode := &serial.Mode{BaudRate: g.baud}
	port, err := serial.Open(g.port, mode)
	if err != nil {
		g.logger.Debug("GPS port open failed", zap.String("port", g.port), zap.Error(err))
		return Location{}, ErrLocationUnavailable
	}
	defer port.Close()

	if err := port.SetReadTimeout(time.Second); err != nil {
		return Location{}, ErrLocationUnavailable
	}

	deadline := time.Now().Add(readWindow)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	return scanForFix(ctx, port, deadline)
}

// scanForFix reads newline-delimited sentences from r until one parses as
// a fix or the deadline passes. A timed-out serial read yields (0, nil),
// so the deadline is checked before every read rather than only between
// complete lines; a silent port costs at most one read timeout past the
// deadline.
func scanForFix(ctx context.Context, r io.Reader, deadline time.Time) (Location, error) {
	var pending []byte
	buf := make([]byte, 256)
	for {
		if time.Now().After(deadline) || ctx.Err() != nil {
			return Location{}, ErrLocationUnavailable
		}
		n, err := r.Read(buf)
		if err != nil {
			return Location{}, ErrLocationUnavailable
		}
		pending = append(pending, buf[:n]...)
		for {
			idx := bytes.IndexByte(pending, '\n')
			if idx < 0 {
				break
			}
			line := string(pending[:idx])
			pending = pending[idx+1:]
			if loc, ok := parseNMEALine(line); ok {
				return loc, nil
			}
		}
	}
}

// parseNMEALine extracts a location from a GGA or RMC sentence.
// Sentences without a latitude are not a fix.
func parseNMEALine(line string) (Location, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$GPGGA") && !strings.HasPrefix(line, "$GPRMC") {
		return Location{}, false
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		return Location{}, false
	}

	switch msg := sentence.(type) {
	case nmea.GGA:
		if msg.Latitude == 0 {
			return Location{}, false
		}
		loc := Location{
			Latitude:  msg.Latitude,
			Longitude: msg.Longitude,
			Timestamp: time.Now().UTC(),
		}
		altitude := msg.Altitude
		loc.Altitude = &altitude
		if msg.NumSatellites > 0 {
			sats := int(msg.NumSatellites)
			loc.Satellites = &sats
		}
		return loc, true
	case nmea.RMC:
		if msg.Latitude == 0 {
			return Location{}, false
		}
		loc := Location{
			Latitude:  msg.Latitude,
			Longitude: msg.Longitude,
			Timestamp: time.Now().UTC(),
		}
		speed := msg.Speed
		loc.Speed = &speed
		heading := msg.Course
		loc.Heading = &heading
		return loc, true
	}
	return Location{}, false
}

// simulatedGPS generates fixes jittered around a base position.
type simulatedGPS struct {
	baseLat   float64
	baseLon   float64
	variation float64
}

func NewSimulatedGPS(baseLat, baseLon float64) LocationProvider {
	return &simulatedGPS{baseLat: baseLat, baseLon: baseLon, variation: 0.001}
}

func (g *simulatedGPS) Read(context.Context) (Location, error) {
	altitude := 1600 + rand.Float64()*50
	speed := rand.Float64() * 60
	heading := rand.Float64() * 360
	sats := 4 + rand.Intn(9)

	return Location{
		Latitude:   g.baseLat + (rand.Float64()*2-1)*g.variation,
		Longitude:  g.baseLon + (rand.Float64()*2-1)*g.variation,
		Altitude:   &altitude,
		Speed:      &speed,
		Heading:    &heading,
		Satellites: &sats,
		Timestamp:  time.Now().UTC(),
	}, nil
}
