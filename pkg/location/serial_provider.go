package location

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/tarm/serial"
)

// ErrNoFix is returned when the receiver output holds no valid fix.
var ErrNoFix = errors.New("no valid GPS fix found")

// maxSentences bounds how many NMEA lines are read looking for a fix.
const maxSentences = 64

// SerialProvider reads NMEA sentences from a GPS receiver on a serial port.
type SerialProvider struct {
	config *serial.Config
}

// NewSerialProvider creates a provider for the receiver on port.
func NewSerialProvider(port string, baudRate int) *SerialProvider {
	return &SerialProvider{
		config: &serial.Config{Name: port, Baud: baudRate, ReadTimeout: 2 * time.Second},
	}
}

// GetPosition opens the port and returns the first valid GGA or RMC fix.
func (p *SerialProvider) GetPosition(ctx context.Context) (Position, error) {
	port, err := serial.OpenPort(p.config)
	if err != nil {
		return Position{}, fmt.Errorf("failed to open GPS port %s: %w", p.config.Name, err)
	}
	defer port.Close()

	return ReadFix(ctx, port)
}

// Close is a no-op, the port is opened per reading.
func (p *SerialProvider) Close() error {
	return nil
}

// ReadFix scans NMEA sentences from r until it finds a valid fix.
// Unparseable lines are skipped.
func ReadFix(ctx context.Context, r io.Reader) (Position, error) {
	scanner := bufio.NewScanner(r)
	for i := 0; i < maxSentences && scanner.Scan(); i++ {
		if err := ctx.Err(); err != nil {
			return Position{}, err
		}

		sentence, err := nmea.Parse(scanner.Text())
		if err != nil {
			continue
		}

		switch s := sentence.(type) {
		case nmea.GGA:
			if s.FixQuality == nmea.Invalid {
				continue
			}
			return Position{
				Latitude:  s.Latitude,
				Longitude: s.Longitude,
				Altitude:  s.Altitude,
				Accuracy:  s.HDOP, // HDOP as a proxy for accuracy
			}, nil
		case nmea.RMC:
			if s.Validity != nmea.ValidRMC {
				continue
			}
			return Position{Latitude: s.Latitude, Longitude: s.Longitude}, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return Position{}, fmt.Errorf("failed to read GPS output: %w", err)
	}
	return Position{}, ErrNoFix
}
