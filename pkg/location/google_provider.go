package location

import (
	"context"
	"time"

	"googlemaps.github.io/maps"
)

// GoogleProvider uses the Google Maps Geolocation API.
type GoogleProvider struct {
	client  *maps.Client
	timeout time.Duration
	run     runFunc
}

// NewGoogleProvider creates a new GoogleProvider instance.
func NewGoogleProvider(apiKey string) (*GoogleProvider, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &GoogleProvider{client: c, timeout: 10 * time.Second, run: runCommand}, nil
}

// GetPosition geolocates the device from nearby WiFi access points and cell
// towers. Either source may be missing; the request then relies on the IP.
func (g *GoogleProvider) GetPosition(ctx context.Context) (Position, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := &maps.GeolocationRequest{ConsiderIP: true}
	if wifiAPs, err := scanWiFi(ctx, g.run); err == nil {
		req.WiFiAccessPoints = wifiAPs
	}
	if cellTowers, err := scanCellTower(ctx, g.run, 0); err == nil {
		req.CellTowers = cellTowers
	}

	resp, err := g.client.Geolocate(ctx, req)
	if err != nil {
		return Position{}, err
	}

	return Position{
		Latitude:  resp.Location.Lat,
		Longitude: resp.Location.Lng,
		Accuracy:  resp.Accuracy,
	}, nil
}

// Close is a no-op.
func (g *GoogleProvider) Close() error {
	return nil
}
