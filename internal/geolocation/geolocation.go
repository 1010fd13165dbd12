package geolocation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/fakhrymubarak/weather-forecast-widget/internal/config"
	"github.com/goccy/go-json"
)

var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrUnavailable      = errors.New("location unavailable")
)

// Coordinates is a position in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Query formats the position as the "lat,lon" key the forecast API accepts.
func (c Coordinates) Query() string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

// Locator resolves the current position of the device running the widget.
type Locator interface {
	Locate(ctx context.Context) (Coordinates, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (Coordinates, error)

func (f LocatorFunc) Locate(ctx context.Context) (Coordinates, error) {
	return f(ctx)
}

// StaticLocator always answers with a fixed position.
type StaticLocator struct {
	Coordinates Coordinates
}

func (s StaticLocator) Locate(context.Context) (Coordinates, error) {
	return s.Coordinates, nil
}

// DeniedLocator models a device where location access is switched off.
type DeniedLocator struct{}

func (DeniedLocator) Locate(context.Context) (Coordinates, error) {
	return Coordinates{}, ErrPermissionDenied
}

// IPLocator estimates the position from the public IP via an ip-api.com style endpoint.
type IPLocator struct {
	endpoint   string
	httpClient *http.Client
}

func NewIPLocator(endpoint string, httpClient ...*http.Client) *IPLocator {
	client := http.DefaultClient
	if len(httpClient) > 0 && httpClient[0] != nil {
		client = httpClient[0]
	}
	return &IPLocator{endpoint: endpoint, httpClient: client}
}

type ipAPIResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

func (l *IPLocator) Locate(ctx context.Context) (Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		return Coordinates{}, ErrPermissionDenied
	}
	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var payload ipAPIResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if payload.Status != "" && payload.Status != "success" {
		return Coordinates{}, fmt.Errorf("%w: %s", ErrUnavailable, payload.Message)
	}
	if payload.Lat == nil || payload.Lon == nil {
		return Coordinates{}, fmt.Errorf("%w: response carries no coordinates", ErrUnavailable)
	}
	return Coordinates{Latitude: *payload.Lat, Longitude: *payload.Lon}, nil
}

// NewFromConfig picks the locator named by geolocation.provider.
func NewFromConfig() Locator {
	switch config.GetGeolocationProvider() {
	case "static":
		lat, lon, ok := config.GetStaticCoordinates()
		if !ok {
			config.GetLogger().Warnw("Static geolocation selected without coordinates")
			return DeniedLocator{}
		}
		return StaticLocator{Coordinates: Coordinates{Latitude: lat, Longitude: lon}}
	case "none", "disabled":
		return DeniedLocator{}
	default:
		return NewIPLocator(config.GetGeolocationEndpoint())
	}
}
