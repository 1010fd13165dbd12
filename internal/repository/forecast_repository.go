package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fakhrymubarak/weather-forecast-widget/internal/config"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/model"
	"github.com/goccy/go-json"
)

// Custom error types
var (
	ErrLocationNotFound = errors.New("location not found")
	ErrAPIKeyMissing    = errors.New("API key missing")
	ErrExternalAPI      = errors.New("external API error")
	ErrMalformedPayload = errors.New("malformed forecast payload")
)

// ForecastRepository defines the interface for forecast data access
type ForecastRepository interface {
	GetForecast(ctx context.Context, location string) (*model.Forecast, error)
}

// weatherAPIRepository talks to the WeatherAPI.com forecast endpoint
type weatherAPIRepository struct {
	settings   config.WeatherAPISettings
	httpClient *http.Client
}

// NewForecastRepository creates a repository for the given API settings. An
// explicit client wins over the one derived from settings.Timeout.
func NewForecastRepository(settings config.WeatherAPISettings, httpClient ...*http.Client) ForecastRepository {
	client := http.DefaultClient
	if settings.Timeout > 0 {
		client = &http.Client{Timeout: settings.Timeout}
	}
	if len(httpClient) > 0 && httpClient[0] != nil {
		client = httpClient[0]
	}
	return &weatherAPIRepository{
		settings:   settings,
		httpClient: client,
	}
}

// GetForecast performs one GET against the forecast endpoint and decodes the reply
func (r *weatherAPIRepository) GetForecast(ctx context.Context, location string) (*model.Forecast, error) {
	if r.settings.APIKey == "" {
		return nil, ErrAPIKeyMissing
	}

	endpoint, err := r.buildURL(location)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalAPI, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrExternalAPI, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest {
			return nil, fmt.Errorf("%w (status %d): %s", ErrLocationNotFound, resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("%w (status %d): %s", ErrExternalAPI, resp.StatusCode, string(body))
	}

	return decodeForecast(body, r.settings.Days)
}

func (r *weatherAPIRepository) buildURL(location string) (string, error) {
	u, err := url.Parse(r.settings.URL)
	if err != nil {
		return "", fmt.Errorf("invalid forecast endpoint %q: %w", r.settings.URL, err)
	}
	days := r.settings.Days
	if days <= 0 {
		days = 5
	}
	aqi := r.settings.AirQuality
	if aqi == "" {
		aqi = "no"
	}

	params := u.Query()
	params.Set("key", r.settings.APIKey)
	params.Set("q", location)
	params.Set("days", strconv.Itoa(days))
	params.Set("aqi", aqi)
	u.RawQuery = params.Encode()
	return u.String(), nil
}

// decodeForecast maps a forecast.json body into the widget's model. Current
// conditions and the day list always come from the same payload.
func decodeForecast(body []byte, maxDays int) (*model.Forecast, error) {
	var payload model.WeatherAPIForecastResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if payload.Current == nil {
		return nil, fmt.Errorf("%w: missing current conditions", ErrMalformedPayload)
	}
	if payload.Forecast == nil {
		return nil, fmt.Errorf("%w: missing forecast", ErrMalformedPayload)
	}

	forecast := &model.Forecast{
		Current: model.WeatherSnapshot{
			Temperature: model.Temperature{
				Celsius:    payload.Current.TempC,
				Fahrenheit: payload.Current.TempF,
			},
			Condition: payload.Current.Condition,
			Humidity:  payload.Current.Humidity,
			WindKph:   payload.Current.WindKph,
		},
		Days: make([]model.ForecastDay, 0, len(payload.Forecast.ForecastDay)),
	}
	if payload.Location != nil {
		forecast.Current.LocationName = payload.Location.Name
		forecast.Current.Country = payload.Location.Country
	}

	seen := make(map[string]struct{}, len(payload.Forecast.ForecastDay))
	for i, day := range payload.Forecast.ForecastDay {
		if maxDays > 0 && i >= maxDays {
			break
		}
		if day.Date == "" || day.Day == nil {
			return nil, fmt.Errorf("%w: incomplete forecast day at index %d", ErrMalformedPayload, i)
		}
		if _, dup := seen[day.Date]; dup {
			return nil, fmt.Errorf("%w: duplicate forecast date %s", ErrMalformedPayload, day.Date)
		}
		seen[day.Date] = struct{}{}

		forecast.Days = append(forecast.Days, model.ForecastDay{
			Date:      day.Date,
			Max:       model.Temperature{Celsius: day.Day.MaxTempC, Fahrenheit: day.Day.MaxTempF},
			Min:       model.Temperature{Celsius: day.Day.MinTempC, Fahrenheit: day.Day.MinTempF},
			Condition: day.Day.Condition,
		})
	}

	return forecast, nil
}
