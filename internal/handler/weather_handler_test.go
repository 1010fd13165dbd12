package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fakhrymubarak/weather-forecast-widget/internal/geolocation"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/model"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/service"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/view"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock service for testing
type mockWeatherService struct {
	shouldError  bool
	mockData     *model.Forecast
	lastLocation string
	calls        int
}

func (m *mockWeatherService) GetForecast(ctx context.Context, location string) (*model.Forecast, error) {
	m.calls++
	m.lastLocation = location
	if m.shouldError {
		return nil, service.ErrWeatherService
	}
	return m.mockData, nil
}

// Ensure mockWeatherService implements WeatherServiceInterface
var _ service.WeatherServiceInterface = (*mockWeatherService)(nil)

type displayResponse struct {
	Data    view.Display `json:"data"`
	Error   *string      `json:"error"`
	Message string       `json:"message"`
}

func parisForecast() *model.Forecast {
	return &model.Forecast{
		Current: model.WeatherSnapshot{
			LocationName: "Paris",
			Country:      "France",
			Temperature:  model.Temperature{Celsius: 18, Fahrenheit: 64.4},
			Humidity:     72,
			WindKph:      11.2,
		},
		Days: []model.ForecastDay{
			{Date: "2024-05-01", Max: model.Temperature{Celsius: 20, Fahrenheit: 68}},
		},
	}
}

func TestNewWeatherHandler(t *testing.T) {
	handler := NewWeatherHandler(nil, nil)
	require.NotNil(t, handler)
	assert.NotNil(t, handler.WeatherService)
	assert.NotNil(t, handler.Locator)
}

func TestWeatherHandler_HandleWeather(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		shouldError    bool
		mockData       *model.Forecast
		expectedStatus int
		expectedError  string
		expectedTemp   string
		expectedCalls  int
	}{
		{
			name:           "Missing location parameter",
			target:         "/weather",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Missing 'location' query parameter",
		},
		{
			name:           "Blank location parameter",
			target:         "/weather?location=%20%20",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Missing 'location' query parameter",
		},
		{
			name:           "Invalid units",
			target:         "/weather?location=Paris&units=kelvin",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid 'units' query parameter, expected metric or imperial",
		},
		{
			name:           "Successful metric request",
			target:         "/weather?location=Paris",
			mockData:       parisForecast(),
			expectedStatus: http.StatusOK,
			expectedTemp:   "18°C",
			expectedCalls:  1,
		},
		{
			name:           "Successful imperial request",
			target:         "/weather?location=Paris&units=imperial",
			mockData:       parisForecast(),
			expectedStatus: http.StatusOK,
			expectedTemp:   "64.4°F",
			expectedCalls:  1,
		},
		{
			name:           "Service error",
			target:         "/weather?location=InvalidCity",
			shouldError:    true,
			expectedStatus: http.StatusInternalServerError,
			expectedError:  view.MsgFetchFailed,
			expectedCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockWeatherService{shouldError: tt.shouldError, mockData: tt.mockData}
			handler := &WeatherHandler{WeatherService: svc, Locator: geolocation.DeniedLocator{}}

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rr := httptest.NewRecorder()
			handler.HandleWeather(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Equal(t, tt.expectedCalls, svc.calls)

			var resp displayResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))

			if tt.expectedError != "" {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tt.expectedError, *resp.Error)
				assert.Nil(t, resp.Data.Current)
				assert.Empty(t, resp.Data.Forecast)
				return
			}
			assert.Nil(t, resp.Error)
			assert.Equal(t, "Success", resp.Message)
			require.NotNil(t, resp.Data.Current)
			assert.Equal(t, tt.expectedTemp, resp.Data.Current.Temperature)
			assert.Equal(t, "Paris, France", resp.Data.Current.Title)
			require.Len(t, resp.Data.Forecast, 1)
			assert.Equal(t, "2024-05-01", resp.Data.Forecast[0].Key)
		})
	}
}

func TestWeatherHandler_MethodNotAllowed(t *testing.T) {
	handler := &WeatherHandler{WeatherService: &mockWeatherService{}, Locator: geolocation.DeniedLocator{}}

	req := httptest.NewRequest(http.MethodPost, "/weather?location=Paris", nil)
	rr := httptest.NewRecorder()
	handler.HandleWeather(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodGet, rr.Header().Get("Allow"))
}

func TestWeatherHandler_HandleHere(t *testing.T) {
	t.Run("located", func(t *testing.T) {
		svc := &mockWeatherService{mockData: parisForecast()}
		handler := &WeatherHandler{
			WeatherService: svc,
			Locator:        geolocation.StaticLocator{Coordinates: geolocation.Coordinates{Latitude: 48.8567, Longitude: 2.3508}},
		}

		rr := httptest.NewRecorder()
		handler.HandleHere(rr, httptest.NewRequest(http.MethodGet, "/weather/here", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "48.8567,2.3508", svc.lastLocation)
	})

	t.Run("denied", func(t *testing.T) {
		svc := &mockWeatherService{mockData: parisForecast()}
		handler := &WeatherHandler{WeatherService: svc, Locator: geolocation.DeniedLocator{}}

		rr := httptest.NewRecorder()
		handler.HandleHere(rr, httptest.NewRequest(http.MethodGet, "/weather/here", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Contains(t, rr.Body.String(), view.MsgLocationDenied)
		assert.Equal(t, 0, svc.calls)
	})
}

func TestWeatherHandler_Register(t *testing.T) {
	handler := &WeatherHandler{WeatherService: &mockWeatherService{mockData: parisForecast()}, Locator: geolocation.DeniedLocator{}}
	var seen []string
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = append(seen, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
	mux := http.NewServeMux()
	handler.Register(mux, mw)

	for _, target := range []string{"/weather?location=Paris", "/weather/here"} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	}
	assert.Equal(t, []string{"/weather", "/weather/here"}, seen)
}

func BenchmarkWeatherHandler_HandleWeather(b *testing.B) {
	handler := &WeatherHandler{WeatherService: &mockWeatherService{mockData: parisForecast()}, Locator: geolocation.DeniedLocator{}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/weather?location=Paris", nil)
		rr := httptest.NewRecorder()
		handler.HandleWeather(rr, req)
	}
}
