package integrationtest

import (
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/config"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/geolocation"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/handler"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/middleware"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/redis"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/repository"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/service"
)

const testAPIKey = "test_api_key"

var (
	miniRedisMock *miniredis.Miniredis
)

func createMockRedisServer() {
	miniRedisMock = miniredis.NewMiniRedis()
	err := miniRedisMock.StartAddr(config.GetTestRedisMockPort())
	if err != nil {
		// the fixed port is taken, any free one will do
		if err = miniRedisMock.Start(); err != nil {
			panic(err)
		}
	}
}

// mockWeatherAPI imitates the forecast.json endpoint for Paris and London.
func mockWeatherAPI() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != testAPIKey {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":2006,"message":"API key is invalid."}}`))
			return
		}
		if q.Get("days") != "5" || q.Get("aqi") != "no" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch q.Get("q") {
		case "Paris", "48.8567,2.3508":
			data, err := os.ReadFile("../internal/repository/testdata/paris_forecast.json")
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(data)
		case "Broken":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"location":{"name":"Broken"}}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":1006,"message":"No matching location found."}}`))
		}
	}))
}

// setupIntegrationTestServer wires the production stack against the mocks.
func setupIntegrationTestServer(apiURL string) *httptest.Server {
	settings := config.WeatherAPISettings{
		URL:        apiURL,
		APIKey:     testAPIKey,
		Days:       config.GetForecastDays(),
		AirQuality: config.GetAirQuality(),
	}
	repo := repository.NewCachedForecastRepository(
		repository.NewForecastRepository(settings),
		redis.GetClient(),
		time.Minute,
	)
	weatherService := service.NewWeatherService(repo)
	locator := geolocation.StaticLocator{Coordinates: geolocation.Coordinates{Latitude: 48.8567, Longitude: 2.3508}}

	limiter := middleware.NewRateLimiter(
		middleware.Limit{PerMinute: 600, Burst: 100},
		middleware.Limit{PerMinute: 600, Burst: 100},
		"location",
		time.Minute,
	)

	mux := http.NewServeMux()
	handler.NewWeatherHandler(weatherService, locator).Register(mux, limiter.Middleware)
	return httptest.NewServer(mux)
}
