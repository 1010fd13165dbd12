package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fakhrymubarak/weather-forecast-widget/internal/config"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/model"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/repository"
)

var (
	ErrWeatherService = errors.New("weather service error")
	ErrEmptyLocation  = errors.New("empty location")
)

// WeatherServiceInterface is what the view and the HTTP handlers depend on.
type WeatherServiceInterface interface {
	GetForecast(ctx context.Context, location string) (*model.Forecast, error)
}

type WeatherService struct {
	WeatherRepo repository.ForecastRepository
}

// NewWeatherService builds a service over repo, or over a WeatherAPI
// repository configured from config when none is given.
func NewWeatherService(repo ...repository.ForecastRepository) *WeatherService {
	var weatherRepo repository.ForecastRepository
	if len(repo) > 0 && repo[0] != nil {
		weatherRepo = repo[0]
	} else {
		weatherRepo = repository.NewForecastRepository(config.GetWeatherAPISettings())
	}
	return &WeatherService{
		WeatherRepo: weatherRepo,
	}
}

// GetForecast trims location and asks the repository. Failures are logged
// with full detail and returned wrapped in ErrWeatherService.
func (s *WeatherService) GetForecast(ctx context.Context, location string) (*model.Forecast, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrEmptyLocation
	}

	forecast, err := s.WeatherRepo.GetForecast(ctx, location)
	if err != nil {
		config.GetLogger().Errorw("Forecast lookup failed", "location", location, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrWeatherService, err)
	}
	return forecast, nil
}
