package model

import "fmt"

// UnitSystem selects which of the dual-unit readings gets displayed.
type UnitSystem string

const (
	Metric   UnitSystem = "metric"
	Imperial UnitSystem = "imperial"
)

// Toggle returns the other unit system.
func (u UnitSystem) Toggle() UnitSystem {
	if u == Imperial {
		return Metric
	}
	return Imperial
}

// ParseUnitSystem accepts "metric" or "imperial"; an empty string means metric.
func ParseUnitSystem(s string) (UnitSystem, error) {
	switch UnitSystem(s) {
	case "", Metric:
		return Metric, nil
	case Imperial:
		return Imperial, nil
	}
	return "", fmt.Errorf("unknown unit system %q", s)
}

// Temperature holds a reading in both unit systems as reported by the API.
type Temperature struct {
	Celsius    float64 `json:"celsius"`
	Fahrenheit float64 `json:"fahrenheit"`
}

// In picks the field matching units.
func (t Temperature) In(units UnitSystem) float64 {
	if units == Imperial {
		return t.Fahrenheit
	}
	return t.Celsius
}

// WeatherSnapshot is the current-conditions part of one forecast payload.
type WeatherSnapshot struct {
	LocationName string           `json:"location_name"`
	Country      string           `json:"country"`
	Temperature  Temperature      `json:"temperature"`
	Condition    WeatherCondition `json:"condition"`
	Humidity     int              `json:"humidity"`
	WindKph      float64          `json:"wind_kph"`
}

// ForecastDay is one day of the forecast strip.
type ForecastDay struct {
	Date      string           `json:"date"`
	Max       Temperature      `json:"max"`
	Min       Temperature      `json:"min"`
	Condition WeatherCondition `json:"condition"`
}

// Forecast is everything decoded from a single forecast response.
type Forecast struct {
	Current WeatherSnapshot `json:"current"`
	Days    []ForecastDay   `json:"days"`
	Cached  bool            `json:"cached"`
}
