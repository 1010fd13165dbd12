package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fakhrymubarak/weather-forecast-widget/internal/model"
)

// Display is the rendered form of a State. Panels are nil unless the request
// succeeded.
type Display struct {
	Loading     bool             `json:"loading"`
	Error       string           `json:"error,omitempty"`
	Current     *CurrentPanel    `json:"current,omitempty"`
	Forecast    []ForecastCard   `json:"forecast,omitempty"`
	Units       model.UnitSystem `json:"units"`
	ToggleLabel string           `json:"toggle_label"`
}

type CurrentPanel struct {
	Title       string `json:"title"`
	Temperature string `json:"temperature"`
	Condition   string `json:"condition"`
	Icon        string `json:"icon"`
	Humidity    string `json:"humidity"`
	Wind        string `json:"wind"`
}

// ForecastCard is one day of the strip; Key is the date.
type ForecastCard struct {
	Key       string `json:"key"`
	Date      string `json:"date"`
	Condition string `json:"condition"`
	Icon      string `json:"icon"`
	Max       string `json:"max"`
	Min       string `json:"min"`
}

// Render computes the display from state alone.
func Render(s State) Display {
	d := Display{
		Units:       s.Units,
		ToggleLabel: toggleLabel(s.Units),
	}

	switch s.Status.Kind() {
	case StatusLoading:
		d.Loading = true
	case StatusFailed:
		d.Error, _ = s.Status.Message()
	case StatusSucceeded:
		forecast, _ := s.Status.Forecast()
		if forecast == nil {
			break
		}
		d.Current = renderCurrent(forecast.Current, s.Units)
		d.Forecast = make([]ForecastCard, 0, len(forecast.Days))
		for _, day := range forecast.Days {
			d.Forecast = append(d.Forecast, ForecastCard{
				Key:       day.Date,
				Date:      day.Date,
				Condition: day.Condition.Text,
				Icon:      day.Condition.Icon,
				Max:       FormatTemperature(day.Max, s.Units),
				Min:       FormatTemperature(day.Min, s.Units),
			})
		}
	}
	return d
}

func renderCurrent(c model.WeatherSnapshot, units model.UnitSystem) *CurrentPanel {
	var title string
	if c.LocationName != "" {
		title = c.LocationName + ", " + c.Country
	}
	return &CurrentPanel{
		Title:       title,
		Temperature: FormatTemperature(c.Temperature, units),
		Condition:   c.Condition.Text,
		Icon:        c.Condition.Icon,
		Humidity:    strconv.Itoa(c.Humidity) + "%",
		Wind:        formatNumber(c.WindKph) + " km/h",
	}
}

// FormatTemperature renders t in units, e.g. "18°C" or "64.4°F".
func FormatTemperature(t model.Temperature, units model.UnitSystem) string {
	if units == model.Imperial {
		return formatNumber(t.Fahrenheit) + "°F"
	}
	return formatNumber(t.Celsius) + "°C"
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func toggleLabel(units model.UnitSystem) string {
	if units == model.Imperial {
		return "Switch to Celsius"
	}
	return "Switch to Fahrenheit"
}

// String lays the display out as plain text for a terminal.
func (d Display) String() string {
	var b strings.Builder
	if d.Loading {
		b.WriteString("Loading...\n")
	}
	if d.Error != "" {
		b.WriteString(d.Error + "\n")
	}
	if d.Current != nil {
		if d.Current.Title != "" {
			b.WriteString(d.Current.Title + "\n")
		}
		fmt.Fprintf(&b, "%s\n", d.Current.Temperature)
		fmt.Fprintf(&b, "%s [%s]\n", d.Current.Condition, d.Current.Icon)
		fmt.Fprintf(&b, "Humidity: %s\n", d.Current.Humidity)
		fmt.Fprintf(&b, "Wind: %s\n", d.Current.Wind)
	}
	if d.Current != nil && d.Forecast != nil {
		b.WriteString("\n5-Day Forecast\n")
		for _, c := range d.Forecast {
			fmt.Fprintf(&b, "%-10s  %-22s  Max: %-8s  Min: %s\n", c.Date, c.Condition, c.Max, c.Min)
		}
	}
	return b.String()
}
