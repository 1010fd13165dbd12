package model

// WeatherAPIForecastResponse is the subset of the WeatherAPI.com forecast.json
// payload the widget consumes. Top-level objects are pointers so a missing
// section can be told apart from a zero value.
type WeatherAPIForecastResponse struct {
	Location *struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"location"`
	Current *struct {
		TempC     float64          `json:"temp_c"`
		TempF     float64          `json:"temp_f"`
		Humidity  int              `json:"humidity"`
		WindKph   float64          `json:"wind_kph"`
		Condition WeatherCondition `json:"condition"`
	} `json:"current"`
	Forecast *struct {
		ForecastDay []WeatherAPIForecastDay `json:"forecastday"`
	} `json:"forecast"`
}

type WeatherAPIForecastDay struct {
	Date string `json:"date"`
	Day  *struct {
		MaxTempC  float64          `json:"maxtemp_c"`
		MaxTempF  float64          `json:"maxtemp_f"`
		MinTempC  float64          `json:"mintemp_c"`
		MinTempF  float64          `json:"mintemp_f"`
		Condition WeatherCondition `json:"condition"`
	} `json:"day"`
}

// WeatherCondition is the text/icon pair WeatherAPI attaches to readings.
type WeatherCondition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
}
