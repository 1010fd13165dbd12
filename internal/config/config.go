package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var once sync.Once
var logger *zap.SugaredLogger
var loggerOnce sync.Once

// WeatherAPISettings carries everything the forecast client needs, so callers
// can inject it instead of reading process state.
type WeatherAPISettings struct {
	URL        string
	APIKey     string
	Days       int
	AirQuality string
	Timeout    time.Duration
}

// isTestRun returns true if the current process is a Go test binary.
func isTestRun() bool {
	return flag.Lookup("test.v") != nil || filepath.Ext(os.Args[0]) == ".test"
}

func setDefaults() {
	viper.SetDefault("weatherapi.api_url", "https://api.weatherapi.com/v1/forecast.json")
	viper.SetDefault("weatherapi.forecast_days", 5)
	viper.SetDefault("weatherapi.aqi", "no")
	viper.SetDefault("weatherapi.timeout", "0s")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.expiration", "10m")
	viper.SetDefault("geolocation.provider", "ip")
	viper.SetDefault("geolocation.endpoint", "http://ip-api.com/json/")
}

func initConfig() {
	once.Do(func() {
		setDefaults()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		root, err := getProjectRoot()
		if err != nil {
			GetLogger().Debugw("No project root found, using working directory", "error", err)
			root = "."
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
		viper.AddConfigPath(root)
		if err = viper.ReadInConfig(); err != nil {
			GetLogger().Warnw("Error reading config file, using defaults", "error", err)
		}

		if isTestRun() {
			viper.SetConfigName("config_test")
			if err = viper.MergeInConfig(); err != nil {
				GetLogger().Errorw("Error reading test config file", "error", err)
			}
		}
	})
}

func getProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func GetWeatherAPIURL() string {
	initConfig()
	return viper.GetString("weatherapi.api_url")
}

func GetWeatherAPIKey() string {
	_ = godotenv.Load()
	return os.Getenv("WEATHERAPI_KEY")
}

// GetForecastDays returns the forecast horizon requested from the API. Defaults to 5.
func GetForecastDays() int {
	initConfig()
	days := viper.GetInt("weatherapi.forecast_days")
	if days <= 0 {
		return 5
	}
	return days
}

func GetAirQuality() string {
	initConfig()
	return viper.GetString("weatherapi.aqi")
}

// GetHTTPTimeout returns the forecast client timeout. Zero leaves the transport default in place.
func GetHTTPTimeout() time.Duration {
	initConfig()
	dur, err := time.ParseDuration(viper.GetString("weatherapi.timeout"))
	if err != nil || dur < 0 {
		return 0
	}
	return dur
}

func GetWeatherAPISettings() WeatherAPISettings {
	return WeatherAPISettings{
		URL:        GetWeatherAPIURL(),
		APIKey:     GetWeatherAPIKey(),
		Days:       GetForecastDays(),
		AirQuality: GetAirQuality(),
		Timeout:    GetHTTPTimeout(),
	}
}

func GetRedisAddr() string {
	initConfig()
	return viper.GetString("redis.addr")
}

func GetServerPort() string {
	initConfig()
	serverPort := viper.GetString("server.port")
	return serverPort
}

func GetCacheEnabled() bool {
	initConfig()
	return viper.GetBool("cache.enabled")
}

// GetCacheExpiration returns the forecast cache TTL. Defaults to 10m if not set or invalid.
func GetCacheExpiration() time.Duration {
	initConfig()
	dur, err := time.ParseDuration(viper.GetString("cache.expiration"))
	if err != nil || dur <= 0 {
		return 10 * time.Minute
	}
	return dur
}

func GetServerTimeout(key string) string {
	initConfig()
	return viper.GetString("server." + key)
}

// GetServerTimeoutDuration parses a server timeout, falling back to def.
func GetServerTimeoutDuration(key string, def time.Duration) time.Duration {
	dur, err := time.ParseDuration(GetServerTimeout(key))
	if err != nil {
		return def
	}
	return dur
}

func GetGeolocationProvider() string {
	initConfig()
	return viper.GetString("geolocation.provider")
}

func GetGeolocationEndpoint() string {
	initConfig()
	return viper.GetString("geolocation.endpoint")
}

// GetStaticCoordinates returns the configured fixed position, if both axes are set.
func GetStaticCoordinates() (lat, lon float64, ok bool) {
	initConfig()
	if !viper.IsSet("geolocation.latitude") || !viper.IsSet("geolocation.longitude") {
		return 0, 0, false
	}
	return viper.GetFloat64("geolocation.latitude"), viper.GetFloat64("geolocation.longitude"), true
}

func GetTestRedisMockPort() string {
	initConfig()
	return viper.GetString("test.redis_mock_port")
}

func GetTestServerPort() string {
	initConfig()
	return viper.GetString("test.server_port")
}

// ReloadConfigForTest resets the config singleton and reloads Viper config. Use only in tests.
func ReloadConfigForTest() {
	once = sync.Once{}
	initConfig()
}

func GetLogger() *zap.SugaredLogger {
	loggerOnce.Do(func() {
		l, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		logger = l.Sugar()
	})
	return logger
}

// GetRateLimiterCleanupTimeout returns the rate limiter cleanup timeout as a time.Duration.
// Defaults to 3m if not set or invalid.
func GetRateLimiterCleanupTimeout() time.Duration {
	initConfig()
	durStr := viper.GetString("rate_limiter.cleanup_timeout")
	if durStr == "" {
		durStr = "3m"
	}
	dur, err := time.ParseDuration(durStr)
	if err != nil {
		return 3 * time.Minute
	}
	return dur
}

// GetGlobalRateLimiterConfig returns the per-minute rate and burst for the global rate limiter.
func GetGlobalRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.global.rate")
	if rate == 0 {
		rate = 10
	}
	burst = viper.GetInt("rate_limiter.global.burst")
	if burst == 0 {
		burst = 10
	}
	return
}

// GetParamRateLimiterConfig returns the per-minute rate and burst for the per-location rate limiter.
func GetParamRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.param.rate")
	if rate == 0 {
		rate = 2
	}
	burst = viper.GetInt("rate_limiter.param.burst")
	if burst == 0 {
		burst = 2
	}
	return
}
