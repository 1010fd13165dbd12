package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fakhrymubarak/weather-forecast-widget/internal/config"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/geolocation"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/handler"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/middleware"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/redis"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/repository"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/service"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/terminal"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/view"
)

func main() {
	serve := flag.Bool("serve", false, "Serve the widget over HTTP instead of the interactive prompt")
	flag.Parse()

	logger := config.GetLogger()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := service.NewWeatherService(buildRepository())
	locator := geolocation.NewFromConfig()

	if *serve {
		limiter := middleware.NewRateLimiterFromConfig()
		limiter.StartCleanup(ctx)
		if err := runServer(ctx, newServer(svc, locator, limiter)); err != nil {
			logger.Fatalw("Server failed", "error", err)
		}
		return
	}

	// Unblock the prompt when a signal arrives.
	go func() {
		<-ctx.Done()
		_ = os.Stdin.Close()
	}()
	err := terminal.New(view.New(svc, locator), os.Stdin, os.Stdout).Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalw("Widget stopped", "error", err)
	}
}

func buildRepository() repository.ForecastRepository {
	settings := config.GetWeatherAPISettings()
	if settings.APIKey == "" {
		config.GetLogger().Warnw("WEATHERAPI_KEY is not set, every lookup will fail")
	}
	repo := repository.NewForecastRepository(settings)
	if config.GetCacheEnabled() {
		config.GetLogger().Infow("Forecast cache enabled", "redis", config.GetRedisAddr(), "ttl", config.GetCacheExpiration())
		repo = repository.NewCachedForecastRepository(repo, redis.GetClient(), config.GetCacheExpiration())
	}
	return repo
}

func newServer(svc service.WeatherServiceInterface, locator geolocation.Locator, limiter *middleware.RateLimiter) *http.Server {
	mux := http.NewServeMux()
	handler.NewWeatherHandler(svc, locator).Register(mux, limiter.Middleware)

	return &http.Server{
		Addr:              ":" + config.GetServerPort(),
		Handler:           mux,
		ReadHeaderTimeout: config.GetServerTimeoutDuration("read_header_timeout", 15*time.Second),
		ReadTimeout:       config.GetServerTimeoutDuration("read_timeout", 15*time.Second),
		WriteTimeout:      config.GetServerTimeoutDuration("write_timeout", 10*time.Second),
		IdleTimeout:       config.GetServerTimeoutDuration("idle_timeout", 30*time.Second),
	}
}

// runServer serves until ctx is done, then shuts down gracefully.
func runServer(ctx context.Context, srv *http.Server) error {
	logger := config.GetLogger()
	serverErr := make(chan error, 1)
	go func() {
		logger.Infow("Weather widget server running", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Infow("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
