// Package view holds the weather widget state machine: one RequestStatus and
// one UnitSystem, mutated by user actions and forecast replies, and pushed to
// observers after every transition.
package view

import (
	"context"
	"strings"
	"sync"

	"github.com/fakhrymubarak/weather-forecast-widget/internal/config"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/geolocation"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/model"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// User-facing failure messages.
const (
	MsgFetchFailed    = "Error getting weather data"
	MsgLocationDenied = "Location access denied"
)

// Fetcher loads one forecast for a location key (free text or "lat,lon").
type Fetcher interface {
	GetForecast(ctx context.Context, location string) (*model.Forecast, error)
}

// State is everything the renderer needs.
type State struct {
	Status Status
	Units  model.UnitSystem
}

// Observer receives the new state after each transition. Observers run with
// the view locked and must not call back into it.
type Observer func(State)

type Option func(*View)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(v *View) { v.logger = logger }
}

func WithUnits(units model.UnitSystem) Option {
	return func(v *View) { v.units = units }
}

type View struct {
	fetcher Fetcher
	locator geolocation.Locator
	logger  *zap.SugaredLogger

	mu        sync.Mutex
	status    Status
	units     model.UnitSystem
	seq       uint64
	observers map[int]Observer
	nextObsID int

	tasks sync.WaitGroup
}

// New builds an idle, metric view. A nil locator behaves as a device that
// refuses location access.
func New(fetcher Fetcher, locator geolocation.Locator, opts ...Option) *View {
	v := &View{
		fetcher:   fetcher,
		locator:   locator,
		status:    Idle(),
		units:     model.Metric,
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = config.GetLogger()
	}
	if v.locator == nil {
		v.locator = geolocation.DeniedLocator{}
	}
	return v
}

// Subscribe registers o and returns a function that removes it.
func (v *View) Subscribe(o Observer) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextObsID
	v.nextObsID++
	v.observers[id] = o
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.observers, id)
	}
}

func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return State{Status: v.status, Units: v.units}
}

// Wait blocks until every fetch started so far has resolved.
func (v *View) Wait() {
	v.tasks.Wait()
}

// SubmitLocationQuery starts a forecast fetch for text. Blank input is ignored.
func (v *View) SubmitLocationQuery(ctx context.Context, text string) {
	query := strings.TrimSpace(text)
	if query == "" {
		return
	}

	v.mu.Lock()
	seq := v.nextSeqLocked()
	v.setStatusLocked(Loading())
	v.tasks.Add(1)
	v.mu.Unlock()

	go func() {
		defer v.tasks.Done()
		v.fetchForecast(ctx, seq, query)
	}()
}

// SubmitGeolocationQuery asks the locator for coordinates and fetches the
// forecast for them. A refusal fails the request without any network call.
func (v *View) SubmitGeolocationQuery(ctx context.Context) {
	v.mu.Lock()
	seq := v.nextSeqLocked()
	v.tasks.Add(1)
	v.mu.Unlock()

	go func() {
		defer v.tasks.Done()
		v.locateAndFetch(ctx, seq)
	}()
}

// ToggleUnits flips between metric and imperial. The fetched payload carries
// both, so nothing is refetched.
func (v *View) ToggleUnits() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.units = v.units.Toggle()
	v.notifyLocked()
}

func (v *View) locateAndFetch(ctx context.Context, seq uint64) {
	coords, err := v.locator.Locate(ctx)

	v.mu.Lock()
	if seq != v.seq {
		v.mu.Unlock()
		v.logger.Debugw("Discarding stale geolocation reply", "seq", seq)
		return
	}
	if err != nil {
		v.logger.Warnw("Geolocation failed", "seq", seq, "error", err)
		v.setStatusLocked(Failed(MsgLocationDenied))
		v.mu.Unlock()
		return
	}
	v.setStatusLocked(Loading())
	v.mu.Unlock()

	v.fetchForecast(ctx, seq, coords.Query())
}

func (v *View) fetchForecast(ctx context.Context, seq uint64, locationKey string) {
	log := v.logger.With("request_id", ulid.Make().String(), "seq", seq, "location", locationKey)
	log.Debugw("Fetching forecast")

	forecast, err := v.fetcher.GetForecast(ctx, locationKey)

	v.mu.Lock()
	defer v.mu.Unlock()
	if seq != v.seq {
		log.Debugw("Discarding stale forecast reply", "latest_seq", v.seq)
		return
	}
	if err != nil || forecast == nil {
		log.Errorw("Error getting weather data", "error", err)
		v.setStatusLocked(Failed(MsgFetchFailed))
		return
	}
	log.Infow("Forecast received", "days", len(forecast.Days), "cached", forecast.Cached)
	v.setStatusLocked(Succeeded(forecast))
}

func (v *View) nextSeqLocked() uint64 {
	v.seq++
	return v.seq
}

func (v *View) setStatusLocked(s Status) {
	v.status = s
	v.notifyLocked()
}

func (v *View) notifyLocked() {
	state := State{Status: v.status, Units: v.units}
	for _, o := range v.observers {
		o(state)
	}
}
