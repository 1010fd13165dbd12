package handler

import (
	"net/http"
	"strings"

	"github.com/fakhrymubarak/weather-forecast-widget/internal/config"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/geolocation"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/model"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/service"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/view"
	"github.com/goccy/go-json"
)

// WeatherHandler serves the rendered widget over HTTP. Every request drives
// its own view through one query, so the JSON body is exactly what the
// terminal front-end would draw.
type WeatherHandler struct {
	WeatherService service.WeatherServiceInterface
	Locator        geolocation.Locator
}

func NewWeatherHandler(svc service.WeatherServiceInterface, locator geolocation.Locator) *WeatherHandler {
	if svc == nil {
		svc = service.NewWeatherService()
	}
	if locator == nil {
		locator = geolocation.NewFromConfig()
	}
	return &WeatherHandler{
		WeatherService: svc,
		Locator:        locator,
	}
}

// Register mounts the handlers on mux, each wrapped by the given middlewares.
func (h *WeatherHandler) Register(mux *http.ServeMux, middlewares ...func(http.Handler) http.Handler) {
	wrap := func(f http.HandlerFunc) http.Handler {
		var next http.Handler = f
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
	mux.Handle("/weather", wrap(h.HandleWeather))
	mux.Handle("/weather/here", wrap(h.HandleHere))
}

func (h *WeatherHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		config.GetLogger().Errorw("could not encode json", "error", err)
	}
}

func (h *WeatherHandler) writeError(w http.ResponseWriter, statusCode int, errMsg string) {
	h.writeJSONResponse(w, statusCode, model.Response{
		Error:   &errMsg,
		Message: "Error",
	})
}

// prepare validates method and units and builds the per-request view.
func (h *WeatherHandler) prepare(w http.ResponseWriter, r *http.Request) (*view.View, bool) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return nil, false
	}
	units, err := model.ParseUnitSystem(r.URL.Query().Get("units"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid 'units' query parameter, expected metric or imperial")
		return nil, false
	}
	return view.New(h.WeatherService, h.Locator, view.WithUnits(units)), true
}

func (h *WeatherHandler) HandleWeather(w http.ResponseWriter, r *http.Request) {
	v, ok := h.prepare(w, r)
	if !ok {
		return
	}

	location := r.URL.Query().Get("location")
	if strings.TrimSpace(location) == "" {
		h.writeError(w, http.StatusBadRequest, "Missing 'location' query parameter")
		return
	}

	v.SubmitLocationQuery(r.Context(), location)
	v.Wait()
	h.writeState(w, v.State())
}

func (h *WeatherHandler) HandleHere(w http.ResponseWriter, r *http.Request) {
	v, ok := h.prepare(w, r)
	if !ok {
		return
	}

	v.SubmitGeolocationQuery(r.Context())
	v.Wait()
	h.writeState(w, v.State())
}

func (h *WeatherHandler) writeState(w http.ResponseWriter, s view.State) {
	d := view.Render(s)
	if msg, failed := s.Status.Message(); failed {
		h.writeJSONResponse(w, http.StatusInternalServerError, model.Response{
			Data:    d,
			Error:   &msg,
			Message: "Error",
		})
		return
	}
	h.writeJSONResponse(w, http.StatusOK, model.Response{
		Data:    d,
		Message: "Success",
	})
}
