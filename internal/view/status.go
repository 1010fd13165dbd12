package view

import "github.com/fakhrymubarak/weather-forecast-widget/internal/model"

// StatusKind names the active variant of a Status.
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusLoading
	StatusSucceeded
	StatusFailed
)

func (k StatusKind) String() string {
	switch k {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Status is the tagged state of the current weather request. Only the
// payload of the active variant is reachable.
type Status struct {
	kind     StatusKind
	forecast *model.Forecast
	message  string
}

func Idle() Status    { return Status{kind: StatusIdle} }
func Loading() Status { return Status{kind: StatusLoading} }

func Succeeded(forecast *model.Forecast) Status {
	return Status{kind: StatusSucceeded, forecast: forecast}
}

func Failed(message string) Status {
	return Status{kind: StatusFailed, message: message}
}

func (s Status) Kind() StatusKind { return s.kind }

// Forecast returns the payload of a Succeeded status.
func (s Status) Forecast() (*model.Forecast, bool) {
	if s.kind != StatusSucceeded {
		return nil, false
	}
	return s.forecast, true
}

// Message returns the user-facing message of a Failed status.
func (s Status) Message() (string, bool) {
	if s.kind != StatusFailed {
		return "", false
	}
	return s.message, true
}
