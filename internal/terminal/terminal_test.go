package terminal

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fakhrymubarak/weather-forecast-widget/internal/geolocation"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/model"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type countingFetcher struct {
	mu    sync.Mutex
	calls int
}

func (f *countingFetcher) GetForecast(ctx context.Context, location string) (*model.Forecast, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return &model.Forecast{
		Current: model.WeatherSnapshot{
			LocationName: location,
			Country:      "France",
			Temperature:  model.Temperature{Celsius: 18, Fahrenheit: 64.4},
		},
		Days: []model.ForecastDay{{Date: "2024-05-01"}},
	}, nil
}

func TestWidget_SearchThenToggle(t *testing.T) {
	pr, pw := io.Pipe()
	out := &syncBuffer{}
	fetcher := &countingFetcher{}
	v := view.New(fetcher, nil, view.WithLogger(zap.NewNop().Sugar()))
	w := New(v, pr, out)

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	_, _ = io.WriteString(pw, "Paris\n")
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "18°C") }, time.Second, 5*time.Millisecond)

	_, _ = io.WriteString(pw, "/units\n")
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "64.4°F") }, time.Second, 5*time.Millisecond)

	_, _ = io.WriteString(pw, "/quit\n")
	require.NoError(t, <-done)
	_ = pw.Close()

	assert.Contains(t, out.String(), "Paris, France")
	assert.Contains(t, out.String(), "Switch to Celsius")
	assert.Equal(t, 1, fetcher.calls)
}

func TestWidget_BlankLinesDoNothing(t *testing.T) {
	out := &syncBuffer{}
	fetcher := &countingFetcher{}
	v := view.New(fetcher, nil, view.WithLogger(zap.NewNop().Sugar()))

	err := New(v, strings.NewReader("\n   \n"), out).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, fetcher.calls)
	assert.Equal(t, help, out.String())
}

func TestWidget_LocationDenied(t *testing.T) {
	out := &syncBuffer{}
	fetcher := &countingFetcher{}
	v := view.New(fetcher, geolocation.DeniedLocator{}, view.WithLogger(zap.NewNop().Sugar()))

	err := New(v, strings.NewReader("/here\n"), out).Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, out.String(), view.MsgLocationDenied)
	assert.Equal(t, 0, fetcher.calls)
}

func TestWidget_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v := view.New(&countingFetcher{}, nil, view.WithLogger(zap.NewNop().Sugar()))

	err := New(v, strings.NewReader("Paris\n"), &syncBuffer{}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
