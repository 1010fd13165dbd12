// Package terminal is the interactive front-end: one prompt line per action,
// and a redraw of the widget after every state change.
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fakhrymubarak/weather-forecast-widget/internal/view"
)

const help = `Type a city (or "lat,lon") and press Enter to search.
  /here    use my location
  /units   switch between Celsius and Fahrenheit
  /quit    exit
`

// Widget binds a view to a line-oriented input and an output stream.
type Widget struct {
	view *view.View
	in   io.Reader

	mu  sync.Mutex
	out io.Writer
}

func New(v *view.View, in io.Reader, out io.Writer) *Widget {
	return &Widget{view: v, in: in, out: out}
}

// Run reads commands until /quit, end of input or ctx is done, then waits for
// outstanding fetches so their result is drawn.
func (w *Widget) Run(ctx context.Context) error {
	unsubscribe := w.view.Subscribe(w.draw)
	defer unsubscribe()

	w.print(help)
	scanner := bufio.NewScanner(w.in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case "/quit", "/exit":
			w.view.Wait()
			return nil
		case "/here", "/location":
			w.view.SubmitGeolocationQuery(ctx)
		case "/units":
			w.view.ToggleUnits()
		case "/help":
			w.print(help)
		default:
			w.view.SubmitLocationQuery(ctx, line)
		}
	}
	w.view.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

func (w *Widget) draw(s view.State) {
	d := view.Render(s)
	out := d.String()
	if out == "" {
		out = "(no weather loaded)\n"
	}
	w.print(fmt.Sprintf("\n%s[/units] %s\n", out, d.ToggleLabel))
}

func (w *Widget) print(s string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = io.WriteString(w.out, s)
}
