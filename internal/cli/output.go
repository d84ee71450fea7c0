package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"ezstream/internal/core/domain"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type painter struct {
	ok   *color.Color
	bad  *color.Color
	info *color.Color
}

// newPainter colors output only when w is a terminal.
func newPainter(w io.Writer, disabled bool) painter {
	p := painter{
		ok:   color.New(color.FgGreen, color.Bold),
		bad:  color.New(color.FgRed, color.Bold),
		info: color.New(color.FgCyan),
	}

	enabled := !disabled && isTerminal(w)
	for _, c := range []*color.Color{p.ok, p.bad, p.info} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p painter) success(s string) string { return p.ok.Sprint(s) }
func (p painter) failure(s string) string { return p.bad.Sprint(s) }
func (p painter) url(s string) string     { return p.info.Sprint(s) }

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// statusPrinter shows progress events on stderr, the way the form's status
// line did.
type statusPrinter struct {
	out   io.Writer
	paint painter
}

func (s *statusPrinter) Publish(_ context.Context, event domain.Event) {
	msg := event.Message
	switch {
	case event.Failed():
		msg = s.paint.failure(msg)
	case event.Type == domain.EventAuthSucceeded || event.Type == domain.EventStreamSucceeded:
		msg = s.paint.success(msg)
	}
	fmt.Fprintf(s.out, "[%s] %s\n", event.Type, msg)
}
