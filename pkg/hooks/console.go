// Package hooks provides engine hook implementations: a console hook
// that prints per-item status lines and a Prometheus hook that exposes
// run metrics for scraping.
package hooks

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/servhound/servhound/pkg/engine"
	"github.com/servhound/servhound/pkg/record"
	"github.com/servhound/servhound/pkg/ui"
)

// Compile-time interface check.
var _ engine.Hook = (*ConsoleHook)(nil)

// ConsoleHook prints run lifecycle events as styled status lines.
type ConsoleHook struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleHook writes to stdout.
func NewConsoleHook() *ConsoleHook {
	return &ConsoleHook{out: os.Stdout}
}

// NewConsoleHookWriter writes to w.
func NewConsoleHookWriter(w io.Writer) *ConsoleHook {
	return &ConsoleHook{out: w}
}

func (h *ConsoleHook) Emit(ev engine.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch ev.Type {
	case engine.EventRunStarted:
		fmt.Fprintf(h.out, "%s %s over %d items\n",
			ui.Render(ui.TitleStyle, " RUN "), ev.Processor, ev.Total)
	case engine.EventItemStarted:
		fmt.Fprintf(h.out, "  [%d/%d] %s ...\n", ev.Index+1, ev.Total, targetOf(ev))
	case engine.EventItemFinished:
		if ev.Result == nil {
			return
		}
		style := ui.StatusStyle(ev.Result.Color)
		verdict := "ok"
		if !ev.Result.Success {
			verdict = "failed"
		}
		fmt.Fprintf(h.out, "  [%d/%d] %s %s: %s\n",
			ev.Index+1, ev.Total, targetOf(ev), ui.Render(style, verdict), ev.Result.Message)
	case engine.EventRunRejected:
		fmt.Fprintf(h.out, "%s %s\n", ui.Render(ui.YellowStyle, "rejected:"), ev.Message)
	case engine.EventRunFinished:
		status := fmt.Sprintf("%d succeeded, %d failed", ev.Succeeded, ev.Failed)
		if ev.Cancelled {
			status += " (cancelled)"
		}
		fmt.Fprintf(h.out, "%s %s\n", ui.Render(ui.TitleStyle, " DONE "), status)
	}
}

func targetOf(ev engine.Event) string {
	if ev.Record == nil {
		return "?"
	}
	return ev.Record.Key()
}

// Severity returns the style for a finished record, exported so the
// CLI renders queue listings with the same scale.
func Severity(rec *record.Record) string {
	return ui.Render(ui.StatusStyle(rec.Color), string(rec.Color))
}
