package hooks

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/servhound/servhound/pkg/engine"
	"github.com/servhound/servhound/pkg/record"
	"github.com/servhound/servhound/pkg/ui"
)

func itemEvents(processor string) []engine.Event {
	rec := &record.Record{IP: "1.2.3.4", Port: 443}
	now := time.Now()
	return []engine.Event{
		{Type: engine.EventRunStarted, Processor: processor, Total: 1, Timestamp: now},
		{Type: engine.EventItemStarted, Processor: processor, Index: 0, Total: 1, Record: rec, Timestamp: now},
		{
			Type: engine.EventItemFinished, Processor: processor, Index: 0, Total: 1, Record: rec,
			Result:    &record.ProcessingResult{Success: true, Message: "open", Color: record.ColorGreen},
			Timestamp: now.Add(50 * time.Millisecond),
		},
		{Type: engine.EventRunFinished, Processor: processor, Total: 1, Succeeded: 1, Timestamp: now.Add(time.Second)},
	}
}

func TestConsoleHookOutput(t *testing.T) {
	ui.SetNoColor(true)
	defer ui.SetNoColor(false)

	var buf strings.Builder
	h := NewConsoleHookWriter(&buf)
	for _, ev := range itemEvents("Port Knocker") {
		h.Emit(ev)
	}

	out := buf.String()
	for _, want := range []string{"Port Knocker", "[1/1] 1.2.3.4:443", "ok: open", "1 succeeded, 0 failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConsoleHookCancelledSummary(t *testing.T) {
	ui.SetNoColor(true)
	defer ui.SetNoColor(false)

	var buf strings.Builder
	h := NewConsoleHookWriter(&buf)
	h.Emit(engine.Event{Type: engine.EventRunFinished, Succeeded: 2, Failed: 1, Cancelled: true})

	if !strings.Contains(buf.String(), "(cancelled)") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrometheusHookServesMetrics(t *testing.T) {
	hook, err := NewPrometheusHook(PrometheusOptions{Addr: ":19180"})
	if err != nil {
		t.Fatalf("create hook: %v", err)
	}
	defer hook.Close()

	for _, ev := range itemEvents("Port Knocker") {
		hook.Emit(ev)
	}

	time.Sleep(100 * time.Millisecond)
	resp, err := http.Get(hook.MetricsAddr())
	if err != nil {
		t.Fatalf("fetch metrics: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	text := string(body)
	if !strings.Contains(text, "servhound_items_total") {
		t.Errorf("metrics missing item counter:\n%s", text)
	}
	if !strings.Contains(text, `processor="Port Knocker",outcome="succeeded"`) &&
		!strings.Contains(text, `outcome="succeeded",processor="Port Knocker"`) {
		t.Errorf("metrics missing labeled series:\n%s", text)
	}
}

func TestPrometheusHookCloseIdempotent(t *testing.T) {
	hook, err := NewPrometheusHook(PrometheusOptions{Addr: ":19181"})
	if err != nil {
		t.Fatalf("create hook: %v", err)
	}
	if err := hook.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := hook.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	// Events after close are dropped, not panics.
	hook.Emit(engine.Event{Type: engine.EventRunStarted})
}
