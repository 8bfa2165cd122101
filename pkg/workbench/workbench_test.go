package workbench

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/servhound/servhound/pkg/config"
	"github.com/servhound/servhound/pkg/extension"
	"github.com/servhound/servhound/pkg/record"
)

func testSettings(t *testing.T) config.Settings {
	t.Helper()
	dir := t.TempDir()
	return config.Settings{
		DataDir:             dir,
		NoveltyPath:         filepath.Join(dir, "seen.db"),
		ResultsDir:          filepath.Join(dir, "results"),
		PluginDir:           filepath.Join(dir, "plugins"),
		ProcessorDir:        filepath.Join(dir, "processors"),
		PluginConfigPath:    filepath.Join(dir, "plugin_config.json"),
		ProcessorConfigPath: filepath.Join(dir, "processor_config.json"),
		ProbeTimeout:        5,
	}
}

func newTestWorkbench(t *testing.T) *Workbench {
	t.Helper()
	w, err := New(testSettings(t))
	if err != nil {
		t.Fatalf("new workbench: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

// stubPlugin feeds canned records through the search path.
type stubPlugin struct {
	name    string
	max     int
	records []record.Record
	err     error
}

func (s *stubPlugin) Name() string                   { return s.name }
func (s *stubPlugin) Description() string            { return "stub" }
func (s *stubPlugin) ConfigSchema() extension.Schema { return nil }
func (s *stubPlugin) RequiresAPIKey() bool           { return false }
func (s *stubPlugin) MaxResults() int                { return s.max }
func (s *stubPlugin) Search(context.Context, string, map[string]any) ([]record.Record, error) {
	return s.records, s.err
}

func TestNewLoadsBuiltins(t *testing.T) {
	w := newTestWorkbench(t)

	if w.Plugins.Len() != 4 {
		t.Errorf("plugins = %d, want 4", w.Plugins.Len())
	}
	if w.Processors.Len() != 5 {
		t.Errorf("processors = %d, want 5", w.Processors.Len())
	}

	// Builtin registration seeds the persisted config documents.
	if !w.PluginConfig.Has("ZoomEye") {
		t.Error("plugin config not seeded")
	}
	if !w.ProcessorConfig.Has("Port Knocker") {
		t.Error("processor config not seeded")
	}
}

func TestSearchAppendsToResultsQueue(t *testing.T) {
	w := newTestWorkbench(t)
	w.Plugins.Register(&stubPlugin{
		name: "stub",
		max:  2,
		records: []record.Record{
			{IP: "1.1.1.1", Port: 80},
			{IP: "2.2.2.2", Port: 443},
			{IP: "3.3.3.3", Port: 22},
		},
	})

	out, err := w.Search(context.Background(), "stub", "query goes here", nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	outcome := <-out
	if outcome.Err != nil {
		t.Fatalf("outcome: %v", outcome.Err)
	}
	if outcome.Added != 2 {
		t.Errorf("added = %d, want provider cap applied", outcome.Added)
	}
	if w.Queues.Results().Len() != 2 {
		t.Errorf("results queue = %d", w.Queues.Results().Len())
	}
	// First ingest of each pair is unseen.
	if !w.Queues.Results().ByIndex(0).IsUnseen {
		t.Error("first ingest should be unseen")
	}
}

func TestSearchFailureIsAnOutcomeNotAPanic(t *testing.T) {
	w := newTestWorkbench(t)
	w.Plugins.Register(&stubPlugin{name: "broken", err: errors.New("api down")})

	out, err := w.Search(context.Background(), "broken", "query goes here", nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	outcome := <-out
	if outcome.Err == nil {
		t.Fatal("expected outcome error")
	}
	if w.Queues.Results().Len() != 0 {
		t.Error("failed search must not touch the queue")
	}
}

func TestSearchUnknownAndDisabled(t *testing.T) {
	w := newTestWorkbench(t)

	if _, err := w.Search(context.Background(), "nope", "query", nil); err == nil {
		t.Error("unknown plugin must error")
	}

	w.Plugins.Register(&stubPlugin{name: "off"})
	if err := w.PluginConfig.SetEnabled("off", false); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Search(context.Background(), "off", "query", nil); err == nil {
		t.Error("disabled plugin must error")
	}
}

func TestMergedConfigInjectsStoredAPIKey(t *testing.T) {
	w := newTestWorkbench(t)
	w.Plugins.Register(&stubPlugin{name: "keyed"})
	if err := w.PluginConfig.SetAPIKey("keyed", "stored-key"); err != nil {
		t.Fatal(err)
	}

	cfg := w.mergedConfig(w.PluginConfig, "keyed", nil)
	if cfg["api_key"] != "stored-key" {
		t.Errorf("api_key = %v", cfg["api_key"])
	}

	cfg = w.mergedConfig(w.PluginConfig, "keyed", map[string]any{"api_key": "override"})
	if cfg["api_key"] != "override" {
		t.Errorf("override lost: %v", cfg["api_key"])
	}
}

// stubProcessor marks every target green.
type stubProcessor struct{}

func (stubProcessor) Name() string                   { return "stub-proc" }
func (stubProcessor) Description() string            { return "stub" }
func (stubProcessor) ConfigSchema() extension.Schema { return nil }
func (stubProcessor) Process(context.Context, extension.Target) (record.ProcessingResult, error) {
	return record.ProcessingResult{Success: true, Message: "ok", Color: record.ColorGreen}, nil
}

func TestProcessRunsEngineOverProcessingQueue(t *testing.T) {
	w := newTestWorkbench(t)
	w.Processors.Register(stubProcessor{})

	w.Queues.Results().Add(&record.Record{IP: "1.1.1.1", Port: 80})
	w.Queues.Results().SelectAll()
	if proc, _ := w.Queues.MoveToProcessing(); len(proc) != 1 {
		t.Fatalf("moved = %d", len(proc))
	}

	if err := w.Process(context.Background(), "stub-proc", nil); err != nil {
		t.Fatalf("process: %v", err)
	}
	w.Engine.Wait()

	rec := w.Queues.Processing().ByIndex(0)
	if rec == nil || !rec.WasProcessed() {
		t.Errorf("record not processed: %+v", rec)
	}
}

func TestProcessRejectsEmptyQueue(t *testing.T) {
	w := newTestWorkbench(t)
	w.Processors.Register(stubProcessor{})

	err := w.Process(context.Background(), "stub-proc", nil)
	if err == nil {
		t.Fatal("empty processing queue must reject the run")
	}
	// The rejection settles synchronously; a later run still works.
	if w.Engine.Running() {
		t.Error("engine left running after rejection")
	}
}
