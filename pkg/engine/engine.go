// Package engine executes a chosen processor against the processing
// queue's current snapshot, one probe at a time, with cooperative
// cancellation and per-item status events.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/servhound/servhound/pkg/extension"
	"github.com/servhound/servhound/pkg/queue"
	"github.com/servhound/servhound/pkg/record"
)

var (
	// ErrRunInProgress is returned when Start is called while a run is
	// already in flight.
	ErrRunInProgress = errors.New("engine: a run is already in progress")
	// ErrNoProcessor is returned when Start is called without a processor.
	ErrNoProcessor = errors.New("engine: no processor selected")
	// ErrNothingToProcess is returned when the processing queue snapshot
	// is empty at run start.
	ErrNothingToProcess = errors.New("engine: no items to process")
)

// Engine drives processing runs. One engine serves the process
// lifetime; at most one run is in flight at a time.
type Engine struct {
	logger *slog.Logger

	hookMu sync.RWMutex
	hooks  []Hook

	running atomic.Bool
	stop    atomic.Bool
	wg      sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an idle engine.
func New(opts ...Option) *Engine {
	e := &Engine{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddHook registers an event consumer. Hooks added mid-run see only
// later events.
func (e *Engine) AddHook(h Hook) {
	e.hookMu.Lock()
	e.hooks = append(e.hooks, h)
	e.hookMu.Unlock()
}

// Running reports whether a run is in flight.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Stop requests cooperative cancellation. The in-flight probe finishes
// (or times out on its own); items not yet started stay untouched.
func (e *Engine) Stop() {
	if e.running.Load() {
		e.stop.Store(true)
		e.logger.Info("processing stop requested")
	}
}

// Wait blocks until the current run, if any, has finished. Intended for
// CLI callers and tests.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Start snapshots the processing queue and launches a run of proc over
// the snapshot on a dedicated worker goroutine. Items added to the
// queue after the snapshot are not part of this run. Returns
// immediately; progress is observed through queue notifications and
// hook events.
//
// Within a run, probes execute strictly sequentially. That bound is
// deliberate: it keeps status notifications ordered (item i finishes
// before item i+1 starts) and avoids contention on shared targets. Do
// not parallelize without revisiting the notification contract.
func (e *Engine) Start(ctx context.Context, proc extension.Processor, q *queue.Queue, config map[string]any) error {
	if proc == nil {
		e.emit(Event{Type: EventRunRejected, Message: "no processor selected", Timestamp: time.Now()})
		return ErrNoProcessor
	}
	items := q.Records()
	if len(items) == 0 {
		e.emit(Event{Type: EventRunRejected, Processor: proc.Name(), Message: "no items to process", Timestamp: time.Now()})
		return ErrNothingToProcess
	}
	if !e.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}
	e.stop.Store(false)

	runID := uuid.NewString()
	e.logger.Info("processing started",
		slog.String("run_id", runID),
		slog.String("processor", proc.Name()),
		slog.Int("items", len(items)))

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run(ctx, runID, proc, q, items, config)
	}()
	return nil
}

func (e *Engine) run(ctx context.Context, runID string, proc extension.Processor, q *queue.Queue, items []*record.Record, config map[string]any) {
	e.emit(Event{
		Type:      EventRunStarted,
		RunID:     runID,
		Processor: proc.Name(),
		Total:     len(items),
		Timestamp: time.Now(),
	})

	succeeded, failed := 0, 0
	cancelled := false

	for i, rec := range items {
		if e.stop.Load() || ctx.Err() != nil {
			cancelled = true
			e.logger.Info("processing interrupted",
				slog.String("run_id", runID),
				slog.Int("completed", i))
			break
		}

		rec.Processing = true
		q.Sync()
		e.emit(Event{
			Type:      EventItemStarted,
			RunID:     runID,
			Processor: proc.Name(),
			Index:     i,
			Total:     len(items),
			Record:    rec,
			Timestamp: time.Now(),
		})

		res := e.invoke(ctx, proc, rec, config)
		rec.SetResult(res)
		q.Sync()

		if res.Success {
			succeeded++
		} else {
			failed++
		}
		e.logger.Info("item processed",
			slog.String("run_id", runID),
			slog.String("target", rec.Key()),
			slog.Bool("success", res.Success),
			slog.String("message", res.Message))

		e.emit(Event{
			Type:      EventItemFinished,
			RunID:     runID,
			Processor: proc.Name(),
			Index:     i,
			Total:     len(items),
			Record:    rec,
			Result:    &res,
			Timestamp: time.Now(),
		})
	}

	e.running.Store(false)
	e.stop.Store(false)
	e.emit(Event{
		Type:      EventRunFinished,
		RunID:     runID,
		Processor: proc.Name(),
		Total:     len(items),
		Succeeded: succeeded,
		Failed:    failed,
		Cancelled: cancelled,
		Timestamp: time.Now(),
	})
}

// invoke runs one probe. Validation failures short-circuit before any
// I/O; errors and panics become failed results so the run continues.
func (e *Engine) invoke(ctx context.Context, proc extension.Processor, rec *record.Record, config map[string]any) (res record.ProcessingResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("processor panicked",
				slog.String("processor", proc.Name()),
				slog.String("target", rec.Key()))
			res = record.Failure("processor %s panicked: %v", proc.Name(), r)
		}
	}()

	if err := rec.Validate(); err != nil {
		return record.Failure("invalid target: %v", err)
	}

	target := extension.Target{IP: rec.IP, Port: rec.Port, Config: config}
	result, err := proc.Process(ctx, target)
	if err != nil {
		return record.Failure("%v", err)
	}
	return result
}

// emit delivers ev to every hook, isolating hook panics.
func (e *Engine) emit(ev Event) {
	e.hookMu.RLock()
	hooks := append([]Hook(nil), e.hooks...)
	e.hookMu.RUnlock()

	for _, h := range hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("event hook panicked", slog.String("event", string(ev.Type)))
				}
			}()
			h.Emit(ev)
		}()
	}
}

// Describe returns a short human summary for a terminal event.
func Describe(ev Event) string {
	switch ev.Type {
	case EventRunFinished:
		if ev.Cancelled {
			return fmt.Sprintf("run cancelled: %d succeeded, %d failed, %d untouched",
				ev.Succeeded, ev.Failed, ev.Total-ev.Succeeded-ev.Failed)
		}
		return fmt.Sprintf("run complete: %d succeeded, %d failed", ev.Succeeded, ev.Failed)
	case EventRunRejected:
		return "run rejected: " + ev.Message
	}
	return ""
}
