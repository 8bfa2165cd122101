package engine

import (
	"time"

	"github.com/servhound/servhound/pkg/record"
)

// EventType identifies a run lifecycle event.
type EventType string

const (
	// EventRunStarted fires once when a run begins.
	EventRunStarted EventType = "run_started"
	// EventItemStarted fires when an item enters RUNNING.
	EventItemStarted EventType = "item_started"
	// EventItemFinished fires when an item reaches a terminal status.
	EventItemFinished EventType = "item_finished"
	// EventRunRejected fires when a run is refused before any state change.
	EventRunRejected EventType = "run_rejected"
	// EventRunFinished fires once per accepted run, after completion or
	// cancellation.
	EventRunFinished EventType = "run_finished"
)

// Event is one progress notification from a processing run. Events for
// item i are always emitted before item i+1 starts.
type Event struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	Processor string    `json:"processor"`
	Timestamp time.Time `json:"timestamp"`

	// Index/Total position the item within the run snapshot.
	Index int `json:"index,omitempty"`
	Total int `json:"total"`

	// Record is the mutated queue item for item events.
	Record *record.Record `json:"record,omitempty"`

	// Result is set on EventItemFinished.
	Result *record.ProcessingResult `json:"result,omitempty"`

	// Message carries rejection or summary text.
	Message string `json:"message,omitempty"`

	// Cancelled marks a run that stopped before its snapshot ran out.
	Cancelled bool `json:"cancelled,omitempty"`

	// Succeeded/Failed summarize terminal counts on EventRunFinished.
	Succeeded int `json:"succeeded,omitempty"`
	Failed    int `json:"failed,omitempty"`
}

// Hook consumes run events. Hooks are invoked synchronously in
// registration order; a panicking hook is isolated so it cannot break
// the run.
type Hook interface {
	Emit(Event)
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(Event)

// Emit implements Hook.
func (f HookFunc) Emit(ev Event) { f(ev) }
