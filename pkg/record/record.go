// Package record defines the service-endpoint record shared by the
// result queues, plugins and processors.
package record

import (
	"errors"
	"fmt"
)

// Color is the status color attached to a record after processing.
type Color string

const (
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
)

// Valid reports whether c is one of the known status colors.
func (c Color) Valid() bool {
	switch c {
	case ColorRed, ColorYellow, ColorGreen:
		return true
	}
	return false
}

// Record is a discovered service endpoint. IP and Port are required;
// every other descriptive field is optional and round-trips as absent
// when empty. The processing status bundle (Message, Processed, Failed,
// Processing, Color, Details) is mutated in place by the engine.
type Record struct {
	IP       string `json:"ip"`
	Port     int    `json:"port"`
	Service  string `json:"service,omitempty"`
	Location string `json:"location,omitempty"`
	ASN      string `json:"asn,omitempty"`
	Banner   string `json:"banner,omitempty"`
	Domain   string `json:"domain,omitempty"`
	Date     string `json:"date,omitempty"`
	Extra    string `json:"extra,omitempty"`

	// IsUnseen is computed against the novelty store at ingestion time
	// and never changes afterwards.
	IsUnseen bool `json:"is_unseen"`

	// IsSelected is UI-origin selection state.
	IsSelected bool `json:"is_selected"`

	// Processing status. Processed and Failed are pointers so that
	// "never processed" stays distinct from "processed with result
	// false" across save/load round-trips.
	Message    string         `json:"message,omitempty"`
	Processed  *bool          `json:"processed,omitempty"`
	Failed     *bool          `json:"failed,omitempty"`
	Processing bool           `json:"processing,omitempty"`
	Color      Color          `json:"color,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// ErrMissingTarget is returned when a record lacks the fields a probe
// needs before any I/O happens.
var ErrMissingTarget = errors.New("record: target must include ip and port")

// Key returns the (ip, port) identity used for deduplication and
// novelty tracking.
func (r *Record) Key() string {
	return fmt.Sprintf("%s:%d", r.IP, r.Port)
}

// Validate checks the required target fields.
func (r *Record) Validate() error {
	if r.IP == "" || r.Port == 0 {
		return ErrMissingTarget
	}
	return nil
}

// WasProcessed reports whether the record carries a successful terminal
// status. An absent Processed field counts as false.
func (r *Record) WasProcessed() bool {
	return r.Processed != nil && *r.Processed
}

// HasFailed reports whether the record carries a failed terminal status.
func (r *Record) HasFailed() bool {
	return r.Failed != nil && *r.Failed
}

// Clone returns a deep copy. Queues clone on ingestion so that no two
// queues ever share a record.
func (r *Record) Clone() *Record {
	c := *r
	if r.Processed != nil {
		v := *r.Processed
		c.Processed = &v
	}
	if r.Failed != nil {
		v := *r.Failed
		c.Failed = &v
	}
	if r.Details != nil {
		c.Details = make(map[string]any, len(r.Details))
		for k, v := range r.Details {
			c.Details[k] = v
		}
	}
	return &c
}

// SetResult copies a processing result onto the record's status bundle
// and clears the in-flight flag.
func (r *Record) SetResult(res ProcessingResult) {
	success := res.Success
	failed := !res.Success
	r.Processed = &success
	r.Failed = &failed
	r.Processing = false
	r.Message = res.Message
	r.Details = res.Details
	if res.Color.Valid() {
		r.Color = res.Color
	} else {
		r.Color = ColorRed
	}
}

// ProcessingResult is the verdict of a single probe against a single
// target.
type ProcessingResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Color   Color          `json:"color"`
}

// Failure builds a red failed result with a formatted message.
func Failure(format string, args ...any) ProcessingResult {
	return ProcessingResult{
		Success: false,
		Message: fmt.Sprintf(format, args...),
		Color:   ColorRed,
	}
}
