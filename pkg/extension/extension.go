// Package extension defines the plugin and processor capability
// surfaces, the name-keyed registry that indexes them, and the
// persisted per-extension configuration document.
package extension

import (
	"context"
	"strconv"
	"time"

	"github.com/servhound/servhound/pkg/record"
)

// FieldType enumerates the config value types an extension can declare.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldInt    FieldType = "int"
	FieldBool   FieldType = "bool"
	FieldSelect FieldType = "select"
)

// Field describes one configurable property of an extension.
type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Label    string    `json:"label"`
	Default  any       `json:"default,omitempty"`
	Required bool      `json:"required,omitempty"`

	// Options constrains FieldSelect values.
	Options []string `json:"options,omitempty"`
}

// Schema is an ordered list of config fields. Order matters for
// config-surface rendering by the UI collaborator.
type Schema []Field

// Defaults returns the name→default mapping used to seed a fresh
// config entry.
func (s Schema) Defaults() map[string]any {
	out := make(map[string]any, len(s))
	for _, f := range s {
		out[f.Name] = f.Default
	}
	return out
}

// Field looks up a schema field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Extension is the capability set common to plugins and processors.
// Names are unique registry keys; re-registration by the same name
// overwrites.
type Extension interface {
	Name() string
	Description() string
	ConfigSchema() Schema
}

// Plugin turns a user query into zero or more records via an external
// intelligence source. Search failures are expected and recoverable;
// callers convert them into status messages, never faults.
type Plugin interface {
	Extension

	RequiresAPIKey() bool

	// MaxResults is the provider-imposed result cap, 0 for unlimited.
	MaxResults() int

	Search(ctx context.Context, query string, config map[string]any) ([]record.Record, error)
}

// Target is the unit of work handed to a processor: one endpoint plus
// the merged run configuration.
type Target struct {
	IP     string
	Port   int
	Config map[string]any
}

// Processor performs one active probe against a single target.
type Processor interface {
	Extension

	Process(ctx context.Context, target Target) (record.ProcessingResult, error)
}

// Option helpers read a config value from a target or run config map,
// coercing UI-origin strings and JSON numbers, and fall back to the
// schema default on absence or type mismatch (config errors are never
// fatal).

// StringOption returns the string value of name.
func StringOption(cfg map[string]any, s Schema, name string) string {
	if v, ok := cfg[name]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	if f, ok := s.Field(name); ok {
		if str, ok := f.Default.(string); ok {
			return str
		}
	}
	return ""
}

// IntOption returns the integer value of name.
func IntOption(cfg map[string]any, s Schema, name string) int {
	if v, ok := cfg[name]; ok {
		if n, ok := coerceInt(v); ok {
			return n
		}
	}
	if f, ok := s.Field(name); ok {
		if n, ok := coerceInt(f.Default); ok {
			return n
		}
	}
	return 0
}

// BoolOption returns the boolean value of name.
func BoolOption(cfg map[string]any, s Schema, name string) bool {
	if v, ok := cfg[name]; ok {
		switch b := v.(type) {
		case bool:
			return b
		case string:
			if parsed, err := strconv.ParseBool(b); err == nil {
				return parsed
			}
		}
	}
	if f, ok := s.Field(name); ok {
		if b, ok := f.Default.(bool); ok {
			return b
		}
	}
	return false
}

// DurationOption interprets an integer option as seconds.
func DurationOption(cfg map[string]any, s Schema, name string) time.Duration {
	return time.Duration(IntOption(cfg, s, name)) * time.Second
}

func coerceInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		if parsed, err := strconv.Atoi(n); err == nil {
			return parsed, true
		}
	}
	return 0, false
}
