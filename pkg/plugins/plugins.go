// Package plugins ships the builtin intelligence sources: ZoomEye,
// CriminalIP and Hunter API clients plus a no-I/O manual entry source.
// Clients share a tuned HTTP client, honor context cancellation, keep a
// per-source rate limiter, and redact API keys from error text before
// it can reach logs.
package plugins

import (
	"fmt"
	"strings"

	"github.com/servhound/servhound/pkg/extension"
)

// Builtins returns the factory list the registry loads at startup.
func Builtins() []func() (extension.Plugin, error) {
	return []func() (extension.Plugin, error){
		func() (extension.Plugin, error) { return NewZoomEye(), nil },
		func() (extension.Plugin, error) { return NewCriminalIP(), nil },
		func() (extension.Plugin, error) { return NewHunter(), nil },
		func() (extension.Plugin, error) { return NewManualEntry(), nil },
	}
}

// redactAPIKey removes the API key from error messages to prevent
// leakage in logs.
func redactAPIKey(err error, key string) error {
	if err == nil || key == "" {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), key, "[REDACTED]"))
}

func apiKeyFrom(cfg map[string]any) string {
	if cfg == nil {
		return ""
	}
	key, _ := cfg["api_key"].(string)
	return key
}

func validateQuery(query string) error {
	if len(strings.TrimSpace(query)) < 3 {
		return fmt.Errorf("query must be at least 3 characters")
	}
	return nil
}

func joinLocation(country, city string) string {
	switch {
	case country == "":
		return city
	case city == "":
		return country
	default:
		return country + ", " + city
	}
}

func apiKeySchema(label string) extension.Schema {
	return extension.Schema{
		{
			Name:     "api_key",
			Type:     extension.FieldString,
			Label:    label,
			Default:  "",
			Required: true,
		},
	}
}
