package plugins

import (
	"context"
	"fmt"
	"strings"

	"github.com/servhound/servhound/pkg/extension"
	"github.com/servhound/servhound/pkg/record"
)

// ManualEntry fabricates a single record from user input. The query
// field carries the host; everything else comes from config. No network
// I/O happens.
type ManualEntry struct {
	schema extension.Schema
}

func NewManualEntry() *ManualEntry {
	return &ManualEntry{
		schema: extension.Schema{
			{
				Name:     "port",
				Type:     extension.FieldInt,
				Label:    "Service port",
				Required: true,
			},
			{
				Name:    "banner",
				Type:    extension.FieldString,
				Label:   "Service banner",
				Default: "",
			},
			{
				Name:    "domain",
				Type:    extension.FieldString,
				Label:   "Host domain",
				Default: "",
			},
		},
	}
}

func (m *ManualEntry) Name() string { return "Manual Entry" }

func (m *ManualEntry) Description() string {
	return "A plugin to manually enter service information without querying a database."
}

func (m *ManualEntry) ConfigSchema() extension.Schema { return m.schema }

func (m *ManualEntry) RequiresAPIKey() bool { return false }

func (m *ManualEntry) MaxResults() int { return 0 }

func (m *ManualEntry) Search(_ context.Context, query string, config map[string]any) ([]record.Record, error) {
	host := strings.TrimSpace(query)
	if host == "" {
		return nil, fmt.Errorf("host is required for manual entry, use the query field")
	}
	port := extension.IntOption(config, m.schema, "port")
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("a valid port is required for manual entry")
	}

	return []record.Record{{
		IP:     host,
		Port:   port,
		Banner: extension.StringOption(config, m.schema, "banner"),
		Domain: extension.StringOption(config, m.schema, "domain"),
	}}, nil
}
