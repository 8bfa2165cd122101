package extension

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/servhound/servhound/pkg/jsonutil"
)

// Entry is the persisted configuration for one extension.
type Entry struct {
	Enabled bool           `json:"enabled"`
	APIKey  string         `json:"api_key,omitempty"`
	Config  map[string]any `json:"config"`
}

// ConfigStore is the persisted extensionName → Entry document. It is
// read once at startup and written back on every mutation. A missing
// file is an empty store, not an error.
type ConfigStore struct {
	mu      sync.Mutex
	path    string
	entries map[string]Entry
}

// OpenConfigStore loads the document at path, creating an empty store
// when the file does not exist yet.
func OpenConfigStore(path string) (*ConfigStore, error) {
	cs := &ConfigStore{
		path:    path,
		entries: make(map[string]Entry),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read extension config: %w", err)
	}
	if err := jsonutil.Unmarshal(data, &cs.entries); err != nil {
		return nil, fmt.Errorf("parse extension config %s: %w", path, err)
	}
	return cs, nil
}

// save writes the document. Caller holds the lock.
func (cs *ConfigStore) save() error {
	data, err := jsonutil.MarshalIndent(cs.entries, "    ")
	if err != nil {
		return fmt.Errorf("encode extension config: %w", err)
	}
	if dir := filepath.Dir(cs.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(cs.path, data, 0o644); err != nil {
		return fmt.Errorf("write extension config: %w", err)
	}
	return nil
}

// Has reports whether name already has a config entry.
func (cs *ConfigStore) Has(name string) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	_, ok := cs.entries[name]
	return ok
}

// Seed creates and persists a fresh enabled entry from schema defaults.
// An existing entry is left untouched.
func (cs *ConfigStore) Seed(name string, schema Schema) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if _, ok := cs.entries[name]; ok {
		return nil
	}
	cs.entries[name] = Entry{
		Enabled: true,
		Config:  schema.Defaults(),
	}
	return cs.save()
}

// Enabled reports whether name is enabled; unconfigured names default
// to true.
func (cs *ConfigStore) Enabled(name string) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	entry, ok := cs.entries[name]
	if !ok {
		return true
	}
	return entry.Enabled
}

// SetEnabled flips the enabled flag and persists.
func (cs *ConfigStore) SetEnabled(name string, enabled bool) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	entry := cs.entries[name]
	entry.Enabled = enabled
	if entry.Config == nil {
		entry.Config = make(map[string]any)
	}
	cs.entries[name] = entry
	return cs.save()
}

// APIKey returns the opaque credential for name, empty if unset.
func (cs *ConfigStore) APIKey(name string) string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.entries[name].APIKey
}

// SetAPIKey stores the opaque credential and persists.
func (cs *ConfigStore) SetAPIKey(name, key string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	entry := cs.entries[name]
	entry.APIKey = key
	if entry.Config == nil {
		entry.Config = make(map[string]any)
	}
	cs.entries[name] = entry
	return cs.save()
}

// Config returns a copy of the stored config values for name.
func (cs *ConfigStore) Config(name string) map[string]any {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	src := cs.entries[name].Config
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// SetConfig replaces the config values for name and persists.
func (cs *ConfigStore) SetConfig(name string, config map[string]any) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	entry := cs.entries[name]
	entry.Config = config
	cs.entries[name] = entry
	return cs.save()
}

// Names returns every configured extension name.
func (cs *ConfigStore) Names() []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	out := make([]string, 0, len(cs.entries))
	for name := range cs.entries {
		out = append(out, name)
	}
	return out
}
