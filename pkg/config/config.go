// Package config loads workbench settings from a YAML file. A missing
// file is not an error; every field has a working default so a fresh
// checkout runs without any configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings is the top-level configuration document.
type Settings struct {
	// DataDir holds everything the workbench persists.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// NoveltyPath is the seen-services database file. Defaults to
	// <data_dir>/seen_services.db.
	NoveltyPath string `json:"novelty_path,omitempty" yaml:"novelty_path,omitempty"`

	// ResultsDir receives saved result snapshots. Defaults to
	// <data_dir>/results.
	ResultsDir string `json:"results_dir,omitempty" yaml:"results_dir,omitempty"`

	// PluginDir and ProcessorDir hold custom script extensions.
	PluginDir    string `json:"plugin_dir,omitempty" yaml:"plugin_dir,omitempty"`
	ProcessorDir string `json:"processor_dir,omitempty" yaml:"processor_dir,omitempty"`

	// PluginConfigPath and ProcessorConfigPath are the persisted
	// per-extension config documents.
	PluginConfigPath    string `json:"plugin_config_path,omitempty" yaml:"plugin_config_path,omitempty"`
	ProcessorConfigPath string `json:"processor_config_path,omitempty" yaml:"processor_config_path,omitempty"`

	// ProbeTimeout is the default probe timeout in seconds for
	// processors that do not configure their own.
	ProbeTimeout int `json:"probe_timeout,omitempty" yaml:"probe_timeout,omitempty"`

	// MetricsAddr enables the Prometheus endpoint when set, e.g.
	// ":9090". Empty disables metrics.
	MetricsAddr string `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty"`
}

// Default returns the settings used when no config file exists.
func Default() Settings {
	s := Settings{
		DataDir:      "data",
		PluginDir:    "plugins",
		ProcessorDir: "processors",
		ProbeTimeout: 5,
	}
	s.fillDerived()
	return s
}

func (s *Settings) fillDerived() {
	if s.DataDir == "" {
		s.DataDir = "data"
	}
	if s.NoveltyPath == "" {
		s.NoveltyPath = filepath.Join(s.DataDir, "seen_services.db")
	}
	if s.ResultsDir == "" {
		s.ResultsDir = filepath.Join(s.DataDir, "results")
	}
	if s.PluginDir == "" {
		s.PluginDir = "plugins"
	}
	if s.ProcessorDir == "" {
		s.ProcessorDir = "processors"
	}
	if s.PluginConfigPath == "" {
		s.PluginConfigPath = filepath.Join(s.DataDir, "plugin_config.json")
	}
	if s.ProcessorConfigPath == "" {
		s.ProcessorConfigPath = filepath.Join(s.DataDir, "processor_config.json")
	}
	if s.ProbeTimeout <= 0 {
		s.ProbeTimeout = 5
	}
}

// Load reads settings from path. A missing file yields defaults; a
// malformed file is an error.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read config: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	s.fillDerived()
	return s, nil
}
