package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.DataDir != "data" {
		t.Errorf("data dir = %q", s.DataDir)
	}
	if s.NoveltyPath != filepath.Join("data", "seen_services.db") {
		t.Errorf("novelty path = %q", s.NoveltyPath)
	}
	if s.ProbeTimeout != 5 {
		t.Errorf("probe timeout = %d", s.ProbeTimeout)
	}
}

func TestLoadFillsDerivedPaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := "data_dir: /var/lib/servhound\nprobe_timeout: 10\nmetrics_addr: \":9090\"\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.DataDir != "/var/lib/servhound" {
		t.Errorf("data dir = %q", s.DataDir)
	}
	if s.NoveltyPath != "/var/lib/servhound/seen_services.db" {
		t.Errorf("novelty path = %q", s.NoveltyPath)
	}
	if s.ResultsDir != "/var/lib/servhound/results" {
		t.Errorf("results dir = %q", s.ResultsDir)
	}
	if s.ProbeTimeout != 10 || s.MetricsAddr != ":9090" {
		t.Errorf("settings = %+v", s)
	}
}

func TestLoadExplicitPathsWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := "data_dir: data\nnovelty_path: /tmp/custom.db\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.NoveltyPath != "/tmp/custom.db" {
		t.Errorf("novelty path = %q", s.NoveltyPath)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("data_dir: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed config must error")
	}
}
