package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/servhound/servhound/pkg/record"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	s.now = fixedClock

	processed := true
	failed := false
	records := []*record.Record{
		{IP: "1.2.3.4", Port: 443, Service: "https", IsUnseen: true},
		{IP: "5.6.7.8", Port: 22, Message: "ok", Processed: &processed, Failed: &failed, Color: record.ColorGreen},
	}

	path, err := s.SaveRecords(records, "scan")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if base := filepath.Base(path); base != "scan_20250314_150926.json" {
		t.Errorf("filename = %q", base)
	}

	loaded, err := s.LoadRecords(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded = %d", len(loaded))
	}

	// A record that was never processed round-trips with nil status,
	// not false.
	if loaded[0].Processed != nil || loaded[0].Failed != nil {
		t.Errorf("unprocessed record gained status: %+v", loaded[0])
	}
	if !loaded[0].IsUnseen {
		t.Error("novelty flag lost")
	}
	if loaded[1].Processed == nil || !*loaded[1].Processed {
		t.Errorf("processed record lost status: %+v", loaded[1])
	}
	if loaded[1].Failed == nil || *loaded[1].Failed {
		t.Errorf("failed flag mangled: %+v", loaded[1])
	}
}

func TestSaveEmptySnapshot(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.SaveRecords(nil, "scan"); err != ErrNoRecords {
		t.Fatalf("err = %v, want ErrNoRecords", err)
	}
}

func TestLoadToleratesUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "old_20240101_000000.json")
	payload := `[{"ip":"9.9.9.9","port":53,"legacy_field":"ignored","protocol":"udp"}]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(dir)
	loaded, err := s.LoadRecords(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].IP != "9.9.9.9" || loaded[0].Port != 53 {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestListSkipsNonSnapshots(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	s.now = fixedClock

	if _, err := s.SaveRecords([]*record.Record{{IP: "1.1.1.1", Port: 80}}, "scan"); err != nil {
		t.Fatalf("save: %v", err)
	}
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)

	paths, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(paths) != 1 || !strings.HasSuffix(paths[0], ".json") {
		t.Errorf("paths = %v", paths)
	}
}

func TestListMissingDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "never-created"))
	paths, err := s.List()
	if err != nil || paths != nil {
		t.Errorf("missing dir: paths=%v err=%v", paths, err)
	}
}
