package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/servhound/servhound/pkg/record"
)

func TestWriteProducesPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.pdf")

	processed := true
	failed := true
	records := []*record.Record{
		{IP: "1.2.3.4", Port: 443, Message: "it's open", Processed: &processed, Color: record.ColorGreen},
		{IP: "5.6.7.8", Port: 22, Message: "connection refused", Failed: &failed, Color: record.ColorRed},
		{IP: "9.9.9.9", Port: 80},
	}
	run := Run{
		ID:        "run-1234",
		Processor: "Port Knocker",
		Started:   time.Now().Add(-time.Minute),
		Finished:  time.Now(),
		Cancelled: true,
	}

	if err := Write(path, run, records); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Errorf("missing PDF header, got %q", data[:8])
	}
	if len(data) < 1000 {
		t.Errorf("report suspiciously small: %d bytes", len(data))
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 90); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
	long := strings.Repeat("x", 200)
	if got := truncate(long, 90); len(got) != 90 || !strings.HasSuffix(got, "...") {
		t.Errorf("truncate long = %q", got)
	}
}
