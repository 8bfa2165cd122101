package processors

import (
	"context"
	"strings"
	"time"

	"github.com/servhound/servhound/pkg/extension"
	"github.com/servhound/servhound/pkg/record"
)

const honeypotTimeout = 5 * time.Second

// HoneypotProbe sends unconventional traffic and flags responses that
// look like capture infrastructure. A positive detection is a probe
// success with a red or yellow severity; a clean target is a probe
// "failure" with green, mirroring the verdict scale the workbench
// renders.
type HoneypotProbe struct{}

func NewHoneypotProbe() *HoneypotProbe { return &HoneypotProbe{} }

func (h *HoneypotProbe) Name() string { return "Honeypot Probe" }

func (h *HoneypotProbe) Description() string {
	return "Attempts to identify honeypots by sending unconventional traffic and analyzing responses."
}

func (h *HoneypotProbe) ConfigSchema() extension.Schema { return nil }

func (h *HoneypotProbe) Process(ctx context.Context, t extension.Target) (record.ProcessingResult, error) {
	if res, ok := validTarget(t); !ok {
		return res, nil
	}

	conn, err := dialTarget(ctx, t, honeypotTimeout)
	if err != nil {
		return record.Failure("failed to connect to %s: %v", addr(t), err), nil
	}
	defer conn.Close()

	payload := "GET /" + randomString(12) + " HTTP/1.1\r\nHost: " + t.IP + "\r\n\r\n"
	if _, err := conn.Write([]byte(payload)); err != nil {
		return record.Failure("failed to probe %s: %v", addr(t), err), nil
	}

	response, err := readSome(conn, honeypotTimeout)
	if err != nil && !isTimeout(err) {
		return record.Failure("failed to probe %s: %v", addr(t), err), nil
	}

	details := map[string]any{"ip": t.IP, "port": t.Port, "response": response}
	lower := strings.ToLower(response)
	switch {
	case strings.Contains(lower, "honeypot") || strings.Contains(lower, "capture"):
		return record.ProcessingResult{
			Success: true,
			Message: "honeypot detected on " + addr(t),
			Details: details,
			Color:   record.ColorRed,
		}, nil
	case len(response) < 20:
		return record.ProcessingResult{
			Success: true,
			Message: "potential honeypot behavior on " + addr(t) + ": response too short",
			Details: details,
			Color:   record.ColorYellow,
		}, nil
	default:
		return record.ProcessingResult{
			Success: false,
			Message: "no honeypot behavior detected on " + addr(t),
			Details: details,
			Color:   record.ColorGreen,
		}, nil
	}
}
