package processors

import (
	"context"
	"fmt"
	"time"

	"github.com/servhound/servhound/pkg/extension"
	"github.com/servhound/servhound/pkg/record"
)

// StutterProbe times failed connection attempts. Stealth services and
// tarpits tend to hold a dying connection open, so a failure that takes
// longer than half the timeout is worth a second look.
type StutterProbe struct {
	schema extension.Schema
}

func NewStutterProbe() *StutterProbe {
	return &StutterProbe{
		schema: extension.Schema{
			{
				Name:    "timeout",
				Type:    extension.FieldInt,
				Label:   "Connection timeout in seconds",
				Default: 5,
			},
			{
				Name:    "attempts",
				Type:    extension.FieldInt,
				Label:   "Number of attempts per host",
				Default: 3,
			},
		},
	}
}

func (s *StutterProbe) Name() string { return "Stutter Probe" }

func (s *StutterProbe) Description() string {
	return "Measures response times for failed connections to identify potential stealth services or anomalies."
}

func (s *StutterProbe) ConfigSchema() extension.Schema { return s.schema }

func (s *StutterProbe) Process(ctx context.Context, t extension.Target) (record.ProcessingResult, error) {
	if res, ok := validTarget(t); !ok {
		return res, nil
	}

	timeout := extension.DurationOption(t.Config, s.schema, "timeout")
	attempts := extension.IntOption(t.Config, s.schema, "attempts")
	if attempts < 1 {
		attempts = 1
	}

	var failures []time.Duration
	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			return record.ProcessingResult{}, ctx.Err()
		}
		start := time.Now()
		conn, err := dialTarget(ctx, t, timeout)
		if err != nil {
			failures = append(failures, time.Since(start))
			continue
		}
		conn.Close()
	}

	var average time.Duration
	if len(failures) > 0 {
		var total time.Duration
		for _, d := range failures {
			total += d
		}
		average = total / time.Duration(len(failures))
	}

	details := map[string]any{
		"ip":       t.IP,
		"port":     t.Port,
		"failures": len(failures),
		"average":  average.String(),
	}
	if average > timeout/2 {
		return record.ProcessingResult{
			Success: true,
			Message: fmt.Sprintf("%s exhibits stuttering behavior, average failure time %s", addr(t), average),
			Details: details,
			Color:   record.ColorYellow,
		}, nil
	}
	return record.ProcessingResult{
		Success: false,
		Message: fmt.Sprintf("%s failed quickly, average failure time %s", addr(t), average),
		Details: details,
		Color:   record.ColorGreen,
	}, nil
}
