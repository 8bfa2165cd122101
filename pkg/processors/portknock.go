package processors

import (
	"context"
	"time"

	"github.com/servhound/servhound/pkg/extension"
	"github.com/servhound/servhound/pkg/record"
)

const knockTimeout = 3 * time.Second

// PortKnocker checks whether a TCP port accepts connections.
type PortKnocker struct{}

func NewPortKnocker() *PortKnocker { return &PortKnocker{} }

func (p *PortKnocker) Name() string { return "Port Knocker" }

func (p *PortKnocker) Description() string {
	return "Knocks on a port to see if it's reachable."
}

func (p *PortKnocker) ConfigSchema() extension.Schema { return nil }

func (p *PortKnocker) Process(ctx context.Context, t extension.Target) (record.ProcessingResult, error) {
	if res, ok := validTarget(t); !ok {
		return res, nil
	}

	conn, err := dialTarget(ctx, t, knockTimeout)
	if err != nil {
		return record.ProcessingResult{
			Success: false,
			Message: "knocked on " + addr(t) + ": no response (closed)",
			Details: map[string]any{"ip": t.IP, "port": t.Port, "error": err.Error()},
			Color:   record.ColorRed,
		}, nil
	}
	conn.Close()

	return record.ProcessingResult{
		Success: true,
		Message: "knocked on " + addr(t) + ": it's open",
		Details: map[string]any{"ip": t.IP, "port": t.Port},
		Color:   record.ColorGreen,
	}, nil
}
