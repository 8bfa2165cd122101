package processors

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/servhound/servhound/pkg/extension"
	"github.com/servhound/servhound/pkg/record"
)

const resolveTimeout = 5 * time.Second

// DNSResolver verifies that a record's host field resolves.
type DNSResolver struct {
	resolver *net.Resolver
}

func NewDNSResolver() *DNSResolver {
	return &DNSResolver{resolver: net.DefaultResolver}
}

func (d *DNSResolver) Name() string { return "DNS Resolver" }

func (d *DNSResolver) Description() string {
	return "Resolves a hostname to its IP address to verify DNS resolution."
}

func (d *DNSResolver) ConfigSchema() extension.Schema { return nil }

func (d *DNSResolver) Process(ctx context.Context, t extension.Target) (record.ProcessingResult, error) {
	if res, ok := validTarget(t); !ok {
		return res, nil
	}

	ctx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()

	addrs, err := d.resolver.LookupHost(ctx, t.IP)
	if err != nil {
		return record.Failure("failed to resolve %s: %v", t.IP, err), nil
	}
	return record.ProcessingResult{
		Success: true,
		Message: "resolved " + t.IP + " to " + strings.Join(addrs, ", "),
		Details: map[string]any{"host": t.IP, "addresses": addrs},
		Color:   record.ColorGreen,
	}, nil
}
