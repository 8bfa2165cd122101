package processors

import (
	"context"
	"fmt"

	"github.com/servhound/servhound/pkg/extension"
	"github.com/servhound/servhound/pkg/record"
)

// servicePorts maps well-known ports to the protocol used to coax a
// banner out of them. HTTP needs a request; FTP, SMTP and POP3 greet
// on connect.
var servicePorts = map[int]string{
	80:  "HTTP",
	21:  "FTP",
	25:  "SMTP",
	110: "POP3",
}

// BannerGrab retrieves service banners to identify versions and
// configurations.
type BannerGrab struct {
	schema extension.Schema
}

func NewBannerGrab() *BannerGrab {
	return &BannerGrab{
		schema: extension.Schema{
			{
				Name:    "timeout",
				Type:    extension.FieldInt,
				Label:   "Timeout for banner grabbing in seconds",
				Default: 5,
			},
			{
				Name:    "force_service",
				Type:    extension.FieldSelect,
				Label:   "Force a service type regardless of port",
				Default: "",
				Options: []string{"", "HTTP", "FTP", "SMTP", "POP3"},
			},
		},
	}
}

func (b *BannerGrab) Name() string { return "Banner Grab" }

func (b *BannerGrab) Description() string {
	return "Retrieves banners for common services (HTTP, FTP, SMTP, POP3) to identify service versions and configurations."
}

func (b *BannerGrab) ConfigSchema() extension.Schema { return b.schema }

func (b *BannerGrab) Process(ctx context.Context, t extension.Target) (record.ProcessingResult, error) {
	if res, ok := validTarget(t); !ok {
		return res, nil
	}

	timeout := extension.DurationOption(t.Config, b.schema, "timeout")
	service := extension.StringOption(t.Config, b.schema, "force_service")
	if service == "" {
		if known, ok := servicePorts[t.Port]; ok {
			service = known
		} else {
			service = "Unknown Service"
		}
	}

	conn, err := dialTarget(ctx, t, timeout)
	if err != nil {
		if isTimeout(err) {
			return record.Failure("connection to %s timed out", addr(t)), nil
		}
		return record.Failure("banner grab for %s failed: %v", addr(t), err), nil
	}
	defer conn.Close()

	if service == "HTTP" {
		if _, err := conn.Write([]byte("GET / HTTP/1.1\r\nHost: " + t.IP + "\r\n\r\n")); err != nil {
			return record.Failure("banner grab for %s failed: %v", addr(t), err), nil
		}
	}

	banner, err := readSome(conn, timeout)
	if err != nil && !isTimeout(err) {
		return record.Failure("banner grab for %s failed: %v", addr(t), err), nil
	}
	if banner == "" {
		return record.ProcessingResult{
			Success: false,
			Message: fmt.Sprintf("no banner received from %s", addr(t)),
			Color:   record.ColorYellow,
		}, nil
	}

	return record.ProcessingResult{
		Success: true,
		Message: fmt.Sprintf("banner retrieved for %s (%s)", addr(t), service),
		Details: map[string]any{"service": service, "banner": banner},
		Color:   record.ColorGreen,
	}, nil
}
