// Package processors ships the builtin active probes: port knocking,
// banner grabbing, honeypot detection, failure-timing analysis, and DNS
// resolution. Every probe validates its target, bounds its own network
// I/O with a dial timeout, and reports verdicts as ProcessingResults
// rather than errors; an error return is reserved for conditions the
// probe could not classify.
package processors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"time"

	"github.com/servhound/servhound/pkg/extension"
	"github.com/servhound/servhound/pkg/record"
)

// Builtins returns the factory list the registry loads at startup.
func Builtins() []func() (extension.Processor, error) {
	return []func() (extension.Processor, error){
		func() (extension.Processor, error) { return NewPortKnocker(), nil },
		func() (extension.Processor, error) { return NewBannerGrab(), nil },
		func() (extension.Processor, error) { return NewHoneypotProbe(), nil },
		func() (extension.Processor, error) { return NewStutterProbe(), nil },
		func() (extension.Processor, error) { return NewDNSResolver(), nil },
	}
}

func validTarget(t extension.Target) (record.ProcessingResult, bool) {
	if t.IP == "" || t.Port <= 0 || t.Port > 65535 {
		return record.Failure("target must include 'ip' and 'port'"), false
	}
	return record.ProcessingResult{}, true
}

func dialTarget(ctx context.Context, t extension.Target, timeout time.Duration) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: timeout}
	return dialer.DialContext(ctx, "tcp", net.JoinHostPort(t.IP, strconv.Itoa(t.Port)))
}

// readSome reads at most one kilobyte from conn under deadline. A read
// that times out after yielding bytes is not an error; banners from
// chatty services arrive in one segment.
func readSome(conn net.Conn, deadline time.Duration) (string, error) {
	if err := conn.SetReadDeadline(time.Now().Add(deadline)); err != nil {
		return "", err
	}
	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if n > 0 {
		return string(buf[:n]), nil
	}
	if err != nil {
		return "", err
	}
	return "", nil
}

func randomString(n int) string {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, n)
	for i := range b {
		b[i] = chars[rand.Intn(len(chars))]
	}
	return string(b)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func addr(t extension.Target) string {
	return fmt.Sprintf("%s:%d", t.IP, t.Port)
}
