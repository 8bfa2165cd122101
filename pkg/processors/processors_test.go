package processors

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/servhound/servhound/pkg/extension"
	"github.com/servhound/servhound/pkg/record"
)

// serve starts a loopback TCP listener whose accepted connections are
// handed to fn, and returns a target pointing at it.
func serve(t *testing.T, fn func(net.Conn)) extension.Target {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				fn(c)
			}(conn)
		}
	}()
	port := ln.Addr().(*net.TCPAddr).Port
	return extension.Target{IP: "127.0.0.1", Port: port}
}

// closedTarget returns a loopback port that refuses connections.
func closedTarget(t *testing.T) extension.Target {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return extension.Target{IP: "127.0.0.1", Port: port}
}

func TestPortKnockerOpen(t *testing.T) {
	target := serve(t, func(net.Conn) {})

	res, err := NewPortKnocker().Process(context.Background(), target)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !res.Success || res.Color != record.ColorGreen {
		t.Errorf("open port: got %+v", res)
	}
}

func TestPortKnockerClosed(t *testing.T) {
	res, err := NewPortKnocker().Process(context.Background(), closedTarget(t))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Success || res.Color != record.ColorRed {
		t.Errorf("closed port: got %+v", res)
	}
	if !strings.Contains(res.Message, "closed") {
		t.Errorf("message = %q", res.Message)
	}
}

func TestPortKnockerRejectsInvalidTarget(t *testing.T) {
	res, err := NewPortKnocker().Process(context.Background(), extension.Target{IP: "", Port: 0})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Success || res.Color != record.ColorRed {
		t.Errorf("invalid target: got %+v", res)
	}
}

func TestBannerGrabPassiveGreeting(t *testing.T) {
	target := serve(t, func(c net.Conn) {
		c.Write([]byte("220 mail.example.com ESMTP ready\r\n"))
		time.Sleep(50 * time.Millisecond)
	})
	target.Config = map[string]any{"timeout": 2}

	res, err := NewBannerGrab().Process(context.Background(), target)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !res.Success || res.Color != record.ColorGreen {
		t.Fatalf("greeting: got %+v", res)
	}
	banner, _ := res.Details["banner"].(string)
	if !strings.Contains(banner, "ESMTP") {
		t.Errorf("banner = %q", banner)
	}
}

func TestBannerGrabHTTPSendsRequest(t *testing.T) {
	target := serve(t, func(c net.Conn) {
		buf := make([]byte, 512)
		c.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, _ := c.Read(buf)
		if !strings.HasPrefix(string(buf[:n]), "GET / HTTP/1.1") {
			return
		}
		c.Write([]byte("HTTP/1.1 200 OK\r\nServer: nginx\r\n\r\n"))
	})
	target.Config = map[string]any{"timeout": 2, "force_service": "HTTP"}

	res, err := NewBannerGrab().Process(context.Background(), target)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !res.Success {
		t.Fatalf("http grab: got %+v", res)
	}
	if svc, _ := res.Details["service"].(string); svc != "HTTP" {
		t.Errorf("service = %q", svc)
	}
}

func TestBannerGrabSilentService(t *testing.T) {
	target := serve(t, func(c net.Conn) {
		time.Sleep(2 * time.Second)
	})
	target.Config = map[string]any{"timeout": 1}

	res, err := NewBannerGrab().Process(context.Background(), target)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Success || res.Color != record.ColorYellow {
		t.Errorf("silent service should be a yellow failure: got %+v", res)
	}
}

func TestHoneypotMarkerResponse(t *testing.T) {
	target := serve(t, func(c net.Conn) {
		buf := make([]byte, 512)
		c.SetReadDeadline(time.Now().Add(2 * time.Second))
		c.Read(buf)
		c.Write([]byte("HTTP/1.1 200 OK\r\n\r\nwelcome to the honeypot capture node\r\n"))
	})

	res, err := NewHoneypotProbe().Process(context.Background(), target)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !res.Success || res.Color != record.ColorRed {
		t.Errorf("marker response: got %+v", res)
	}
}

func TestHoneypotShortResponse(t *testing.T) {
	target := serve(t, func(c net.Conn) {
		buf := make([]byte, 512)
		c.SetReadDeadline(time.Now().Add(2 * time.Second))
		c.Read(buf)
		c.Write([]byte("hi"))
	})

	res, err := NewHoneypotProbe().Process(context.Background(), target)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !res.Success || res.Color != record.ColorYellow {
		t.Errorf("short response: got %+v", res)
	}
}

func TestHoneypotRealisticResponse(t *testing.T) {
	target := serve(t, func(c net.Conn) {
		buf := make([]byte, 512)
		c.SetReadDeadline(time.Now().Add(2 * time.Second))
		c.Read(buf)
		c.Write([]byte("HTTP/1.1 404 Not Found\r\nServer: Apache/2.4.57 (Debian)\r\nContent-Length: 0\r\n\r\n"))
	})

	res, err := NewHoneypotProbe().Process(context.Background(), target)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Success || res.Color != record.ColorGreen {
		t.Errorf("realistic response: got %+v", res)
	}
}

func TestStutterFastFailures(t *testing.T) {
	target := closedTarget(t)
	target.Config = map[string]any{"timeout": 2, "attempts": 2}

	res, err := NewStutterProbe().Process(context.Background(), target)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Success || res.Color != record.ColorGreen {
		t.Errorf("fast refusals should read as clean: got %+v", res)
	}
	if n, _ := res.Details["failures"].(int); n != 2 {
		t.Errorf("failures = %v", res.Details["failures"])
	}
}

func TestDNSResolverLocalhost(t *testing.T) {
	res, err := NewDNSResolver().Process(context.Background(), extension.Target{IP: "localhost", Port: 80})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !res.Success || res.Color != record.ColorGreen {
		t.Fatalf("localhost: got %+v", res)
	}
	if !strings.Contains(res.Message, "resolved localhost") {
		t.Errorf("message = %q", res.Message)
	}
}

func TestDNSResolverFailure(t *testing.T) {
	res, err := NewDNSResolver().Process(context.Background(), extension.Target{IP: "does-not-exist.invalid", Port: 80})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Success || res.Color != record.ColorRed {
		t.Errorf("unresolvable host: got %+v", res)
	}
}

func TestBuiltinsLoad(t *testing.T) {
	reg := extension.NewRegistry[extension.Processor]("processor")
	reg.LoadBuiltins(Builtins()...)
	if reg.Len() != 5 {
		t.Fatalf("registered = %d, want 5", reg.Len())
	}
	for _, name := range []string{"Port Knocker", "Banner Grab", "Honeypot Probe", "Stutter Probe", "DNS Resolver"} {
		if _, ok := reg.Get(name); !ok {
			t.Errorf("missing builtin %q", name)
		}
	}
}
