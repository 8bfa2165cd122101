// Package httpclient provides the shared HTTP client factory used by
// the builtin intelligence-source plugins. One pooled client serves all
// API calls so repeated searches reuse connections.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Config holds client construction options.
type Config struct {
	// Timeout is the total request timeout (default: 30s).
	Timeout time.Duration

	// DialTimeout bounds connection establishment (default: 10s).
	DialTimeout time.Duration

	// IdleConnTimeout is how long idle connections stay pooled (default: 90s).
	IdleConnTimeout time.Duration

	// MaxIdleConns caps idle connections across all hosts (default: 50).
	MaxIdleConns int

	// MaxConnsPerHost caps connections per provider host (default: 10).
	MaxConnsPerHost int

	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string

	// InsecureSkipVerify skips TLS certificate verification.
	InsecureSkipVerify bool
}

// DefaultConfig returns defaults tuned for low-volume API querying:
// a handful of provider hosts, polite connection counts.
func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		DialTimeout:     10 * time.Second,
		IdleConnTimeout: 90 * time.Second,
		MaxIdleConns:    50,
		MaxConnsPerHost: 10,
	}
}

var (
	defaultClient *http.Client
	defaultOnce   sync.Once
)

// Default returns the shared pooled client. Safe for concurrent use.
func Default() *http.Client {
	defaultOnce.Do(func() {
		defaultClient = New(DefaultConfig())
	})
	return defaultClient
}

// New creates a client with the given configuration. Zero values fall
// back to DefaultConfig values.
func New(cfg Config) *http.Client {
	def := DefaultConfig()
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = def.DialTimeout
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = def.IdleConnTimeout
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = def.MaxIdleConns
	}
	if cfg.MaxConnsPerHost == 0 {
		cfg.MaxConnsPerHost = def.MaxConnsPerHost
	}

	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
		TLSHandshakeTimeout:   cfg.DialTimeout,
		DialContext:           dialer.DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
	}

	if cfg.Proxy != "" {
		if proxyURL, err := url.Parse(cfg.Proxy); err == nil && proxyURL != nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}
}
