// Package iohelper provides small I/O helpers for reading and disposing
// of HTTP response bodies with size limits.
package iohelper

import "io"

// Body size limits for API responses.
const (
	// SmallMaxBodySize covers error pages and status payloads (8KB).
	SmallMaxBodySize int64 = 8 * 1024

	// DefaultMaxBodySize covers typical search API responses (1MB).
	DefaultMaxBodySize int64 = 1024 * 1024
)

// ReadBody reads from r with a size limit. A nil reader yields an empty
// slice. The limit keeps a misbehaving provider from exhausting memory.
func ReadBody(r io.Reader, maxSize int64) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// ReadBodyDefault reads from r with the default 1MB limit.
func ReadBodyDefault(r io.Reader) ([]byte, error) {
	return ReadBody(r, DefaultMaxBodySize)
}

// DrainAndClose drains up to 64KB of remaining body data and closes the
// reader so the underlying connection can be reused.
func DrainAndClose(r io.Reader) error {
	if r == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 64*1024))
	if rc, ok := r.(io.ReadCloser); ok {
		rc.Close()
	}
	return nil
}
