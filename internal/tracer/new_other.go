//go:build !linux || (!amd64 && !arm64)

package tracer

import "errors"

// New reports that tracing is unavailable on this platform.
func New(sink Sink, opts Options) (Supervisor, error) {
	return nil, errors.New("process tracing requires Linux")
}
