//go:build amd64 || arm64

package tracer

// New creates a ptrace-based supervisor.
func New(sink Sink, opts Options) (Supervisor, error) {
	return newPtraceSupervisor(sink, opts)
}
