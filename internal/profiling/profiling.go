// internal/profiling/profiling.go
// Package profiling wraps interchangeable CPU-profiling backends behind a
// uniform start/stop/export surface. Profiling is best-effort: an
// unavailable backend or a failed export degrades to "no report", never to
// a benchmark failure.
package profiling

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"runtime/trace"
)

// Kind selects a profiling backend.
type Kind string

const (
	// KindCPU is the statistical CPU sampler (runtime/pprof).
	KindCPU Kind = "cpu"
	// KindTrace is the execution tracer fallback (runtime/trace). Its
	// output is a binary artifact, so Stop returns a pointer report.
	KindTrace Kind = "trace"
)

// ParseKind validates a profiler name from config or flags.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindCPU, KindTrace:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown profiler type %q (want %q or %q)", s, KindCPU, KindTrace)
	}
}

// Capabilities is the explicit availability set handed to New. Backends a
// process cannot drive (say, a CPU profile already running for the whole
// process) are declared here instead of being probed ambiently.
type Capabilities struct {
	CPU   bool
	Trace bool
}

// DetectCapabilities reports which backends this process can drive now.
func DetectCapabilities() Capabilities {
	return Capabilities{
		CPU:   pprof.Lookup("goroutine") != nil, // pprof machinery present
		Trace: !trace.IsEnabled(),
	}
}

// Available reports whether kind can be started under these capabilities.
func (c Capabilities) Available(kind Kind) bool {
	switch kind {
	case KindCPU:
		return c.CPU
	case KindTrace:
		return c.Trace
	default:
		return false
	}
}

// Profiler drives at most one profiling session at a time.
type Profiler struct {
	kind   Kind
	caps   Capabilities
	active bool
	buf    bytes.Buffer
}

// New returns an idle Profiler for kind under the given capability set.
func New(kind Kind, caps Capabilities) *Profiler {
	return &Profiler{kind: kind, caps: caps}
}

// Active reports whether a session is running.
func (p *Profiler) Active() bool { return p.active }

// Start begins a session. If the backend is unavailable the profiler stays
// idle and logs a warning; Start never fails the caller.
func (p *Profiler) Start() {
	if p.active {
		return
	}
	if !p.caps.Available(p.kind) {
		log.Printf("WARNING: profiler %q not available, skipping profiling", p.kind)
		return
	}
	p.buf.Reset()
	var err error
	switch p.kind {
	case KindCPU:
		err = pprof.StartCPUProfile(&p.buf)
	case KindTrace:
		err = trace.Start(&p.buf)
	}
	if err != nil {
		log.Printf("WARNING: profiler %q failed to start: %v", p.kind, err)
		return
	}
	p.active = true
}

// Stop ends the session and returns a textual report, or "" when no
// session was active.
func (p *Profiler) Stop() string {
	if !p.active {
		return ""
	}
	p.active = false
	switch p.kind {
	case KindCPU:
		pprof.StopCPUProfile()
		return fmt.Sprintf("CPU profile captured (%d bytes, pprof format).\nInspect the saved .pprof artifact with: go tool pprof <artifact>", p.buf.Len())
	case KindTrace:
		trace.Stop()
		return fmt.Sprintf("Execution trace captured (%d bytes).\nThe trace format has no generic text rendering; inspect the saved artifact with: go tool trace <artifact>", p.buf.Len())
	}
	return ""
}

// SaveArtifact writes the captured raw profile to path. Failures are
// swallowed and reported as false.
func (p *Profiler) SaveArtifact(path string) bool {
	if p.active || p.buf.Len() == 0 {
		return false
	}
	if err := os.WriteFile(path, p.buf.Bytes(), 0o644); err != nil {
		log.Printf("WARNING: could not save profile artifact %s: %v", path, err)
		return false
	}
	return true
}

// ArtifactExt is the conventional file extension for kind's raw artifact.
func (p *Profiler) ArtifactExt() string {
	if p.kind == KindTrace {
		return ".trace"
	}
	return ".pprof"
}
