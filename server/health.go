package server

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sadeshahansana5-cloud/G-Create-Bot/metrics"
)

// State is the runner lifecycle state.
type State int32

const (
	StateStarting State = iota
	StateServing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateServing:
		return "serving"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

type dependencyStatus struct {
	configured bool
	err        error
}

// ReadyState tracks lifecycle and dependency health for the health endpoints.
type ReadyState struct {
	startTime time.Time
	state     atomic.Int32

	mu   sync.RWMutex
	deps map[string]dependencyStatus
}

// NewReadyState creates a ReadyState in StateStarting.
func NewReadyState(startTime time.Time) *ReadyState {
	r := &ReadyState{
		startTime: startTime,
		deps:      make(map[string]dependencyStatus),
	}
	r.SetState(StateStarting)
	return r
}

// SetState moves the runner to s. StateStopped is terminal.
func (r *ReadyState) SetState(s State) {
	for {
		current := State(r.state.Load())
		if current == StateStopped && s != StateStopped {
			return
		}
		if r.state.CompareAndSwap(int32(current), int32(s)) {
			metrics.SetRunnerState(int(s))
			return
		}
	}
}

// State returns the current lifecycle state.
func (r *ReadyState) State() State {
	return State(r.state.Load())
}

// Uptime returns the time since the process started.
func (r *ReadyState) Uptime() time.Duration {
	return time.Since(r.startTime)
}

// TrackDependency registers a connected dependency as healthy.
func (r *ReadyState) TrackDependency(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deps[name] = dependencyStatus{configured: true}
}

// MarkUnconfigured records a dependency that was skipped for lack of configuration.
func (r *ReadyState) MarkUnconfigured(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deps[name] = dependencyStatus{}
}

// ReportProbe stores the latest probe result for a tracked dependency.
func (r *ReadyState) ReportProbe(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deps[name] = dependencyStatus{configured: true, err: err}
}

// DependenciesHealthy reports whether every configured dependency passed its last probe.
func (r *ReadyState) DependenciesHealthy() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, st := range r.deps {
		if st.configured && st.err != nil {
			return false
		}
	}
	return true
}

// IsFullyReady returns true when serving with healthy dependencies.
func (r *ReadyState) IsFullyReady() bool {
	return r.State() == StateServing && r.DependenciesHealthy()
}

// Dependencies returns a name → status summary ("ok", "not configured" or the
// last error text).
func (r *ReadyState) Dependencies() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.deps))
	for name, st := range r.deps {
		switch {
		case !st.configured:
			out[name] = "not configured"
		case st.err != nil:
			out[name] = st.err.Error()
		default:
			out[name] = "ok"
		}
	}
	return out
}

// DependencyNames returns the tracked dependency names, sorted.
func (r *ReadyState) DependencyNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.deps))
	for name := range r.deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
