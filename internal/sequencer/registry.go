package sequencer

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"mediafx/internal/logging"
)

// Registry tracks the single active Session for one host engine. Share one
// Registry between everything that constructs Sessions for the same host.
type Registry struct {
	active   atomic.Pointer[Session]
	lockPath string
	logger   *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLockFile additionally guards Session ownership with an advisory file
// lock so that separate processes cannot drive the same host state.
func WithLockFile(path string) RegistryOption {
	return func(r *Registry) {
		r.lockPath = strings.TrimSpace(path)
	}
}

// WithRegistryLogger sets the logger used for lifecycle events.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry constructs an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "sequencer")
	return r
}

// Active returns the currently active Session, or nil.
func (r *Registry) Active() *Session {
	return r.active.Load()
}

func (r *Registry) isActive(s *Session) bool {
	return s != nil && r.active.Load() == s
}

// claim marks s as the active session. It never waits: an occupied registry
// or a lock held by another process is a lifecycle violation.
func (r *Registry) claim(s *Session) error {
	if !r.active.CompareAndSwap(nil, s) {
		current := r.active.Load()
		id := ""
		if current != nil {
			id = current.id
		}
		return lifecycleError("only one session can be active at a time, dispose of session %s first", id)
	}
	if r.lockPath == "" {
		return nil
	}
	lock := flock.New(r.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		r.active.CompareAndSwap(s, nil)
		return fmt.Errorf("acquire host lock: %w", err)
	}
	if !ok {
		r.active.CompareAndSwap(s, nil)
		return lifecycleError("host lock %s is held by another process", r.lockPath)
	}
	s.lock = lock
	return nil
}

// release clears the active marker if s holds it and reports whether it did.
func (r *Registry) release(s *Session) bool {
	if s == nil || !r.active.CompareAndSwap(s, nil) {
		return false
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			r.logger.Warn("failed to release host lock", "lock", r.lockPath, "error", err)
		}
		s.lock = nil
	}
	return true
}
