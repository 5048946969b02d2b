package studio

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const DefaultSessionTTL = 30 * time.Minute

// ControllerFactory builds the controller of a new session.
type ControllerFactory func(locale string) (*Controller, error)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	TTL     time.Duration
	Factory ControllerFactory
	Logger  *zerolog.Logger
	Now     func() time.Time
}

// Registry maps session IDs to controllers. Sessions idle for longer than
// the TTL expire; a session with a running job never expires.
type Registry struct {
	ttl     time.Duration
	factory ControllerFactory
	logger  zerolog.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*Controller
	closed   bool
}

func NewRegistry(opts RegistryOptions) (*Registry, error) {
	if opts.Factory == nil {
		return nil, errors.New("studio: controller factory is required")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Registry{
		ttl:      ttl,
		factory:  opts.Factory,
		logger:   logger,
		now:      now,
		sessions: make(map[uuid.UUID]*Controller),
	}, nil
}

// Create starts a new session.
func (r *Registry) Create(locale string) (uuid.UUID, *Controller, error) {
	ctrl, err := r.factory(locale)
	if err != nil {
		return uuid.Nil, nil, err
	}
	id := uuid.New()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		ctrl.Close()
		return uuid.Nil, nil, ErrClosed
	}
	r.sessions[id] = ctrl
	activeSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	r.logger.Debug().Str("session_id", id.String()).Str("locale", ctrl.Locale()).Msg("studio: session created")
	return id, ctrl, nil
}

// Get returns the session controller. An expired session is removed and
// reported as missing.
func (r *Registry) Get(id uuid.UUID) (*Controller, bool) {
	r.mu.Lock()
	ctrl, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return nil, false
	}
	if r.expired(ctrl) {
		delete(r.sessions, id)
		activeSessions.Set(float64(len(r.sessions)))
		r.mu.Unlock()
		ctrl.Close()
		return nil, false
	}
	r.mu.Unlock()
	ctrl.touch()
	return ctrl, true
}

// Delete closes and forgets a session.
func (r *Registry) Delete(id uuid.UUID) bool {
	r.mu.Lock()
	ctrl, ok := r.sessions[id]
	delete(r.sessions, id)
	activeSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()
	if ok {
		ctrl.Close()
	}
	return ok
}

// Sweep closes every expired session and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	var expired []*Controller
	for id, ctrl := range r.sessions {
		if r.expired(ctrl) {
			expired = append(expired, ctrl)
			delete(r.sessions, id)
		}
	}
	activeSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	for _, ctrl := range expired {
		ctrl.Close()
	}
	if len(expired) > 0 {
		r.logger.Info().Int("expired", len(expired)).Msg("studio: sessions swept")
	}
	return len(expired)
}

// Run sweeps on every tick until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Phases counts live sessions per phase.
func (r *Registry) Phases() map[Phase]int {
	r.mu.Lock()
	ctrls := make([]*Controller, 0, len(r.sessions))
	for _, ctrl := range r.sessions {
		ctrls = append(ctrls, ctrl)
	}
	r.mu.Unlock()

	counts := make(map[Phase]int)
	for _, ctrl := range ctrls {
		counts[ctrl.Snapshot().Phase]++
	}
	return counts
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close cancels every session and waits for their pipelines to return.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	sessions := r.sessions
	r.sessions = make(map[uuid.UUID]*Controller)
	activeSessions.Set(0)
	r.mu.Unlock()

	for _, ctrl := range sessions {
		ctrl.Close()
	}
	for _, ctrl := range sessions {
		ctrl.Wait()
	}
}

func (r *Registry) expired(ctrl *Controller) bool {
	snap := ctrl.Snapshot()
	if snap.Phase == PhaseRunning {
		return false
	}
	return r.now().Sub(ctrl.LastActivity()) > r.ttl
}
