package preview

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"
	"go.uber.org/zap"

	"pagebuilder/internal/surface"
)

// Sender delivers a directive to the preview surface.
type Sender interface {
	Send(ctx context.Context, d surface.Directive) error
}

// Session owns the preview state of one editor. Dispatch is safe for
// concurrent use; directives are sent outside the lock.
type Session struct {
	mu        sync.Mutex
	state     State
	scheduled uint64

	sender   Sender
	log      *zap.Logger
	debounce func(f func())
}

type Option func(*Session)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithInputDebounce coalesces text edits of the same field arriving within
// d into one directive. Zero sends every edit immediately.
func WithInputDebounce(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.debounce = debounce.New(d)
		} else {
			s.debounce = nil
		}
	}
}

func NewSession(sender Sender, opts ...Option) *Session {
	s := &Session{sender: sender, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a snapshot of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pending returns the directive the surface has not acknowledged yet.
func (s *Session) Pending() surface.Directive {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Pending.Peek()
}

// Dispatch classifies a and forwards the resulting directive, if any, to the
// surface. Nothing is sent before the surface reported ready.
func (s *Session) Dispatch(ctx context.Context, a Action) State {
	if a == nil {
		return s.State()
	}

	s.mu.Lock()
	before := s.state.Pending
	wasScheduled := s.scheduled != 0 && s.scheduled == before.Seq()
	if _, done := a.(SurfaceDone); done && wasScheduled {
		// the surface has not seen the deferred edit, so it cannot be acking it
		next := s.state
		s.mu.Unlock()
		return next
	}
	s.state = Reduce(s.state, a)
	next := s.state
	changed := next.Pending.Seq() != before.Seq()
	input, isInput := next.Pending.Peek().(surface.UpdateInput)
	deferred := changed && next.Loaded && isInput && s.debounce != nil
	if deferred {
		s.scheduled = next.Pending.Seq()
	} else if changed || !next.Pending.Pending() {
		s.scheduled = 0
	}
	s.mu.Unlock()

	if _, unknown := a.(Unknown); unknown {
		s.log.Debug("Ignoring unknown preview action", zap.String("type", a.Type()))
	}
	s.log.Debug("Preview action classified",
		zap.String("action", a.Type()),
		zap.String("pending", string(next.Pending.Peek().Kind())),
	)

	if !changed || !next.Loaded || !next.Pending.Pending() {
		return next
	}
	if !deferred {
		s.send(ctx, next.Pending.Peek())
		return next
	}

	// an edit of another field must not be swallowed by this one
	if prev, ok := before.Peek().(surface.UpdateInput); ok && wasScheduled && !sameField(prev, input) {
		s.send(ctx, prev)
	}
	seq := next.Pending.Seq()
	detached := context.WithoutCancel(ctx)
	s.debounce(func() { s.flushInput(detached, seq) })
	return next
}

func (s *Session) flushInput(ctx context.Context, seq uint64) {
	s.mu.Lock()
	if s.scheduled != seq || s.state.Pending.Seq() != seq || !s.state.Pending.Pending() {
		s.mu.Unlock()
		return
	}
	s.scheduled = 0
	d := s.state.Pending.Peek()
	s.mu.Unlock()

	s.send(ctx, d)
}

func (s *Session) send(ctx context.Context, d surface.Directive) {
	if s.sender == nil {
		return
	}
	if err := s.sender.Send(ctx, d); err != nil {
		s.log.Warn("Unable to send preview directive", zap.String("kind", string(d.Kind())), zap.Error(err))
	}
}

func sameField(a, b surface.UpdateInput) bool {
	return a.SectionID == b.SectionID && a.BlockID == b.BlockID && a.FieldID == b.FieldID
}
