package recommend

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSuperseded is returned for a request that finished after a newer
// request for the same session was issued.
var ErrSuperseded = errors.New("request superseded by a newer one")

// Sequencer enforces last-request-wins per session key. Starting a request
// cancels the context of any older in-flight request for the same key, and
// an older request that still completes is reported as superseded.
type Sequencer struct {
	mu       sync.Mutex
	next     uint64
	sessions map[string]*session
	idleTTL  time.Duration
	now      func() time.Time
}

type session struct {
	latest  uint64
	cancel  context.CancelFunc
	touched time.Time
}

// Ticket identifies one sequenced request.
type Ticket struct {
	key string
	seq uint64
}

// Seq returns the request's sequence number. Numbers increase monotonically
// across all sessions.
func (t Ticket) Seq() uint64 { return t.seq }

// NewSequencer creates a sequencer that forgets sessions idle for idleTTL.
func NewSequencer(idleTTL time.Duration) *Sequencer {
	if idleTTL <= 0 {
		idleTTL = time.Hour
	}
	return &Sequencer{
		sessions: make(map[string]*session),
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Begin registers a new request for key and returns a context that is
// cancelled when a newer request for the same key begins. An empty key is
// never sequenced.
func (s *Sequencer) Begin(ctx context.Context, key string) (context.Context, Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	t := Ticket{key: key, seq: s.next}
	if key == "" {
		return ctx, t
	}

	now := s.now()
	s.prune(now)

	reqCtx, cancel := context.WithCancel(ctx)
	if prev, ok := s.sessions[key]; ok && prev.cancel != nil {
		prev.cancel()
	}
	s.sessions[key] = &session{latest: t.seq, cancel: cancel, touched: now}
	return reqCtx, t
}

// Finish releases the ticket and reports ErrSuperseded when a newer request
// for the same key was begun in the meantime.
func (s *Sequencer) Finish(t Ticket) error {
	if t.key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[t.key]
	if !ok || sess.latest != t.seq {
		return ErrSuperseded
	}
	if sess.cancel != nil {
		sess.cancel()
		sess.cancel = nil
	}
	sess.touched = s.now()
	return nil
}

// Latest returns the newest sequence number issued for key.
func (s *Sequencer) Latest(key string) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[key]
	if !ok {
		return 0, false
	}
	return sess.latest, true
}

// prune drops idle sessions with nothing in flight. Callers hold s.mu.
func (s *Sequencer) prune(now time.Time) {
	for key, sess := range s.sessions {
		if sess.cancel == nil && now.Sub(sess.touched) > s.idleTTL {
			delete(s.sessions, key)
		}
	}
}
