package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yourorg/catalogdash/internal/apperrors"
	"github.com/yourorg/catalogdash/internal/dashboard"
	"github.com/yourorg/catalogdash/internal/id"
	"github.com/yourorg/catalogdash/internal/prompt"
	"github.com/yourorg/catalogdash/internal/service"
)

const (
	sessionCookieName  = "catalogdash_session"
	DefaultSessionTTL  = 30 * time.Minute
	promptBufferSize   = 8
	sweepIntervalRatio = 4
)

// session is one browser's dashboard together with the prompt channel its
// mutations talk through.
type session struct {
	id      string
	dash    *dashboard.Dashboard
	prompts *prompt.Broker

	mu       sync.Mutex
	lastSeen time.Time
	streams  int
}

func newSession(sessionID string, productSvc ProductService, opts dashboard.Options) *session {
	broker := prompt.NewBroker(promptBufferSize)
	sess := &session{id: sessionID, prompts: broker}
	mutations := productSvc.Mutations(broker, service.ReloadFunc(func() { sess.dash.Reload() }))
	sess.dash = dashboard.New(productSvc, mutations, broker, opts)
	sess.dash.Start()
	return sess
}

func (s *session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *session) attachStream(now time.Time) {
	s.mu.Lock()
	s.streams++
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *session) detachStream(now time.Time) {
	s.mu.Lock()
	s.streams--
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *session) idle(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streams == 0 && now.Sub(s.lastSeen) > ttl
}

// SessionStore keeps dashboards keyed by session cookie and evicts the ones
// nobody has looked at for a while.
type SessionStore struct {
	factory func(id string) *session
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
}

func NewSessionStore(ttl time.Duration, factory func(id string) *session) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		factory:  factory,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

func (s *SessionStore) open() (*session, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, apperrors.NewServiceUnavailableError("server is shutting down")
	}

	sess := s.factory(id.GenerateIDWithPrefix(id.SessionPrefix))
	sess.touch(s.now())

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sess.dash.Close()
		return nil, apperrors.NewServiceUnavailableError("server is shutting down")
	}
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	return sess, nil
}

func (s *SessionStore) lookup(sessionID string) (*session, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if ok {
		sess.touch(s.now())
	}
	return sess, ok
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep closes and forgets idle sessions without an open event stream.
func (s *SessionStore) Sweep() int {
	now := s.now()
	var expired []*session

	s.mu.Lock()
	for sessionID, sess := range s.sessions {
		if sess.idle(now, s.ttl) {
			expired = append(expired, sess)
			delete(s.sessions, sessionID)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.dash.Close()
	}
	return len(expired)
}

// Run sweeps on an interval until ctx ends, then closes every session.
func (s *SessionStore) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.ttl / sweepIntervalRatio)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Close()
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Info("evicted idle dashboard sessions", "count", n, "remaining", s.Len())
			}
		}
	}
}

// Close ends every session and refuses new ones.
func (s *SessionStore) Close() {
	s.mu.Lock()
	s.closed = true
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.dash.Close()
	}
}
