package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/branch-appointment-booking/internal/booking"
	"github.com/hackgods/branch-appointment-booking/internal/observability/metrics"
)

var ErrSessionNotFound = errors.New("session not found or expired")

// State is everything one booking session owns. It is only reachable
// through Session.Do.
type State struct {
	Wizard *booking.Wizard
	// Branches is the result of the last directory lookup, in directory order.
	Branches []booking.Branch
}

type Session struct {
	ID string

	mu       sync.Mutex
	state    State
	lastSeen time.Time // guarded by Store.mu
}

// Do runs fn with exclusive access to the session state. Events on one
// session never interleave.
func (s *Session) Do(fn func(st *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.state)
}

type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session

	ttl       time.Duration
	newWizard func() *booking.Wizard
	now       func() time.Time
	log       *zap.Logger
	metrics   *metrics.WizardMetrics
}

// NewStore keeps sessions in memory and drops them after ttl without a Get.
// newWizard builds the state machine for each new session.
func NewStore(ttl time.Duration, newWizard func() *booking.Wizard, log *zap.Logger, m *metrics.WizardMetrics) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if newWizard == nil {
		issuer := booking.NewIssuer()
		newWizard = func() *booking.Wizard { return booking.NewWizard(issuer) }
	}
	return &Store{
		sessions:  make(map[string]*Session),
		ttl:       ttl,
		newWizard: newWizard,
		now:       time.Now,
		log:       log,
		metrics:   m,
	}
}

func (s *Store) Create() *Session {
	sess := &Session{
		ID:    uuid.NewString(),
		state: State{Wizard: s.newWizard()},
	}

	s.mu.Lock()
	sess.lastSeen = s.now()
	s.sessions[sess.ID] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(n)
	return sess
}

// Get returns a live session and refreshes its idle deadline.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	now := s.now()
	if s.expired(sess, now) {
		delete(s.sessions, id)
		n := len(s.sessions)
		s.mu.Unlock()

		s.metrics.SetActiveSessions(n)
		return nil, ErrSessionNotFound
	}
	sess.lastSeen = now
	s.mu.Unlock()
	return sess, nil
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(n)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops every session idle past the ttl at now and returns how many
// were dropped.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(n)
	return removed
}

// Run sweeps at every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("session janitor stopping")
			return
		case <-ticker.C:
			start := time.Now()
			removed := s.Sweep(s.now())
			if removed > 0 {
				s.log.Info("expired idle sessions",
					zap.Int("removed", removed),
					zap.Int("active", s.Len()),
					zap.Duration("took", time.Since(start)),
				)
			}
		}
	}
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.lastSeen) > s.ttl
}
