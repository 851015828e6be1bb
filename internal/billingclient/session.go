// Package billingclient drives the billing flow from the owner's side: it
// reconciles subscription state, prices selections, validates promo codes and
// hands the owner off to hosted checkout or the customer portal.
package billingclient

import "sync"

// Session is the signed-in owner as seen by the client.
type Session struct {
	UserID    string
	Email     string
	AuthToken string
}

type SessionProvider interface {
	// CurrentUser reports false when nobody is signed in.
	CurrentUser() (*Session, bool)
}

// StaticSession is a SessionProvider holding one session that can be
// replaced or cleared.
type StaticSession struct {
	mu      sync.RWMutex
	session *Session
}

func NewStaticSession(s *Session) *StaticSession {
	return &StaticSession{session: s}
}

func (s *StaticSession) CurrentUser() (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil || s.session.AuthToken == "" {
		return nil, false
	}
	cp := *s.session
	return &cp, true
}

func (s *StaticSession) Set(session *Session) {
	s.mu.Lock()
	s.session = session
	s.mu.Unlock()
}
