package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

type SessionEventKind string

const (
	SignedIn  SessionEventKind = "signed_in"
	SignedOut SessionEventKind = "signed_out"
)

type SessionEvent struct {
	Kind     SessionEventKind
	Identity *domain.Identity // nil for a sign-out of an unknown token
}

// SessionService signs users in and out and tells subscribers about it.
type SessionService struct {
	auth  domain.Authenticator
	users domain.UserRepository

	mu     sync.Mutex
	nextID int
	subs   map[int]func(SessionEvent)
}

func NewSessionService(a domain.Authenticator, u domain.UserRepository) *SessionService {
	return &SessionService{auth: a, users: u, subs: map[int]func(SessionEvent){}}
}

func (s *SessionService) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.Session{}, fmt.Errorf("email and password are required: %w", domain.ErrInvalid)
	}
	sess, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		return domain.Session{}, err
	}
	id := sess.Identity
	s.publish(SessionEvent{Kind: SignedIn, Identity: &id})
	return sess, nil
}

// SignOut ends the session behind token. An already invalid token is not an
// error.
func (s *SessionService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	var who *domain.Identity
	if id, err := s.auth.Identify(ctx, token); err == nil {
		who = &id
	}
	if err := s.auth.SignOut(ctx, token); err != nil && !errors.Is(err, domain.ErrUnauthenticated) {
		return err
	}
	s.publish(SessionEvent{Kind: SignedOut, Identity: who})
	return nil
}

// Current resolves token to an identity. A missing or rejected token yields
// nil without error; only backend failures are errors.
func (s *SessionService) Current(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, nil
	}
	id, err := s.auth.Identify(ctx, token)
	switch {
	case err == nil:
		return &id, nil
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrForbidden):
		return nil, nil
	default:
		return nil, err
	}
}

// IsAdmin reads the admin flag of who; nil is never admin.
func (s *SessionService) IsAdmin(ctx context.Context, who *domain.Identity) bool {
	if who == nil {
		return false
	}
	return IsAdmin(ctx, s.users, who.ID)
}

// Subscribe registers fn for session events. The returned func removes it.
func (s *SessionService) Subscribe(fn func(SessionEvent)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *SessionService) publish(ev SessionEvent) {
	s.mu.Lock()
	fns := make([]func(SessionEvent), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Str("event", string(ev.Kind)).Msg("session subscriber")
				}
			}()
			fn(ev)
		}()
	}
}
