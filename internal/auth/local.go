package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

// Local authenticates against password hashes kept by a SQL backend and hands
// out self-signed session tokens.
type Local struct {
	creds  domain.Credentials
	issuer *Issuer

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> token expiry
}

func NewLocal(creds domain.Credentials, issuer *Issuer) *Local {
	return &Local{creds: creds, issuer: issuer, revoked: map[string]time.Time{}}
}

// dummyHash keeps the timing of unknown emails close to wrong passwords.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("motofix-dummy"), bcrypt.DefaultCost)

func (l *Local) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	id, hash, err := l.creds.PasswordHash(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return domain.Session{}, domain.ErrUnauthenticated
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("load credentials: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return domain.Session{}, domain.ErrUnauthenticated
	}
	tok, exp, err := l.issuer.Issue(id, email)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{
		AccessToken: tok,
		ExpiresAt:   exp,
		Identity:    domain.Identity{ID: id, Email: email},
	}, nil
}

func (l *Local) Identify(ctx context.Context, token string) (domain.Identity, error) {
	c, err := l.issuer.Parse(token)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	l.mu.Lock()
	_, gone := l.revoked[c.ID]
	l.mu.Unlock()
	if gone {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, errRevoked)
	}
	return domain.Identity{ID: c.Subject, Email: c.Email}, nil
}

func (l *Local) SignOut(ctx context.Context, token string) error {
	c, err := l.issuer.Parse(token)
	if err != nil {
		// already unusable
		return nil
	}
	now := l.issuer.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for jti, exp := range l.revoked {
		if exp.Before(now) {
			delete(l.revoked, jti)
		}
	}
	if c.ExpiresAt != nil {
		l.revoked[c.ID] = c.ExpiresAt.Time
	}
	return nil
}

// HashPassword is used when provisioning local users.
func HashPassword(password string) ([]byte, error) {
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must have at least 8 characters", domain.ErrInvalid)
	}
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}
