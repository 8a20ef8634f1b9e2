package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

// Auth is the session side of the backend.
type Auth struct{ c *Client }

func NewAuth(c *Client) *Auth { return &Auth{c: c} }

type authUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type tokenResponse struct {
	AccessToken string   `json:"access_token"`
	ExpiresIn   int64    `json:"expires_in"`
	ExpiresAt   int64    `json:"expires_at"`
	User        authUser `json:"user"`
}

func (a *Auth) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	var tr tokenResponse
	err := a.c.do(ctx, request{
		method: http.MethodPost, path: "/auth/v1/token", endpoint: "auth.token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": email, "password": password},
		bearer: a.c.key,
	}, &tr)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			return domain.Session{}, fmt.Errorf("%w: %s", domain.ErrUnauthenticated, apiErr.Message)
		}
		return domain.Session{}, err
	}
	if tr.AccessToken == "" || tr.User.ID == "" {
		return domain.Session{}, domain.ErrUnauthenticated
	}
	exp := time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	if tr.ExpiresAt > 0 {
		exp = time.Unix(tr.ExpiresAt, 0)
	}
	return domain.Session{
		AccessToken: tr.AccessToken,
		ExpiresAt:   exp,
		Identity:    domain.Identity{ID: tr.User.ID, Email: tr.User.Email},
	}, nil
}

func (a *Auth) Identify(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	var u authUser
	err := a.c.do(ctx, request{method: http.MethodGet, path: "/auth/v1/user", endpoint: "auth.user", bearer: token}, &u)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			return domain.Identity{}, fmt.Errorf("%w: %s", domain.ErrUnauthenticated, apiErr.Message)
		}
		return domain.Identity{}, err
	}
	if u.ID == "" {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return domain.Identity{ID: u.ID, Email: u.Email}, nil
}

func (a *Auth) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := a.c.do(ctx, request{method: http.MethodPost, path: "/auth/v1/logout", endpoint: "auth.logout", bearer: token}, nil)
	var apiErr *Error
	if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
		// expired sessions are already signed out
		return nil
	}
	return err
}
