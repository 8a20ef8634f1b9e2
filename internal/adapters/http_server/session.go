package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sabawaheed27/motofix-europe/internal/app"
	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

const sessionCookie = "mf_session"

type ctxKey int

const (
	identityKey ctxKey = iota
	tokenKey
)

// Session resolves the session cookie into an identity stored in the request
// context. An invalid or expired cookie is cleared; backend failures leave
// the request anonymous. tokenCtx, when set, lets outbound backend calls act
// as the signed-in user.
func Session(svc *app.SessionService, tokenCtx func(context.Context, string) context.Context) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(sessionCookie)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			who, err := svc.Current(ctx, c.Value)
			if err != nil {
				log.Warn().Err(err).Msg("session lookup failed")
			}
			if who == nil {
				if err == nil {
					clearSessionCookie(w, r)
				}
				next.ServeHTTP(w, r)
				return
			}
			noteUser(ctx, who.ID)
			ctx = context.WithValue(ctx, identityKey, who)
			ctx = context.WithValue(ctx, tokenKey, c.Value)
			if tokenCtx != nil {
				ctx = tokenCtx(ctx, c.Value)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFrom returns the signed-in identity, or nil.
func IdentityFrom(ctx context.Context) *domain.Identity {
	who, _ := ctx.Value(identityKey).(*domain.Identity)
	return who
}

func tokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, s domain.Session, ttl time.Duration) {
	exp := s.ExpiresAt
	if exp.IsZero() {
		exp = time.Now().Add(ttl)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.AccessToken,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
