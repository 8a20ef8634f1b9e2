package bootstrap

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/sabawaheed27/motofix-europe/internal/adapters/supabase"
	"github.com/sabawaheed27/motofix-europe/internal/domain"
	"github.com/sabawaheed27/motofix-europe/internal/shared"
)

func TestRedactDSN(t *testing.T) {
	cases := map[string]string{
		"postgres://user:pw@db:5432/motofix": "postgres://***@db:5432/motofix",
		"postgres://db:5432/motofix":         "postgres://db:5432/motofix",
		"root:root@tcp(localhost)/m":         "root:root@tcp(localhost)/m",
	}
	for in, want := range cases {
		if got := redactDSN(in); got != want {
			t.Fatalf("redactDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpen_Supabase(t *testing.T) {
	cfg := shared.Config{Backend: shared.BackendSupabase, SupabaseURL: "https://x.supabase.co", SupabaseAnonKey: "anon"}
	b, err := Open(context.Background(), cfg, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()
	if b.Credentials != nil {
		t.Fatalf("hosted backend manages users remotely")
	}
	if b.TokenContext == nil || b.Shops == nil || b.Users == nil || b.Auth == nil {
		t.Fatalf("incomplete backend: %+v", b)
	}
}

func TestOpen_SupabaseAdminUsesServiceKey(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		_, _ = io.WriteString(w, `[]`)
	}))
	defer ts.Close()

	cfg := shared.Config{Backend: shared.BackendSupabase, SupabaseURL: ts.URL, SupabaseAnonKey: "anon", SupabaseServiceKey: "service"}
	b, err := Open(context.Background(), cfg, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()

	ctx := supabase.WithAccessToken(context.Background(), "user-token")
	if _, err := b.Users.ListUsers(ctx); err != nil {
		t.Fatalf("users: %v", err)
	}
	if _, err := b.AdminUsers.ListUsers(ctx); err != nil {
		t.Fatalf("admin users: %v", err)
	}
	if _, err := b.AdminShops.ListShops(ctx, domain.ShopQuery{}); err != nil {
		t.Fatalf("admin shops: %v", err)
	}

	want := []string{"Bearer user-token", "Bearer service", "Bearer service"}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != len(want) {
		t.Fatalf("requests: %v", seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("request %d authorized as %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestOpen_SupabaseAdminFallsBackToAnon(t *testing.T) {
	cfg := shared.Config{Backend: shared.BackendSupabase, SupabaseURL: "https://x.supabase.co", SupabaseAnonKey: "anon"}
	b, err := Open(context.Background(), cfg, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if b.AdminShops != b.Shops || b.AdminUsers != b.Users {
		t.Fatalf("without a service key the admin pages share the session repo")
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), shared.Config{Backend: "sqlite"}, false); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCache(t *testing.T) {
	c, closeFn := Cache(context.Background(), shared.Config{})
	closeFn()
	if c != nil {
		t.Fatalf("expected no cache without REDIS_ADDR")
	}

	mr := miniredis.RunT(t)
	c, closeFn = Cache(context.Background(), shared.Config{RedisAddr: mr.Addr()})
	defer closeFn()
	if c == nil {
		t.Fatalf("expected a cache")
	}
	if err := c.Set(context.Background(), "k", []string{"a"}, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got []string
	if ok, err := c.Get(context.Background(), "k", &got); err != nil || !ok || len(got) != 1 {
		t.Fatalf("get: ok=%v err=%v got=%v", ok, err, got)
	}
}
