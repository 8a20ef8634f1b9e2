package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "github.com/sabawaheed27/motofix-europe/internal/adapters/redis"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_SetGetDel(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	var got []string
	ok, err := c.Get(ctx, "lookup:countries", &got)
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, "lookup:countries", []string{"Austria", "Germany"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	ok, err = c.Get(ctx, "lookup:countries", &got)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[0] != "Austria" {
		t.Fatalf("unexpected value: %v", got)
	}

	if err := c.Del(ctx, "lookup:countries", "lookup:cities:Germany"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if ok, _ := c.Get(ctx, "lookup:countries", &got); ok {
		t.Fatalf("expected miss after del")
	}
}

func TestCache_TTLExpires(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", 10*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(11 * time.Second)

	var s string
	if ok, _ := c.Get(ctx, "k", &s); ok {
		t.Fatalf("expected expiry")
	}
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	c, mr := newCache(t)
	if err := mr.Set("k", "{not json"); err != nil {
		t.Fatal(err)
	}
	var v []string
	ok, err := c.Get(context.Background(), "k", &v)
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if mr.Exists("k") {
		t.Fatalf("corrupt entry should be dropped")
	}
}
