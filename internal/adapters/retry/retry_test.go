package retry

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestBackoffGrowsWithJitterCap(t *testing.T) {
	for i := 0; i < 4; i++ {
		base := time.Duration(1<<i) * 200 * time.Millisecond
		d := Backoff(i)
		if d < base || d > base+base/2 {
			t.Fatalf("attempt %d: %v outside [%v, %v]", i, d, base, base+base/2)
		}
	}
}

func TestAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	if After(resp) != 0 {
		t.Fatalf("absent header must be 0")
	}
	resp.Header.Set("Retry-After", "3")
	if got := After(resp); got != 3*time.Second {
		t.Fatalf("got %v", got)
	}
	resp.Header.Set("Retry-After", "soon")
	if After(resp) != 0 {
		t.Fatalf("garbage must be 0")
	}
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if Sleep(ctx, time.Hour) {
		t.Fatalf("expected early return on cancelled ctx")
	}
	if !Sleep(context.Background(), 0) {
		t.Fatalf("zero duration must succeed")
	}
}

func TestTransient(t *testing.T) {
	if !Transient(503) || !Transient(429) || Transient(404) || Transient(400) {
		t.Fatalf("unexpected classification")
	}
}
