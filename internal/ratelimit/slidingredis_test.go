package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestAllowWithinLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	l := Limiter{Client: client, Prefix: "rl:"}
	for i := 0; i < 3; i++ {
		allowed, _, _, err := l.Allow(context.Background(), "1.2.3.4", time.Minute, 3)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	allowed, remaining, _, err := l.Allow(context.Background(), "1.2.3.4", time.Minute, 3)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if allowed {
		t.Fatal("fourth request should be limited")
	}
	if remaining != 0 {
		t.Fatalf("expected 0 remaining, got %d", remaining)
	}
}

func TestAllowDisabledWithoutClient(t *testing.T) {
	l := Limiter{}
	allowed, _, _, err := l.Allow(context.Background(), "1.2.3.4", time.Minute, 3)
	if err != nil || !allowed {
		t.Fatalf("nil client must fail open, allowed=%v err=%v", allowed, err)
	}
}
