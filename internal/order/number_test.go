package order

import (
	"strings"
	"testing"
	"time"
)

func TestNewOrderNumberFormat(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	number := NewOrderNumber(now)
	if !strings.HasPrefix(number, "BTK-250615-") {
		t.Fatalf("unexpected prefix in %q", number)
	}
	suffix := strings.TrimPrefix(number, "BTK-250615-")
	if len(suffix) != 6 {
		t.Fatalf("suffix %q should be 6 characters", suffix)
	}
	for _, r := range suffix {
		if !strings.ContainsRune(numberAlphabet, r) {
			t.Fatalf("suffix %q contains %q outside the alphabet", suffix, r)
		}
	}
}

func TestNewOrderNumberVaries(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		seen[NewOrderNumber(now)] = true
	}
	if len(seen) < 95 {
		t.Fatalf("expected distinct numbers, got %d unique of 100", len(seen))
	}
}
