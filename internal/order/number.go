package order

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Alphabet for the random suffix. No vowels and no easily confused glyphs,
// so generated numbers are safe to read out over the phone.
const numberAlphabet = "23456789BCDFGHJKMNPQRSTVWXZ"

// NewOrderNumber builds a human-facing order number such as
// BTK-250615-K7M2QX: a fixed prefix, the order date, and a random suffix.
// Uniqueness is ultimately enforced by the database constraint; with 27^6
// suffixes per day a same-day collision is astronomically rare.
func NewOrderNumber(now time.Time) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// fall back to the timestamp so checkout keeps working.
		return fmt.Sprintf("BTK-%s-%06d", now.Format("060102"), now.UnixNano()%1000000)
	}
	for i, b := range buf {
		buf[i] = numberAlphabet[int(b)%len(numberAlphabet)]
	}
	return fmt.Sprintf("BTK-%s-%s", now.Format("060102"), string(buf))
}
