package balancer

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// randFloat returns a uniform value in [0, 1). It prefers a
// cryptographically secure source and falls back to a time-based value
// if the secure RNG fails.
func randFloat() float64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return float64(time.Now().UnixNano()%1_000_000) / 1_000_000
	}
	// 53 bits of entropy, matching float64 mantissa precision.
	n := binary.LittleEndian.Uint64(b[:]) >> 11
	return float64(n) / (1 << 53)
}
