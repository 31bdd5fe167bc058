package traceid

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"time"

	"github.com/google/uuid"
)

// New returns a UUIDv7 per RFC 9562 (time-ordered, millisecond precision),
// used as the trace id stamped on responses and error envelopes.
func New() (uuid.UUID, error) {
	var b [16]byte
	if _, err := io.ReadFull(rand.Reader, b[:]); err != nil {
		return uuid.Nil, err
	}

	ms := uint64(time.Now().UnixMilli())
	b[0] = byte(ms >> 40)
	b[1] = byte(ms >> 32)
	b[2] = byte(ms >> 24)
	b[3] = byte(ms >> 16)
	b[4] = byte(ms >> 8)
	b[5] = byte(ms)

	// Version 7 (0b0111)
	b[6] = (b[6] & 0x0f) | 0x70
	// Variant RFC 4122 (0b10xxxxxx)
	b[8] = (b[8] & 0x3f) | 0x80

	return uuid.FromBytes(b[:])
}

// NewString returns a UUIDv7 string, or a random hex fallback if the
// system entropy source fails. Callers never have to handle an error for
// something that only decorates logs and envelopes.
func NewString() string {
	u, err := New()
	if err == nil {
		return u.String()
	}
	var b [16]byte
	for i := range b {
		b[i] = byte(time.Now().UnixNano() >> (uint(i%8) * 8))
	}
	return hex.EncodeToString(b[:])
}
