// Package revocation tracks token identifiers that were invalidated before
// their natural expiry. Membership is monotone: an entry never disappears
// before the underlying token's own expiration, which also bounds store
// growth to the maximum token lifetime.
package revocation

import (
	"context"
	"time"
)

// minTTL guards against tokens whose exp is already in the past; the entry
// still needs to outlive any clock skew between validators.
const minTTL = time.Minute

// Store is the shared revocation set consulted on every validation.
// Implementations must be safe for many concurrent Contains calls
// interleaved with occasional Add calls.
type Store interface {
	// Add marks jti revoked until expiresAt. Adding an existing entry is a
	// no-op, so revocation is idempotent.
	Add(ctx context.Context, jti string, expiresAt time.Time) error

	// Contains reports whether jti is currently revoked.
	Contains(ctx context.Context, jti string) (bool, error)
}

func entryTTL(expiresAt time.Time, now time.Time) time.Duration {
	ttl := expiresAt.Sub(now)
	if ttl < minTTL {
		return minTTL
	}
	return ttl
}
