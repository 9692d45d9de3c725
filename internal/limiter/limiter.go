// Package limiter defines interfaces and implementations for websocket
// handshake rate limiting.
package limiter

import (
	"context"
	"time"
)

// Limiter controls handshake attempts per client address and temporary
// lockouts after repeated authentication failures.
type Limiter interface {
	// Allow reports whether a handshake is currently allowed and optional retry-after.
	Allow(ctx context.Context, ipHash []byte) (bool, time.Duration, error)
	// Success resets counters after an authenticated handshake.
	Success(ctx context.Context, ipHash []byte) error
	// Failure records a rejected handshake; may place a temporary block.
	Failure(ctx context.Context, ipHash []byte) (bool, time.Duration, error)
}
