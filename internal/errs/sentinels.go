// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service/transport layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredential indicates a malformed or badly signed token.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrExpiredCredential indicates a token past its expiry.
	ErrExpiredCredential = errors.New("expired credential")

	// ErrEmptyMessage indicates a send with an empty (or whitespace-only) body.
	ErrEmptyMessage = errors.New("empty message body")

	// ErrRateLimited indicates a temporary handshake lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")
)
