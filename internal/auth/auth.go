// Package auth verifies bearer credentials into user identities.
package auth

import (
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/codecommunity/chat-server/internal/errs"
)

// Verifier validates HS256 tokens issued by the account service.
// It is a pure function of token, signing key and current time.
type Verifier struct {
	signKey []byte
}

// NewVerifier constructs a Verifier over the shared signing key.
func NewVerifier(signKey []byte) *Verifier {
	return &Verifier{signKey: signKey}
}

// Verify parses and validates a token and returns the subject user ID.
// Expired tokens map to errs.ErrExpiredCredential, everything else that
// fails validation maps to errs.ErrInvalidCredential.
func (v *Verifier) Verify(token string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return v.signKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, errs.ErrExpiredCredential
		}
		return uuid.Nil, errs.ErrInvalidCredential
	}
	if !tok.Valid {
		return uuid.Nil, errs.ErrInvalidCredential
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, errs.ErrInvalidCredential
	}
	return id, nil
}

// Issue creates a signed HS256 token for the given subject. The account
// service is the normal issuer; this is used by the CLI client and tests.
func (v *Verifier) Issue(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(v.signKey)
}
