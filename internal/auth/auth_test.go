package auth

import (
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/codecommunity/chat-server/internal/errs"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier([]byte("test-key"))
	id := uuid.Must(uuid.NewV4())

	tok, err := v.Issue(id, time.Minute)
	require.NoError(t, err)

	got, err := v.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestVerifier_BadSignature(t *testing.T) {
	v := NewVerifier([]byte("key-a"))
	id := uuid.Must(uuid.NewV4())
	tok, err := v.Issue(id, time.Minute)
	require.NoError(t, err)

	other := NewVerifier([]byte("key-b"))
	_, err = other.Verify(tok)
	require.ErrorIs(t, err, errs.ErrInvalidCredential)
}

func TestVerifier_Expired(t *testing.T) {
	v := NewVerifier([]byte("test-key"))
	id := uuid.Must(uuid.NewV4())
	tok, err := v.Issue(id, -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(tok)
	require.ErrorIs(t, err, errs.ErrExpiredCredential)
}

func TestVerifier_Garbage(t *testing.T) {
	v := NewVerifier([]byte("test-key"))
	_, err := v.Verify("not-a-token")
	require.ErrorIs(t, err, errs.ErrInvalidCredential)
}

func TestVerifier_NonUUIDSubject(t *testing.T) {
	key := []byte("test-key")
	v := NewVerifier(key)

	// Signed with the right key but the subject is not a user ID.
	claims := jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)

	_, err = v.Verify(raw)
	require.ErrorIs(t, err, errs.ErrInvalidCredential)
}
