package jwt

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_RoundTrip(t *testing.T) {
	issuer := NewIssuer("secret", 0)

	token, err := issuer.GenerateToken("64b7f0c2a1e4d3b2c1a09f8e", "alice", "a@x.com")
	require.NoError(t, err)

	claims, err := issuer.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1e4d3b2c1a09f8e", claims.ID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(TokenTTL), claims.ExpiresAt.Time, 5*time.Second)
}

func TestIssuer_RejectsExpired(t *testing.T) {
	issuer := NewIssuer("secret", 0)
	issuer.now = func() time.Time { return time.Now().Add(-25 * time.Hour) }

	token, err := issuer.GenerateToken("64b7f0c2a1e4d3b2c1a09f8e", "alice", "a@x.com")
	require.NoError(t, err)

	verifier := NewIssuer("secret", 0)
	_, err = verifier.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RejectsTampered(t *testing.T) {
	issuer := NewIssuer("secret", 0)
	token, err := issuer.GenerateToken("64b7f0c2a1e4d3b2c1a09f8e", "alice", "a@x.com")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	forged, err := NewIssuer("other-secret", 0).GenerateToken("64b7f0c2a1e4d3b2c1a09f8f", "mallory", "m@x.com")
	require.NoError(t, err)
	forgedParts := strings.Split(forged, ".")

	tests := map[string]string{
		"wrong secret":    forged,
		"swapped payload": parts[0] + "." + forgedParts[1] + "." + parts[2],
		"missing segment": parts[0] + "." + parts[1],
		"garbage":         "not-a-token",
		"empty":           "",
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.ParseToken(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestIssuer_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{
		ID: "64b7f0c2a1e4d3b2c1a09f8e",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewIssuer("secret", 0).ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
