package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/crm-backend/internal/auth"
)

func TestCodecAccessRoundTrip(t *testing.T) {
	codec := auth.NewCodec("access-secret", "refresh-secret", 15, 7)

	tok, exp, err := codec.SignAccess(42, "user@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 5*time.Second)

	claims, aerr := codec.ParseAccess(tok)
	require.Nil(t, aerr)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestCodecRefreshRoundTrip(t *testing.T) {
	codec := auth.NewCodec("access-secret", "refresh-secret", 15, 7)

	tok, exp, err := codec.SignRefresh(42)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), exp, 5*time.Second)

	claims, aerr := codec.ParseRefresh(tok)
	require.Nil(t, aerr)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Empty(t, claims.Email, "refresh tokens carry only the user id")
}

func TestCodecSecretsAreIndependent(t *testing.T) {
	codec := auth.NewCodec("access-secret", "refresh-secret", 15, 7)

	access, _, err := codec.SignAccess(1, "a@example.com")
	require.NoError(t, err)
	refresh, _, err := codec.SignRefresh(1)
	require.NoError(t, err)

	// An access token is not a refresh token and vice versa.
	_, aerr := codec.ParseRefresh(access)
	assert.Equal(t, auth.ErrTokenInvalid, aerr)
	_, aerr = codec.ParseAccess(refresh)
	assert.Equal(t, auth.ErrTokenInvalid, aerr)
}

func TestCodecRejectsGarbage(t *testing.T) {
	codec := auth.NewCodec("access-secret", "refresh-secret", 15, 7)

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		_, aerr := codec.ParseAccess(tok)
		assert.Equal(t, auth.ErrTokenInvalid, aerr, "token %q", tok)
	}
}

func TestCodecExpiryPrecedence(t *testing.T) {
	live := auth.NewCodec("access-secret", "refresh-secret", 15, 7)
	expired := &auth.Codec{AccessSecret: "access-secret", AccessTTL: -time.Minute}

	tok, _, err := expired.SignAccess(1, "a@example.com")
	require.NoError(t, err)

	_, aerr := live.ParseAccess(tok)
	assert.Equal(t, auth.ErrTokenExpired, aerr, "expiry is reported as its own code, not as invalid")
}
