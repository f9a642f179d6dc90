package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestServerTokenRoundTrip(t *testing.T) {
	token, err := GenerateServerToken("petrel", "secret", time.Hour)
	require.NoError(t, err)

	name, err := ParseServerToken(token, "secret")
	require.NoError(t, err)
	require.Equal(t, "petrel", name)
}

func TestParseServerTokenWrongSecret(t *testing.T) {
	token, err := GenerateServerToken("petrel", "secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseServerToken(token, "other-secret")
	require.Error(t, err)
}

func TestParseServerTokenExpired(t *testing.T) {
	token, err := GenerateServerToken("petrel", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseServerToken(token, "secret")
	require.Error(t, err)
}

func TestParseServerTokenRejectsGarbage(t *testing.T) {
	_, err := ParseServerToken("not-a-token", "secret")
	require.Error(t, err)
}

func TestHashTokenIsStableAndOpaque(t *testing.T) {
	first := HashToken("session-token")
	require.Equal(t, first, HashToken("session-token"))
	require.NotEqual(t, first, HashToken("other-token"))
	require.NotContains(t, first, "session")
	require.Len(t, first, 64)
}
