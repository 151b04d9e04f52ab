// ABOUTME: Tests for LiveKit token minting and claim contents
// ABOUTME: Round-trips tokens through Verify and raw jwt parsing

package livekit

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMint_RoundTrip(t *testing.T) {
	minter := NewTokenMinter("api-key", "api-secret", time.Hour)

	token, err := minter.Mint("alice", "general")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, room, err := minter.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity)
	assert.Equal(t, "general", room)
}

func TestMint_Claims(t *testing.T) {
	minter := NewTokenMinter("api-key", "api-secret", 30*time.Minute)

	token, err := minter.Mint("alice", "general")
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte("api-secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)

	assert.Equal(t, "api-key", claims["iss"])
	assert.Equal(t, "alice", claims["sub"])
	assert.Equal(t, "alice", claims["name"])

	grant := claims["video"].(map[string]interface{})
	assert.Equal(t, true, grant["roomJoin"])
	assert.Equal(t, "general", grant["room"])
	assert.Equal(t, false, grant["canPublish"], "chat users do not publish media")
	assert.Equal(t, true, grant["canSubscribe"])
	assert.Equal(t, true, grant["canPublishData"])

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), exp.Time, 5*time.Second)
}

func TestMintAgent_CanPublish(t *testing.T) {
	minter := NewTokenMinter("api-key", "api-secret", time.Hour)

	token, err := minter.MintAgent("ai-assistant", "general")
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte("api-secret"), nil
	})
	require.NoError(t, err)
	grant := parsed.Claims.(jwt.MapClaims)["video"].(map[string]interface{})
	assert.Equal(t, true, grant["canPublish"])
}

func TestMint_Validation(t *testing.T) {
	minter := NewTokenMinter("api-key", "api-secret", time.Hour)

	_, err := minter.Mint("", "general")
	assert.ErrorIs(t, err, ErrEmptyIdentity)

	_, err = minter.Mint("alice", "")
	assert.ErrorIs(t, err, ErrEmptyRoom)
}

func TestMint_NotConfigured(t *testing.T) {
	minter := NewTokenMinter("", "", time.Hour)

	assert.False(t, minter.Configured())
	_, err := minter.Mint("alice", "general")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestVerify_WrongSecret(t *testing.T) {
	minter := NewTokenMinter("api-key", "api-secret", time.Hour)
	other := NewTokenMinter("api-key", "different-secret", time.Hour)

	token, err := minter.Mint("alice", "general")
	require.NoError(t, err)

	_, _, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
