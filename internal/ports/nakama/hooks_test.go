package nakama

import (
	"context"
	"testing"

	jwt "github.com/form3tech-oss/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractUserIDFromToken(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"uid": "user-42", "usn": "someone"}).SignedString([]byte("server-key"))
	require.NoError(t, err)

	uid, err := extractUserIDFromToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-42", uid)

	noUID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"usn": "someone"}).SignedString([]byte("server-key"))
	require.NoError(t, err)
	_, err = extractUserIDFromToken(noUID)
	assert.Error(t, err)

	_, err = extractUserIDFromToken("not-a-token")
	assert.Error(t, err)
}

func TestAccountAdapterMarksHumans(t *testing.T) {
	nk := &mockAccounts{}
	adapter := NewNakamaAccountAdapter(nk)

	require.NoError(t, adapter.UpdateProfile(context.Background(), "user-1", "LuckyPeg12", "LuckyPeg12"))
	assert.Equal(t, "user-1", nk.userID)
	assert.Equal(t, "LuckyPeg12", nk.username)
	assert.Equal(t, "LuckyPeg12", nk.displayName)
	assert.Equal(t, false, nk.metadata["is_bot"])
}
