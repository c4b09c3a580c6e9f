package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// Token signs an HS256 access token shaped like the ones the auth service
// issues.
func Token(t *testing.T, secret, userID, rol string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id":  userID,
		"username": "test-" + rol,
		"rol":      rol,
		"exp":      time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}
