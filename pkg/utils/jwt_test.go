package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	SetSecret("test-secret")

	token, err := GenerateJWT("u1", "ops@example.com", "admin", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	claims, err := ExtractClaims(req)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestExtractClaims_Rejects(t *testing.T) {
	SetSecret("test-secret")

	expired, err := GenerateJWT("u1", "", "admin", -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err = ExtractClaims(req)
	assert.Error(t, err)

	req.AddCookie(&http.Cookie{Name: "accessToken", Value: expired})
	_, err = ExtractClaims(req)
	assert.Error(t, err)

	SetSecret("other-secret")
	valid, _ := GenerateJWT("u1", "", "admin", time.Minute)
	SetSecret("test-secret")
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+valid)
	_, err = ExtractClaims(req)
	assert.Error(t, err)
}
