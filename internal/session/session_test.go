package session

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestFromClaims(t *testing.T) {
	s, ok := FromClaims(map[string]interface{}{
		"sub":                "user-1",
		"email":              "a@example.com",
		"preferred_username": "alice",
		"picture":            "https://img/x.png",
	})
	require.True(t, ok)
	require.Equal(t, "user-1", s.UserID)
	require.Equal(t, "alice", s.Name)
	require.Equal(t, "https://img/x.png", s.AvatarURL)
	require.Equal(t, "oidc", s.Provider)

	_, ok = FromClaims(map[string]interface{}{"email": "x@example.com"})
	require.False(t, ok)
}

func TestSetAndFrom(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := From(c)
	require.False(t, ok)

	Set(c, Session{UserID: "u"})
	s, ok := From(c)
	require.True(t, ok)
	require.Equal(t, "u", s.UserID)
}
