// Package session carries the authenticated caller through request handling
// as an explicit value instead of ambient global state.
package session

import (
	"github.com/gin-gonic/gin"
)

const ginKey = "session"

// Session identifies the caller a request acts on behalf of.
type Session struct {
	UserID    string `json:"id"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Provider  string `json:"provider,omitempty"`
}

func (s Session) Authenticated() bool { return s.UserID != "" }

// FromClaims builds a session from verified token claims. ok is false when
// the claims carry no subject.
func FromClaims(claims map[string]interface{}) (Session, bool) {
	str := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := claims[k].(string); ok && v != "" {
				return v
			}
		}
		return ""
	}
	s := Session{
		UserID:    str("sub"),
		Email:     str("email"),
		Name:      str("name", "preferred_username"),
		AvatarURL: str("picture", "avatar_url"),
		Provider:  str("provider", "identity_provider"),
	}
	if s.Provider == "" {
		s.Provider = "oidc"
	}
	return s, s.Authenticated()
}

// Set stores the session on the gin context.
func Set(c *gin.Context, s Session) { c.Set(ginKey, s) }

// From returns the session stored by the auth middleware.
func From(c *gin.Context) (Session, bool) {
	v, ok := c.Get(ginKey)
	if !ok {
		return Session{}, false
	}
	s, ok := v.(Session)
	return s, ok && s.Authenticated()
}
