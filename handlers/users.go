package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paperfix/paperfix/backend/go-services/internal/errs"
	"github.com/paperfix/paperfix/backend/go-services/internal/models"
	"github.com/paperfix/paperfix/backend/go-services/internal/session"
)

// ProfileStore records the signed-in user and looks profiles up by subject.
type ProfileStore interface {
	UpsertFromSession(ctx context.Context, s session.Session) (*models.User, error)
	GetProfile(ctx context.Context, sub string) (*models.User, error)
}

// publicProfile is what other signed-in users may see; email stays private.
type publicProfile struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// RegisterMe mounts GET /api/v1/me and GET /api/v1/users/:id. The router must
// run the auth middleware.
func RegisterMe(r gin.IRouter, profiles ProfileStore) {
	r.GET("/api/v1/me", func(c *gin.Context) {
		s, ok := session.From(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		u, err := profiles.UpsertFromSession(c.Request.Context(), s)
		if err != nil {
			_ = c.Error(errs.Persistence("failed to save profile", err))
			return
		}
		c.JSON(http.StatusOK, u)
	})

	r.GET("/api/v1/users/:id", func(c *gin.Context) {
		if _, ok := session.From(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		u, err := profiles.GetProfile(c.Request.Context(), c.Param("id"))
		if err != nil {
			_ = c.Error(errs.Persistence("failed to load profile", err))
			return
		}
		if u == nil {
			_ = c.Error(errs.NotFound("user not found"))
			return
		}
		c.JSON(http.StatusOK, publicProfile{ID: u.Sub, Name: u.Name, AvatarURL: u.AvatarURL})
	})
}
