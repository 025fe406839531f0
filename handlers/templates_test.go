package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/paperfix/paperfix/backend/go-services/internal/models"
	"github.com/paperfix/paperfix/backend/go-services/internal/session"
	"github.com/paperfix/paperfix/backend/go-services/internal/templates"
	"github.com/paperfix/paperfix/backend/go-services/pkg/middleware"
	"github.com/stretchr/testify/require"
)

func get(g *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestTemplateRoutes(t *testing.T) {
	g := gin.New()
	g.Use(middleware.ErrorHandler())
	RegisterTemplates(g)

	var list struct {
		Templates []templates.Summary `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(get(g, "/api/templates").Body.Bytes(), &list))
	require.Len(t, list.Templates, 3)

	require.NoError(t, json.Unmarshal(get(g, "/api/templates?category=legal").Body.Bytes(), &list))
	require.Len(t, list.Templates, 2)

	w := get(g, "/api/templates/nda")
	require.Equal(t, http.StatusOK, w.Code)
	var tpl templates.Template
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tpl))
	require.Equal(t, "nda", tpl.ID)
	require.NotEmpty(t, tpl.Questions)

	require.Equal(t, http.StatusNotFound, get(g, "/api/templates/lease").Code)

	w = get(g, "/api/templates/categories")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "miscellaneous")
}

func TestHealthAndReady(t *testing.T) {
	failing := false
	g := gin.New()
	RegisterHealth(g, map[string]Check{
		"mongo": func(ctx context.Context) error { return nil },
		"redis": func(ctx context.Context) error {
			if failing {
				return errors.New("connection refused")
			}
			return nil
		},
	})

	w := get(g, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "healthy", w.Body.String())

	w = get(g, "/ready")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"ready"`)

	failing = true
	w = get(g, "/ready")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body struct {
		Status string            `json:"status"`
		Deps   map[string]string `json:"deps"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "not_ready", body.Status)
	require.Equal(t, "ok", body.Deps["mongo"])
	require.Equal(t, "connection refused", body.Deps["redis"])
}

type fakeProfiles struct {
	err error
}

func (f *fakeProfiles) UpsertFromSession(ctx context.Context, s session.Session) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{Sub: s.UserID, Email: s.Email, Provider: s.Provider}, nil
}

func (f *fakeProfiles) GetProfile(ctx context.Context, sub string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if sub != "bob" {
		return nil, nil
	}
	return &models.User{Sub: "bob", Email: "bob@example.com", Name: "Bob", AvatarURL: "https://img/bob.png"}, nil
}

func TestMe(t *testing.T) {
	newMe := func(p ProfileStore, s *session.Session) *gin.Engine {
		g := gin.New()
		g.Use(middleware.ErrorHandler())
		g.Use(func(c *gin.Context) {
			if s != nil {
				session.Set(c, *s)
			}
		})
		RegisterMe(g, p)
		return g
	}
	alice := session.Session{UserID: "alice", Email: "alice@example.com", Provider: "oidc"}

	w := get(newMe(&fakeProfiles{}, &alice), "/api/v1/me")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"id":"alice"`)

	require.Equal(t, http.StatusUnauthorized, get(newMe(&fakeProfiles{}, nil), "/api/v1/me").Code)
	require.Equal(t, http.StatusInternalServerError, get(newMe(&fakeProfiles{err: errors.New("db")}, &alice), "/api/v1/me").Code)

	w = get(newMe(&fakeProfiles{}, &alice), "/api/v1/users/bob")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"id":"bob","name":"Bob","avatarUrl":"https://img/bob.png"}`, w.Body.String())
	require.Equal(t, http.StatusNotFound, get(newMe(&fakeProfiles{}, &alice), "/api/v1/users/carol").Code)
	require.Equal(t, http.StatusUnauthorized, get(newMe(&fakeProfiles{}, nil), "/api/v1/users/bob").Code)
	require.Equal(t, http.StatusInternalServerError, get(newMe(&fakeProfiles{err: errors.New("db")}, &alice), "/api/v1/users/bob").Code)
}
