package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/paperfix/paperfix/backend/go-services/internal/errs"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", errs.Validation("content is required"), http.StatusBadRequest, "content is required"},
		{"not found", errs.NotFound("template not found"), http.StatusNotFound, "template not found"},
		{"generation", errs.Generation("AI provider request failed", errors.New("status 500")), http.StatusBadGateway, "AI provider request failed"},
		{"unavailable", errs.Unavailable("email delivery is not configured"), http.StatusServiceUnavailable, "email delivery is not configured"},
		{"foreign", fmt.Errorf("boom"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := gin.New()
			g.Use(ErrorHandler())
			g.GET("/", func(c *gin.Context) { _ = c.Error(tc.err) })

			w := httptest.NewRecorder()
			g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, tc.status, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.Equal(t, tc.msg, body["error"])
		})
	}
}

func TestErrorHandler_LeavesWrittenResponses(t *testing.T) {
	g := gin.New()
	g.Use(ErrorHandler())
	g.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		_ = c.Error(errs.Generation("stream interrupted", nil))
	})

	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "partial", w.Body.String())
}
