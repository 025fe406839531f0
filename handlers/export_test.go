package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/paperfix/paperfix/backend/go-services/internal/errs"
	"github.com/paperfix/paperfix/backend/go-services/internal/export"
	"github.com/paperfix/paperfix/backend/go-services/pkg/middleware"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	to, content, title string
	err                error
}

func (f *fakeMailer) Send(ctx context.Context, recipient, content, title string) (string, error) {
	f.to, f.content, f.title = recipient, content, title
	if f.err != nil {
		return "", f.err
	}
	return "msg-42", nil
}

func newExportAPI(m Mailer) *gin.Engine {
	g := gin.New()
	g.Use(middleware.ErrorHandler())
	NewExportHandler(export.NewRenderer(), m).Register(g)
	return g
}

func TestDownload(t *testing.T) {
	g := newExportAPI(nil)

	w := post(g, "/api/download", `{"content":"Hello","title":"My Lease"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	require.Equal(t, `attachment; filename="My_Lease.pdf"`, w.Header().Get("Content-Disposition"))
	require.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	w = post(g, "/api/download", `{"content":"Hello"}`, "")
	require.Equal(t, `attachment; filename="document.pdf"`, w.Header().Get("Content-Disposition"))

	require.Equal(t, http.StatusBadRequest, post(g, "/api/download", `{"title":"x"}`, "").Code)
}

func TestEmail(t *testing.T) {
	m := &fakeMailer{}
	w := post(newExportAPI(m), "/api/email", `{"email":"a@b.c","content":"body","title":"T"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"message":"Email sent successfully","messageId":"msg-42"}`, w.Body.String())
	require.Equal(t, "a@b.c", m.to)
	require.Equal(t, "T", m.title)
}

func TestEmail_Failures(t *testing.T) {
	require.Equal(t, http.StatusServiceUnavailable, post(newExportAPI(nil), "/api/email", `{"email":"a@b.c","content":"x"}`, "").Code)

	m := &fakeMailer{}
	g := newExportAPI(m)
	require.Equal(t, http.StatusBadRequest, post(g, "/api/email", `{"content":"x"}`, "").Code)
	require.Equal(t, http.StatusBadRequest, post(g, "/api/email", `{"email":"a@b.c"}`, "").Code)

	m.err = errs.Export("failed to send email", errors.New("provider said no"))
	w := post(g, "/api/email", `{"email":"a@b.c","content":"x"}`, "")
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.JSONEq(t, `{"error":"failed to send email"}`, w.Body.String())
}
