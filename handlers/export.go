package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paperfix/paperfix/backend/go-services/internal/errs"
	"github.com/paperfix/paperfix/backend/go-services/internal/export"
)

// PDFRenderer turns document text into PDF bytes.
type PDFRenderer interface {
	Render(content, title string) ([]byte, error)
}

// Mailer sends a document and returns the provider message ID.
type Mailer interface {
	Send(ctx context.Context, recipient, content, title string) (string, error)
}

type ExportHandler struct {
	renderer PDFRenderer
	mailer   Mailer
}

// NewExportHandler wires the export routes. A nil mailer turns /api/email into a 503.
func NewExportHandler(renderer PDFRenderer, mailer Mailer) *ExportHandler {
	return &ExportHandler{renderer: renderer, mailer: mailer}
}

func (h *ExportHandler) Register(r gin.IRouter) {
	r.POST("/api/download", h.Download)
	r.POST("/api/email", h.Email)
}

type downloadRequest struct {
	Content string `json:"content"`
	Title   string `json:"title"`
}

func (h *ExportHandler) Download(c *gin.Context) {
	var req downloadRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == "" {
		_ = c.Error(errs.Validation("Missing required fields"))
		return
	}
	data, err := h.renderer.Render(req.Content, req.Title)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(req.Title)))
	c.Data(http.StatusOK, "application/pdf", data)
}

type emailRequest struct {
	Email   string `json:"email"`
	Content string `json:"content"`
	Title   string `json:"title"`
}

func (h *ExportHandler) Email(c *gin.Context) {
	if h.mailer == nil {
		_ = c.Error(errs.Unavailable("email delivery is not configured"))
		return
	}
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Content == "" {
		_ = c.Error(errs.Validation("Missing required fields"))
		return
	}
	id, err := h.mailer.Send(c.Request.Context(), req.Email, req.Content, req.Title)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email sent successfully", "messageId": id})
}
