package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/paperfix/paperfix/backend/go-services/internal/document"
	"github.com/paperfix/paperfix/backend/go-services/internal/document/service"
	"github.com/paperfix/paperfix/backend/go-services/internal/errs"
	"github.com/paperfix/paperfix/backend/go-services/internal/session"
)

// Archiver stores a rendered copy of a document and returns a download URL.
type Archiver interface {
	Archive(ctx context.Context, d *document.Document) (string, error)
}

type createRequest struct {
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	TemplateID string            `json:"templateId" binding:"required"`
	Answers    map[string]string `json:"answers"`
}

type updateRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type progressRequest struct {
	Content *string `json:"content" binding:"required"`
	Title   *string `json:"title"`
}

type finalizeRequest struct {
	Title *string `json:"title"`
}

type handler struct {
	svc      service.Service
	archiver Archiver
}

// RegisterDocumentRoutes mounts the document lifecycle routes. The router is
// expected to run the auth middleware; every route acts on the caller's own documents.
func RegisterDocumentRoutes(r gin.IRouter, svc service.Service, archiver Archiver) {
	h := &handler{svc: svc, archiver: archiver}

	docs := r.Group("/api/documents")
	docs.POST("", h.create)
	docs.GET("", h.list)
	docs.GET("/:id", h.get)
	docs.PATCH("/:id", h.update)
	docs.PUT("/:id/progress", h.saveProgress)
	docs.POST("/:id/finalize", h.finalize)
	docs.POST("/:id/archive", h.archive)
	docs.DELETE("/:id", h.delete)

	drafts := r.Group("/api/drafts")
	drafts.POST("", h.createDraft)
	drafts.GET("", h.listDrafts)
}

func caller(c *gin.Context) (session.Session, bool) {
	s, ok := session.From(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
	return s, ok
}

// owned loads the document and hides documents of other users behind a 404.
func (h *handler) owned(c *gin.Context, s session.Session) (*document.Document, bool) {
	d := h.svc.GetDocument(c.Request.Context(), c.Param("id"))
	if d == nil || d.Owner != s.UserID {
		_ = c.Error(errs.NotFound("document not found"))
		return nil, false
	}
	return d, true
}

func (h *handler) create(c *gin.Context) {
	s, ok := caller(c)
	if !ok {
		return
	}
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errs.FromBinding(err))
		return
	}
	d := h.svc.CreateDocument(c.Request.Context(), s, service.NewDocument{
		Title: req.Title, Content: req.Content, TemplateID: req.TemplateID, Answers: req.Answers,
	})
	if d == nil {
		_ = c.Error(errs.Persistence("failed to save document", nil))
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *handler) createDraft(c *gin.Context) {
	s, ok := caller(c)
	if !ok {
		return
	}
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errs.FromBinding(err))
		return
	}
	d := h.svc.CreateDraftDocument(c.Request.Context(), s, service.NewDocument{
		Title: req.Title, Content: req.Content, TemplateID: req.TemplateID, Answers: req.Answers,
	})
	if d == nil {
		_ = c.Error(errs.Persistence("failed to save draft", nil))
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *handler) list(c *gin.Context) {
	s, ok := caller(c)
	if !ok {
		return
	}
	includeDrafts, _ := strconv.ParseBool(c.Query("includeDrafts"))
	c.JSON(http.StatusOK, gin.H{"documents": h.svc.GetDocumentsByUser(c.Request.Context(), s, includeDrafts)})
}

func (h *handler) listDrafts(c *gin.Context) {
	s, ok := caller(c)
	if !ok {
		return
	}
	var drafts []*document.Document
	if tpl := c.Query("templateId"); tpl != "" {
		drafts = h.svc.GetDraftsByTemplateID(c.Request.Context(), s, tpl)
	} else {
		drafts = h.svc.GetDraftDocuments(c.Request.Context(), s)
	}
	c.JSON(http.StatusOK, gin.H{"documents": drafts})
}

func (h *handler) get(c *gin.Context) {
	s, ok := caller(c)
	if !ok {
		return
	}
	if d, ok := h.owned(c, s); ok {
		c.JSON(http.StatusOK, d)
	}
}

func (h *handler) update(c *gin.Context) {
	s, ok := caller(c)
	if !ok {
		return
	}
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errs.FromBinding(err))
		return
	}
	if req.Title == nil && req.Content == nil {
		_ = c.Error(errs.Validation("nothing to update"))
		return
	}
	if _, ok := h.owned(c, s); !ok {
		return
	}
	d := h.svc.UpdateDocument(c.Request.Context(), c.Param("id"), service.Fields{Title: req.Title, Content: req.Content})
	if d == nil {
		_ = c.Error(errs.Persistence("failed to update document", nil))
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *handler) saveProgress(c *gin.Context) {
	s, ok := caller(c)
	if !ok {
		return
	}
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errs.FromBinding(err))
		return
	}
	if _, ok := h.owned(c, s); !ok {
		return
	}
	if !h.svc.SaveDocumentProgress(c.Request.Context(), c.Param("id"), *req.Content, req.Title) {
		_ = c.Error(errs.Persistence("failed to save progress", nil))
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true})
}

func (h *handler) finalize(c *gin.Context) {
	s, ok := caller(c)
	if !ok {
		return
	}
	var req finalizeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errs.FromBinding(err))
			return
		}
	}
	if _, ok := h.owned(c, s); !ok {
		return
	}
	d := h.svc.FinalizeDraftDocument(c.Request.Context(), c.Param("id"), req.Title)
	if d == nil {
		_ = c.Error(errs.Persistence("failed to finalize document", nil))
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *handler) delete(c *gin.Context) {
	s, ok := caller(c)
	if !ok {
		return
	}
	if _, ok := h.owned(c, s); !ok {
		return
	}
	if !h.svc.DeleteDocument(c.Request.Context(), c.Param("id")) {
		_ = c.Error(errs.Persistence("failed to delete document", nil))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) archive(c *gin.Context) {
	s, ok := caller(c)
	if !ok {
		return
	}
	if h.archiver == nil {
		_ = c.Error(errs.Unavailable("document archive is not configured"))
		return
	}
	d, ok := h.owned(c, s)
	if !ok {
		return
	}
	url, err := h.archiver.Archive(c.Request.Context(), d)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
