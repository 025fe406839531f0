package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/paperfix/paperfix/backend/go-services/internal/errs"
	"github.com/paperfix/paperfix/backend/go-services/internal/llm"
	"github.com/paperfix/paperfix/backend/go-services/pkg/logger"
)

// Generator is the generation/edit service as seen by the HTTP layer.
type Generator interface {
	Generate(ctx context.Context, templateID string, answers map[string]string) (string, error)
	GenerateStream(ctx context.Context, templateID string, answers map[string]string) (llm.DeltaStream, error)
	Edit(ctx context.Context, content, instruction string) (string, error)
	EditStream(ctx context.Context, content, instruction string) (llm.DeltaStream, error)
}

type GenerationHandler struct {
	svc Generator
}

func NewGenerationHandler(svc Generator) *GenerationHandler {
	return &GenerationHandler{svc: svc}
}

// Register mounts the AI routes. mw runs before every route; main passes the
// AI rate limiter here.
func (h *GenerationHandler) Register(r gin.IRouter, mw ...gin.HandlerFunc) {
	g := r.Group("/api", mw...)
	g.POST("/generate", h.Generate)
	g.POST("/edit", h.Edit)
	g.POST("/generate-document", h.GenerateDocument)
	g.POST("/update-document", h.UpdateDocument)
}

type generateRequest struct {
	TemplateID string            `json:"templateId" binding:"required"`
	Answers    map[string]string `json:"answers"`
}

type editRequest struct {
	Content     string `json:"content" binding:"required"`
	Instruction string `json:"instruction" binding:"required"`
}

func wantsEventStream(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/event-stream")
}

// Generate answers with an SSE delta stream when the client accepts one and
// with the whole document as plain text otherwise.
func (h *GenerationHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errs.FromBinding(err))
		return
	}
	ctx := c.Request.Context()
	if wantsEventStream(c) {
		ds, err := h.svc.GenerateStream(ctx, req.TemplateID, req.Answers)
		if err != nil {
			_ = c.Error(err)
			return
		}
		writeEventStream(c, ds)
		return
	}
	text, err := h.svc.Generate(ctx, req.TemplateID, req.Answers)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

func (h *GenerationHandler) Edit(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errs.FromBinding(err))
		return
	}
	ctx := c.Request.Context()
	if wantsEventStream(c) {
		ds, err := h.svc.EditStream(ctx, req.Content, req.Instruction)
		if err != nil {
			_ = c.Error(err)
			return
		}
		writeEventStream(c, ds)
		return
	}
	text, err := h.svc.Edit(ctx, req.Content, req.Instruction)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

// GenerateDocument is the JSON form of Generate: {templateId, formData} -> {document}.
func (h *GenerationHandler) GenerateDocument(c *gin.Context) {
	var req struct {
		TemplateID string            `json:"templateId"`
		FormData   map[string]string `json:"formData"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.TemplateID == "" || req.FormData == nil {
		_ = c.Error(errs.Validation("Missing required fields"))
		return
	}
	text, err := h.svc.Generate(c.Request.Context(), req.TemplateID, req.FormData)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": text})
}

// UpdateDocument is the JSON form of Edit: {document, editRequest} -> {updatedDocument}.
func (h *GenerationHandler) UpdateDocument(c *gin.Context) {
	var req struct {
		Document    string `json:"document"`
		EditRequest string `json:"editRequest"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Document == "" || req.EditRequest == "" {
		_ = c.Error(errs.Validation("Missing required fields"))
		return
	}
	text, err := h.svc.Edit(c.Request.Context(), req.Document, req.EditRequest)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updatedDocument": text})
}

// writeEventStream relays deltas as `data: {"text":...}` events and ends with
// `data: [DONE]`. A stream that fails midway is cut off without [DONE], which
// is how clients tell a truncated document from a complete one.
func writeEventStream(c *gin.Context, ds llm.DeltaStream) {
	defer ds.Close()

	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	for {
		delta, err := ds.Next()
		if err == io.EOF {
			fmt.Fprint(c.Writer, "data: [DONE]\n\n")
			c.Writer.Flush()
			return
		}
		if err != nil {
			logger.Warnf("stream to %s aborted: %v", c.ClientIP(), err)
			return
		}
		if delta == "" {
			continue
		}
		payload, err := json.Marshal(struct {
			Text string `json:"text"`
		}{delta})
		if err != nil {
			logger.Errorf("encode delta: %v", err)
			return
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
			logger.Debugf("client went away: %v", err)
			return
		}
		c.Writer.Flush()
	}
}
