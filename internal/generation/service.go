// Package generation builds prompts for document generation and edits and
// relays them to the configured LLM provider, blocking or streaming.
package generation

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/paperfix/paperfix/backend/go-services/internal/errs"
	"github.com/paperfix/paperfix/backend/go-services/internal/llm"
	"github.com/paperfix/paperfix/backend/go-services/internal/templates"
	"github.com/paperfix/paperfix/backend/go-services/pkg/logger"
	"github.com/paperfix/paperfix/backend/go-services/pkg/metrics"
)

const (
	opGenerate = "generate"
	opEdit     = "edit"

	modeBlocking = "blocking"
	modeStream   = "stream"
)

// Service is stateless; every call is independent and nothing is retried.
type Service struct {
	provider     llm.Provider
	generateOpts llm.Options
	editOpts     llm.Options
}

// NewService uses opts for generation; edits only carry the temperature.
func NewService(p llm.Provider, opts llm.Options) *Service {
	return &Service{
		provider:     p,
		generateOpts: opts,
		editOpts:     llm.Options{Temperature: opts.Temperature},
	}
}

func (s *Service) Provider() string { return s.provider.Name() }

func (s *Service) generateRequest(templateID string, answers map[string]string) (llm.Request, error) {
	t, ok := templates.Get(templateID)
	if !ok {
		return llm.Request{}, errs.NotFound("template not found")
	}
	return llm.Request{Prompt: GeneratePrompt(t, answers), Options: s.generateOpts}, nil
}

func (s *Service) editRequest(content, instruction string) (llm.Request, error) {
	if strings.TrimSpace(content) == "" || strings.TrimSpace(instruction) == "" {
		return llm.Request{}, errs.Validation("content and instruction are required")
	}
	return llm.Request{
		System:  editSystemInstruction,
		Prompt:  EditPrompt(content, instruction),
		Options: s.editOpts,
	}, nil
}

// Generate returns the full generated document for a template and answers.
func (s *Service) Generate(ctx context.Context, templateID string, answers map[string]string) (string, error) {
	req, err := s.generateRequest(templateID, answers)
	if err != nil {
		return "", err
	}
	return s.complete(ctx, opGenerate, req)
}

// GenerateStream opens a delta stream for a generation.
func (s *Service) GenerateStream(ctx context.Context, templateID string, answers map[string]string) (llm.DeltaStream, error) {
	req, err := s.generateRequest(templateID, answers)
	if err != nil {
		return nil, err
	}
	return s.stream(ctx, opGenerate, req)
}

// Edit returns the complete replacement document. An empty or whitespace-only
// answer is a failure: an edit must never erase the document.
func (s *Service) Edit(ctx context.Context, content, instruction string) (string, error) {
	req, err := s.editRequest(content, instruction)
	if err != nil {
		return "", err
	}
	text, err := s.complete(ctx, opEdit, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errs.Generation("empty response from AI service", nil)
	}
	return text, nil
}

// EditStream opens a delta stream for an edit.
func (s *Service) EditStream(ctx context.Context, content, instruction string) (llm.DeltaStream, error) {
	req, err := s.editRequest(content, instruction)
	if err != nil {
		return nil, err
	}
	return s.stream(ctx, opEdit, req)
}

func (s *Service) complete(ctx context.Context, op string, req llm.Request) (string, error) {
	start := time.Now()
	text, err := s.provider.Complete(ctx, req)
	metrics.LLMDuration.WithLabelValues(op, modeBlocking).Observe(time.Since(start).Seconds())
	metrics.LLMRequests.WithLabelValues(op, modeBlocking, metrics.Outcome(err)).Inc()
	if err != nil {
		logger.Errorf("%s: provider %s failed: %v", op, s.provider.Name(), err)
		return "", errs.Generation("failed to "+op+" document", err)
	}
	return text, nil
}

func (s *Service) stream(ctx context.Context, op string, req llm.Request) (llm.DeltaStream, error) {
	start := time.Now()
	ds, err := s.provider.Stream(ctx, req)
	metrics.LLMDuration.WithLabelValues(op, modeStream).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequests.WithLabelValues(op, modeStream, "error").Inc()
		logger.Errorf("%s: provider %s stream failed: %v", op, s.provider.Name(), err)
		return nil, errs.Generation("failed to "+op+" document", err)
	}
	return &countingStream{DeltaStream: ds, op: op}, nil
}

// countingStream records chunk and outcome metrics as the caller drains it.
type countingStream struct {
	llm.DeltaStream
	op   string
	done bool
}

func (c *countingStream) Next() (string, error) {
	d, err := c.DeltaStream.Next()
	switch {
	case err == nil:
		metrics.LLMStreamChunks.WithLabelValues(c.op).Inc()
	case !c.done:
		c.done = true
		outcome := "ok"
		if err != io.EOF {
			outcome = "error"
			logger.Warnf("%s: stream ended early: %v", c.op, err)
		}
		metrics.LLMRequests.WithLabelValues(c.op, modeStream, outcome).Inc()
	}
	return d, err
}
