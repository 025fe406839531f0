package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paperfix/paperfix/backend/go-services/pkg/logger"
	"github.com/paperfix/paperfix/backend/go-services/pkg/metrics"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel   = "gemini-2.0-flash"

	maxLineSize = 1 << 20
)

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	// Timeout bounds blocking calls; streams are bounded by the caller's context.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Gemini talks to the Google Generative Language REST API.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	timeout time.Duration
	client  *http.Client
}

func NewGemini(cfg GeminiConfig) *Gemini {
	g := &Gemini{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		client:  cfg.HTTPClient,
	}
	if g.model == "" {
		g.model = DefaultGeminiModel
	}
	if g.baseURL == "" {
		g.baseURL = DefaultGeminiBaseURL
	}
	if g.client == nil {
		g.client = &http.Client{}
	}
	return g
}

func (g *Gemini) Name() string { return "gemini:" + g.model }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// text returns the concatenated parts of the first candidate.
func (r *geminiResponse) text() (string, error) {
	if len(r.Candidates) == 0 {
		return "", ErrNoCandidates
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}

func (g *Gemini) body(req Request) ([]byte, error) {
	gr := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}}},
	}
	if req.System != "" {
		gr.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	if req.Options != (Options{}) {
		gr.GenerationConfig = &geminiGenerationConfig{
			Temperature:     req.Options.Temperature,
			TopP:            req.Options.TopP,
			TopK:            req.Options.TopK,
			MaxOutputTokens: req.Options.MaxOutputTokens,
		}
	}
	return json.Marshal(gr)
}

func (g *Gemini) post(ctx context.Context, method string, query url.Values, req Request) (*http.Response, error) {
	payload, err := g.body(req)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/models/%s:%s", g.baseURL, url.PathEscape(g.model), method)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, ErrNoBody
	}
	return resp, nil
}

func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	resp, err := g.post(ctx, "generateContent", nil, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("decode provider response: %w", err)
	}
	text, err := gr.text()
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrEmptyText
	}
	return text, nil
}

func (g *Gemini) Stream(ctx context.Context, req Request) (DeltaStream, error) {
	resp, err := g.post(ctx, "streamGenerateContent", url.Values{"alt": {"sse"}}, req)
	if err != nil {
		return nil, err
	}
	return newLineStream(resp.Body), nil
}

// lineStream decodes one JSON response object per line. Lines may carry an SSE
// "data:" prefix or JSON-array punctuation; both are stripped.
type lineStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func newLineStream(body io.ReadCloser) *lineStream {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &lineStream{body: body, scanner: sc}
}

func (s *lineStream) Next() (string, error) {
	for s.scanner.Scan() {
		if text, ok := decodeLine(s.scanner.Bytes()); ok {
			return text, nil
		}
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *lineStream) Close() error { return s.body.Close() }

func decodeLine(raw []byte) (string, bool) {
	line := strings.TrimSpace(string(raw))
	line = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	line = strings.TrimPrefix(line, "[")
	line = strings.TrimPrefix(line, ",")
	line = strings.TrimSuffix(line, "]")
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	var chunk geminiResponse
	if err := json.Unmarshal([]byte(line), &chunk); err != nil {
		metrics.LLMChunkParseErrors.Inc()
		logger.Warnf("llm: skipping unparsable stream line: %v", err)
		return "", false
	}
	text, err := chunk.text()
	if err != nil || text == "" {
		return "", false
	}
	return text, true
}
