// Package client is a Go client for the paperfix HTTP API, plus the client-side
// editing session that drives questionnaire, generation, editing and auto-save.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/paperfix/paperfix/backend/go-services/internal/document"
	"github.com/paperfix/paperfix/backend/go-services/internal/models"
	"github.com/paperfix/paperfix/backend/go-services/internal/templates"
)

// ErrEmptyEdit is returned when an edit comes back blank; the caller keeps
// the previous content.
var ErrEmptyEdit = errors.New("received empty response from AI service")

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// DocumentInput is the body for creating documents and drafts.
type DocumentInput struct {
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	TemplateID string            `json:"templateId"`
	Answers    map[string]string `json:"answers,omitempty"`
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithToken sends the bearer token on every request.
func WithToken(token string) Option { return func(c *Client) { c.token = token } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// do sends the request and returns the response when it is 2xx. Otherwise
// the body is consumed into an APIError.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, in)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) doText(ctx context.Context, path string, in interface{}) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, in)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/plain")
	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	return string(b), err
}

func (c *Client) openStream(ctx context.Context, path string, in interface{}) (*Stream, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, in)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return NewStream(resp.Body), nil
}

func (c *Client) Templates(ctx context.Context, category string) ([]templates.Summary, error) {
	path := "/api/templates"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var out struct {
		Templates []templates.Summary `json:"templates"`
	}
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out.Templates, err
}

func (c *Client) Template(ctx context.Context, id string) (*templates.Template, error) {
	var t templates.Template
	if err := c.doJSON(ctx, http.MethodGet, "/api/templates/"+url.PathEscape(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

type generateBody struct {
	TemplateID string            `json:"templateId"`
	Answers    map[string]string `json:"answers"`
}

type editBody struct {
	Content     string `json:"content"`
	Instruction string `json:"instruction"`
}

// Generate waits for the complete document.
func (c *Client) Generate(ctx context.Context, templateID string, answers map[string]string) (string, error) {
	return c.doText(ctx, "/api/generate", generateBody{templateID, answers})
}

// GenerateStream returns the document as it is produced.
func (c *Client) GenerateStream(ctx context.Context, templateID string, answers map[string]string) (*Stream, error) {
	return c.openStream(ctx, "/api/generate", generateBody{templateID, answers})
}

// Edit returns the edited document. A blank result is ErrEmptyEdit.
func (c *Client) Edit(ctx context.Context, content, instruction string) (string, error) {
	text, err := c.doText(ctx, "/api/edit", editBody{content, instruction})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyEdit
	}
	return text, nil
}

func (c *Client) EditStream(ctx context.Context, content, instruction string) (*Stream, error) {
	return c.openStream(ctx, "/api/edit", editBody{content, instruction})
}

// DownloadPDF returns the rendered PDF bytes.
func (c *Client) DownloadPDF(ctx context.Context, content, title string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/download", map[string]string{"content": content, "title": title})
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// Email sends the document as a PDF attachment and returns the message ID.
func (c *Client) Email(ctx context.Context, recipient, content, title string) (string, error) {
	var out struct {
		MessageID string `json:"messageId"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/email", map[string]string{"email": recipient, "content": content, "title": title}, &out)
	return out.MessageID, err
}

func (c *Client) CreateDocument(ctx context.Context, in DocumentInput) (*document.Document, error) {
	var d document.Document
	if err := c.doJSON(ctx, http.MethodPost, "/api/documents", in, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) CreateDraft(ctx context.Context, in DocumentInput) (*document.Document, error) {
	var d document.Document
	if err := c.doJSON(ctx, http.MethodPost, "/api/drafts", in, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

type documentList struct {
	Documents []*document.Document `json:"documents"`
}

func (c *Client) Documents(ctx context.Context, includeDrafts bool) ([]*document.Document, error) {
	var out documentList
	err := c.doJSON(ctx, http.MethodGet, "/api/documents?includeDrafts="+strconv.FormatBool(includeDrafts), nil, &out)
	return out.Documents, err
}

// Drafts lists the caller's drafts, limited to one template when templateID is set.
func (c *Client) Drafts(ctx context.Context, templateID string) ([]*document.Document, error) {
	path := "/api/drafts"
	if templateID != "" {
		path += "?templateId=" + url.QueryEscape(templateID)
	}
	var out documentList
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out.Documents, err
}

func (c *Client) Document(ctx context.Context, id string) (*document.Document, error) {
	var d document.Document
	if err := c.doJSON(ctx, http.MethodGet, "/api/documents/"+url.PathEscape(id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) UpdateDocument(ctx context.Context, id string, title, content *string) (*document.Document, error) {
	body := map[string]*string{"title": title, "content": content}
	var d document.Document
	if err := c.doJSON(ctx, http.MethodPatch, "/api/documents/"+url.PathEscape(id), body, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) SaveProgress(ctx context.Context, id, content string, title *string) error {
	body := struct {
		Content string  `json:"content"`
		Title   *string `json:"title,omitempty"`
	}{content, title}
	return c.doJSON(ctx, http.MethodPut, "/api/documents/"+url.PathEscape(id)+"/progress", body, nil)
}

func (c *Client) Finalize(ctx context.Context, id string, title *string) (*document.Document, error) {
	body := struct {
		Title *string `json:"title,omitempty"`
	}{title}
	var d document.Document
	if err := c.doJSON(ctx, http.MethodPost, "/api/documents/"+url.PathEscape(id)+"/finalize", body, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/documents/"+url.PathEscape(id), nil, nil)
}

// Archive stores a PDF snapshot server-side and returns a time-limited download URL.
func (c *Client) Archive(ctx context.Context, id string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/documents/"+url.PathEscape(id)+"/archive", nil, &out)
	return out.URL, err
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Profile returns another user's public profile. Only Sub, Name and AvatarURL are set.
func (c *Client) Profile(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/users/"+url.PathEscape(id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
