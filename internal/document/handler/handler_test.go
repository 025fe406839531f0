package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/paperfix/paperfix/backend/go-services/internal/document"
	"github.com/paperfix/paperfix/backend/go-services/internal/document/service"
	"github.com/paperfix/paperfix/backend/go-services/internal/errs"
	"github.com/paperfix/paperfix/backend/go-services/internal/session"
	"github.com/paperfix/paperfix/backend/go-services/pkg/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CreateDocument(ctx context.Context, s session.Session, in service.NewDocument) *document.Document {
	args := m.Called(s, in)
	d, _ := args.Get(0).(*document.Document)
	return d
}

func (m *MockService) CreateDraftDocument(ctx context.Context, s session.Session, in service.NewDocument) *document.Document {
	args := m.Called(s, in)
	d, _ := args.Get(0).(*document.Document)
	return d
}

func (m *MockService) SaveDocumentProgress(ctx context.Context, id, content string, title *string) bool {
	return m.Called(id, content, title).Bool(0)
}

func (m *MockService) FinalizeDraftDocument(ctx context.Context, id string, title *string) *document.Document {
	d, _ := m.Called(id, title).Get(0).(*document.Document)
	return d
}

func (m *MockService) GetDraftsByTemplateID(ctx context.Context, s session.Session, templateID string) []*document.Document {
	return m.Called(s, templateID).Get(0).([]*document.Document)
}

func (m *MockService) GetDocumentsByUser(ctx context.Context, s session.Session, includeDrafts bool) []*document.Document {
	return m.Called(s, includeDrafts).Get(0).([]*document.Document)
}

func (m *MockService) GetDraftDocuments(ctx context.Context, s session.Session) []*document.Document {
	return m.Called(s).Get(0).([]*document.Document)
}

func (m *MockService) GetDocument(ctx context.Context, id string) *document.Document {
	d, _ := m.Called(id).Get(0).(*document.Document)
	return d
}

func (m *MockService) UpdateDocument(ctx context.Context, id string, f service.Fields) *document.Document {
	d, _ := m.Called(id, f).Get(0).(*document.Document)
	return d
}

func (m *MockService) DeleteDocument(ctx context.Context, id string) bool {
	return m.Called(id).Bool(0)
}

type fakeArchiver struct {
	url string
	err error
}

func (f *fakeArchiver) Archive(ctx context.Context, d *document.Document) (string, error) {
	return f.url + d.ID, f.err
}

var alice = session.Session{UserID: "alice"}

func newRouter(svc service.Service, arch Archiver, s *session.Session) *gin.Engine {
	g := gin.New()
	g.Use(middleware.ErrorHandler())
	g.Use(func(c *gin.Context) {
		if s != nil {
			session.Set(c, *s)
		}
		c.Next()
	})
	RegisterDocumentRoutes(g, svc, arch)
	return g
}

func do(g *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func TestCreateDocument(t *testing.T) {
	svc := new(MockService)
	in := service.NewDocument{Title: "NDA", Content: "text", TemplateID: "nda", Answers: map[string]string{"companyName": "Acme"}}
	svc.On("CreateDocument", alice, in).Return(&document.Document{ID: "d1", Owner: "alice", Title: "NDA"})

	g := newRouter(svc, nil, &alice)
	w := do(g, http.MethodPost, "/api/documents", `{"title":"NDA","content":"text","templateId":"nda","answers":{"companyName":"Acme"}}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var got document.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, "d1", got.ID)
	svc.AssertExpectations(t)
}

func TestCreateDocument_Failures(t *testing.T) {
	svc := new(MockService)
	svc.On("CreateDocument", alice, mock.Anything).Return(nil)
	g := newRouter(svc, nil, &alice)

	require.Equal(t, http.StatusBadRequest, do(g, http.MethodPost, "/api/documents", `{"title":"x"}`).Code)
	require.Equal(t, http.StatusBadRequest, do(g, http.MethodPost, "/api/documents", `{not json`).Code)
	require.Equal(t, http.StatusInternalServerError, do(g, http.MethodPost, "/api/documents", `{"templateId":"nda"}`).Code)

	anon := newRouter(svc, nil, nil)
	require.Equal(t, http.StatusUnauthorized, do(anon, http.MethodPost, "/api/documents", `{"templateId":"nda"}`).Code)
}

func TestCreateDraft(t *testing.T) {
	svc := new(MockService)
	svc.On("CreateDraftDocument", alice, mock.MatchedBy(func(in service.NewDocument) bool { return in.TemplateID == "nda" })).
		Return(&document.Document{ID: "d1", IsDraft: true})
	g := newRouter(svc, nil, &alice)

	w := do(g, http.MethodPost, "/api/drafts", `{"title":"t","content":"c","templateId":"nda"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"isDraft":true`)
}

func TestListRoutes(t *testing.T) {
	svc := new(MockService)
	svc.On("GetDocumentsByUser", alice, true).Return([]*document.Document{{ID: "a"}, {ID: "b"}})
	svc.On("GetDocumentsByUser", alice, false).Return([]*document.Document{{ID: "a"}})
	svc.On("GetDraftDocuments", alice).Return([]*document.Document{{ID: "b"}})
	svc.On("GetDraftsByTemplateID", alice, "nda").Return([]*document.Document{})
	g := newRouter(svc, nil, &alice)

	var body struct {
		Documents []document.Document `json:"documents"`
	}
	w := do(g, http.MethodGet, "/api/documents?includeDrafts=true", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Documents, 2)

	w = do(g, http.MethodGet, "/api/documents", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Documents, 1)

	w = do(g, http.MethodGet, "/api/drafts", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "b", body.Documents[0].ID)

	w = do(g, http.MethodGet, "/api/drafts?templateId=nda", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"documents":[]}`, w.Body.String())
	svc.AssertExpectations(t)
}

func TestGetDocument_Ownership(t *testing.T) {
	svc := new(MockService)
	svc.On("GetDocument", "mine").Return(&document.Document{ID: "mine", Owner: "alice"})
	svc.On("GetDocument", "theirs").Return(&document.Document{ID: "theirs", Owner: "bob"})
	svc.On("GetDocument", "missing").Return(nil)
	g := newRouter(svc, nil, &alice)

	require.Equal(t, http.StatusOK, do(g, http.MethodGet, "/api/documents/mine", "").Code)
	require.Equal(t, http.StatusNotFound, do(g, http.MethodGet, "/api/documents/theirs", "").Code)
	require.Equal(t, http.StatusNotFound, do(g, http.MethodGet, "/api/documents/missing", "").Code)
}

func TestUpdateAndProgress(t *testing.T) {
	svc := new(MockService)
	svc.On("GetDocument", "d1").Return(&document.Document{ID: "d1", Owner: "alice"})
	title := "T"
	svc.On("UpdateDocument", "d1", service.Fields{Title: &title}).Return(&document.Document{ID: "d1", Title: "T"})
	svc.On("SaveDocumentProgress", "d1", "autosaved", (*string)(nil)).Return(true)
	g := newRouter(svc, nil, &alice)

	require.Equal(t, http.StatusOK, do(g, http.MethodPatch, "/api/documents/d1", `{"title":"T"}`).Code)
	require.Equal(t, http.StatusBadRequest, do(g, http.MethodPatch, "/api/documents/d1", `{}`).Code)

	w := do(g, http.MethodPut, "/api/documents/d1/progress", `{"content":"autosaved"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"saved":true}`, w.Body.String())
	require.Equal(t, http.StatusBadRequest, do(g, http.MethodPut, "/api/documents/d1/progress", `{"title":"x"}`).Code)
	svc.AssertExpectations(t)
}

func TestProgress_FailureIs500(t *testing.T) {
	svc := new(MockService)
	svc.On("GetDocument", "d1").Return(&document.Document{ID: "d1", Owner: "alice"})
	svc.On("SaveDocumentProgress", "d1", "x", mock.Anything).Return(false)
	g := newRouter(svc, nil, &alice)

	require.Equal(t, http.StatusInternalServerError, do(g, http.MethodPut, "/api/documents/d1/progress", `{"content":"x"}`).Code)
}

func TestFinalize(t *testing.T) {
	svc := new(MockService)
	svc.On("GetDocument", "d1").Return(&document.Document{ID: "d1", Owner: "alice", IsDraft: true})
	svc.On("FinalizeDraftDocument", "d1", (*string)(nil)).Return(&document.Document{ID: "d1", IsDraft: false})
	svc.On("FinalizeDraftDocument", "d1", mock.MatchedBy(func(s *string) bool { return s != nil && *s == "Final" })).
		Return(&document.Document{ID: "d1", Title: "Final"})
	g := newRouter(svc, nil, &alice)

	require.Equal(t, http.StatusOK, do(g, http.MethodPost, "/api/documents/d1/finalize", "").Code)
	w := do(g, http.MethodPost, "/api/documents/d1/finalize", `{"title":"Final"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"title":"Final"`)
}

func TestDelete(t *testing.T) {
	svc := new(MockService)
	svc.On("GetDocument", "d1").Return(&document.Document{ID: "d1", Owner: "alice"})
	svc.On("GetDocument", "d2").Return(&document.Document{ID: "d2", Owner: "alice"})
	svc.On("DeleteDocument", "d1").Return(true)
	svc.On("DeleteDocument", "d2").Return(false)
	g := newRouter(svc, nil, &alice)

	require.Equal(t, http.StatusNoContent, do(g, http.MethodDelete, "/api/documents/d1", "").Code)
	require.Equal(t, http.StatusInternalServerError, do(g, http.MethodDelete, "/api/documents/d2", "").Code)
}

func TestArchive(t *testing.T) {
	svc := new(MockService)
	svc.On("GetDocument", "d1").Return(&document.Document{ID: "d1", Owner: "alice"})

	require.Equal(t, http.StatusServiceUnavailable, do(newRouter(svc, nil, &alice), http.MethodPost, "/api/documents/d1/archive", "").Code)

	w := do(newRouter(svc, &fakeArchiver{url: "https://minio/"}, &alice), http.MethodPost, "/api/documents/d1/archive", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"url":"https://minio/d1"}`, w.Body.String())

	failing := &fakeArchiver{err: errs.Export("upload failed", errors.New("minio down"))}
	require.Equal(t, http.StatusBadGateway, do(newRouter(svc, failing, &alice), http.MethodPost, "/api/documents/d1/archive", "").Code)
}

func TestDocumentRoutes_WithMemoryService(t *testing.T) {
	g := newRouter(service.NewMemoryService(), nil, &alice)

	w := do(g, http.MethodPost, "/api/drafts", `{"title":"draft","content":"v1","templateId":"nda"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var draft document.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &draft))

	w = do(g, http.MethodPost, "/api/drafts", `{"title":"draft","content":"v2","templateId":"nda"}`)
	var again document.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &again))
	require.Equal(t, draft.ID, again.ID)

	require.Equal(t, http.StatusOK, do(g, http.MethodPost, "/api/documents/"+draft.ID+"/finalize", `{"title":"Final"}`).Code)
	require.Equal(t, http.StatusNoContent, do(g, http.MethodDelete, "/api/documents/"+draft.ID, "").Code)
	require.Equal(t, http.StatusNotFound, do(g, http.MethodGet, "/api/documents/"+draft.ID, "").Code)
}
