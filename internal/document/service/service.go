package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paperfix/paperfix/backend/go-services/internal/document"
	"github.com/paperfix/paperfix/backend/go-services/internal/document/repository"
	"github.com/paperfix/paperfix/backend/go-services/internal/session"
	"github.com/paperfix/paperfix/backend/go-services/pkg/logger"
	"github.com/paperfix/paperfix/backend/go-services/pkg/metrics"
	"go.mongodb.org/mongo-driver/mongo"
)

// NewDocument is the input for creating a document or draft.
type NewDocument struct {
	Title      string
	Content    string
	TemplateID string
	Answers    map[string]string
}

// Fields is a partial update for UpdateDocument; nil fields are left untouched.
type Fields struct {
	Title   *string
	Content *string
}

// Service defines the document lifecycle used by the handler layer.
//
// Storage failures never surface as errors: they are logged and reported as a
// nil document, false or an empty slice. Callers must check return values.
type Service interface {
	CreateDocument(ctx context.Context, s session.Session, in NewDocument) *document.Document
	CreateDraftDocument(ctx context.Context, s session.Session, in NewDocument) *document.Document
	SaveDocumentProgress(ctx context.Context, id, content string, title *string) bool
	FinalizeDraftDocument(ctx context.Context, id string, title *string) *document.Document
	GetDraftsByTemplateID(ctx context.Context, s session.Session, templateID string) []*document.Document
	GetDocumentsByUser(ctx context.Context, s session.Session, includeDrafts bool) []*document.Document
	GetDraftDocuments(ctx context.Context, s session.Session) []*document.Document
	GetDocument(ctx context.Context, id string) *document.Document
	UpdateDocument(ctx context.Context, id string, f Fields) *document.Document
	DeleteDocument(ctx context.Context, id string) bool
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() Service {
	return New(repository.NewMemoryRepo())
}

// NewMongoService returns a Service backed by a MongoDB collection.
// Caller is responsible for creating the collection (and client) and passing it in.
func NewMongoService(col *mongo.Collection) Service {
	return New(repository.NewMongoRepo(col))
}

// New wraps any Store.
func New(store repository.Store) *Lifecycle {
	return &Lifecycle{
		store: store,
		now:   func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		newID: uuid.NewString,
	}
}

// Lifecycle implements Service on top of a repository.Store.
type Lifecycle struct {
	store repository.Store
	now   func() time.Time
	newID func() string

	mu   sync.Mutex
	last time.Time
}

// stamp returns the timestamp for a write. Stamps are strictly increasing, so
// two writes inside the same millisecond still move updatedAt forward.
func (l *Lifecycle) stamp() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	t := l.now()
	if !t.After(l.last) {
		t = l.last.Add(time.Millisecond)
	}
	l.last = t
	return t
}

func record(op string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	metrics.DocumentOps.WithLabelValues(op, outcome).Inc()
}

func copyAnswers(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (l *Lifecycle) insert(ctx context.Context, owner string, in NewDocument, draft bool) (*document.Document, error) {
	now := l.stamp()
	d := &document.Document{
		ID:              l.newID(),
		Owner:           owner,
		Title:           in.Title,
		Content:         in.Content,
		TemplateID:      in.TemplateID,
		TemplateAnswers: copyAnswers(in.Answers),
		IsDraft:         draft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := l.store.Insert(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (l *Lifecycle) CreateDocument(ctx context.Context, s session.Session, in NewDocument) *document.Document {
	if !s.Authenticated() {
		logger.Warnf("documents: create refused without an authenticated session")
		record("create", false)
		return nil
	}
	if in.TemplateID == "" {
		logger.Warnf("documents: create refused without a template id")
		record("create", false)
		return nil
	}
	d, err := l.insert(ctx, s.UserID, in, false)
	if err != nil {
		logger.Errorf("documents: create owner=%s template=%s: %v", s.UserID, in.TemplateID, err)
		record("create", false)
		return nil
	}
	record("create", true)
	return d
}

// CreateDraftDocument updates the owner's existing draft for the template in
// place (title, content, answers) or inserts a new draft. The latest answers
// replace the previous ones.
func (l *Lifecycle) CreateDraftDocument(ctx context.Context, s session.Session, in NewDocument) *document.Document {
	if !s.Authenticated() {
		logger.Warnf("documents: create draft refused without an authenticated session")
		record("create_draft", false)
		return nil
	}
	if in.TemplateID == "" {
		logger.Warnf("documents: create draft refused without a template id")
		record("create_draft", false)
		return nil
	}
	// a concurrent insert can win the unique draft index; the second pass then updates it
	for attempt := 0; attempt < 2; attempt++ {
		drafts, err := l.findDrafts(ctx, s.UserID, in.TemplateID)
		if err != nil {
			logger.Errorf("documents: find drafts owner=%s template=%s: %v", s.UserID, in.TemplateID, err)
			record("create_draft", false)
			return nil
		}
		if len(drafts) > 0 {
			existing := drafts[0]
			if existing.TemplateAnswers != nil && len(in.Answers) > 0 && !sameKeys(existing.TemplateAnswers, in.Answers) {
				logger.Infof("documents: draft %s answers replaced with a different question set", existing.ID)
			}
			title, content := in.Title, in.Content
			d, err := l.store.Update(ctx, existing.ID, repository.Patch{
				Title:           &title,
				Content:         &content,
				TemplateAnswers: copyAnswers(in.Answers),
				UpdatedAt:       l.stamp(),
			})
			if err != nil {
				logger.Errorf("documents: update draft %s: %v", existing.ID, err)
				record("create_draft", false)
				return nil
			}
			record("create_draft", true)
			return d
		}
		d, err := l.insert(ctx, s.UserID, in, true)
		if errors.Is(err, repository.ErrDuplicateDraft) {
			continue
		}
		if err != nil {
			logger.Errorf("documents: insert draft owner=%s template=%s: %v", s.UserID, in.TemplateID, err)
			record("create_draft", false)
			return nil
		}
		record("create_draft", true)
		return d
	}
	logger.Errorf("documents: draft for owner=%s template=%s kept conflicting", s.UserID, in.TemplateID)
	record("create_draft", false)
	return nil
}

func sameKeys(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// SaveDocumentProgress is the auto-save path: content always, title only when
// given. Last write wins; there is no version check.
func (l *Lifecycle) SaveDocumentProgress(ctx context.Context, id, content string, title *string) bool {
	p := repository.Patch{Content: &content, UpdatedAt: l.stamp()}
	if title != nil && *title != "" {
		p.Title = title
	}
	if _, err := l.store.Update(ctx, id, p); err != nil {
		logger.Errorf("documents: save progress %s: %v", id, err)
		record("save_progress", false)
		return false
	}
	record("save_progress", true)
	return true
}

// FinalizeDraftDocument flips isDraft to false. Finalizing a finalized document is a no-op update.
func (l *Lifecycle) FinalizeDraftDocument(ctx context.Context, id string, title *string) *document.Document {
	p := repository.Patch{IsDraft: repository.Bool(false), UpdatedAt: l.stamp()}
	if title != nil && *title != "" {
		p.Title = title
	}
	d, err := l.store.Update(ctx, id, p)
	if err != nil {
		logger.Errorf("documents: finalize %s: %v", id, err)
		record("finalize", false)
		return nil
	}
	record("finalize", true)
	return d
}

func (l *Lifecycle) findDrafts(ctx context.Context, owner, templateID string) ([]*document.Document, error) {
	return l.store.Find(ctx, repository.Query{
		Filter: repository.Filter{Owner: owner, TemplateID: templateID, IsDraft: repository.Bool(true)},
		SortBy: repository.SortUpdatedAt,
	})
}

func (l *Lifecycle) GetDraftsByTemplateID(ctx context.Context, s session.Session, templateID string) []*document.Document {
	if !s.Authenticated() {
		return []*document.Document{}
	}
	drafts, err := l.findDrafts(ctx, s.UserID, templateID)
	if err != nil {
		logger.Errorf("documents: drafts owner=%s template=%s: %v", s.UserID, templateID, err)
		return []*document.Document{}
	}
	return drafts
}

func (l *Lifecycle) GetDocumentsByUser(ctx context.Context, s session.Session, includeDrafts bool) []*document.Document {
	if !s.Authenticated() {
		return []*document.Document{}
	}
	f := repository.Filter{Owner: s.UserID}
	if !includeDrafts {
		f.IsDraft = repository.Bool(false)
	}
	docs, err := l.store.Find(ctx, repository.Query{Filter: f, SortBy: repository.SortCreatedAt})
	if err != nil {
		logger.Errorf("documents: list owner=%s: %v", s.UserID, err)
		return []*document.Document{}
	}
	return docs
}

func (l *Lifecycle) GetDraftDocuments(ctx context.Context, s session.Session) []*document.Document {
	if !s.Authenticated() {
		return []*document.Document{}
	}
	docs, err := l.store.Find(ctx, repository.Query{
		Filter: repository.Filter{Owner: s.UserID, IsDraft: repository.Bool(true)},
		SortBy: repository.SortUpdatedAt,
	})
	if err != nil {
		logger.Errorf("documents: list drafts owner=%s: %v", s.UserID, err)
		return []*document.Document{}
	}
	return docs
}

func (l *Lifecycle) GetDocument(ctx context.Context, id string) *document.Document {
	d, err := l.store.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Errorf("documents: get %s: %v", id, err)
		}
		return nil
	}
	return d
}

// UpdateDocument always stamps updatedAt.
func (l *Lifecycle) UpdateDocument(ctx context.Context, id string, f Fields) *document.Document {
	d, err := l.store.Update(ctx, id, repository.Patch{Title: f.Title, Content: f.Content, UpdatedAt: l.stamp()})
	if err != nil {
		logger.Errorf("documents: update %s: %v", id, err)
		record("update", false)
		return nil
	}
	record("update", true)
	return d
}

// DeleteDocument removes the document. Deleting a finalized document first
// removes the owner's drafts for the same template; a failure there is logged
// and the delete continues. Records without a template never cascade.
func (l *Lifecycle) DeleteDocument(ctx context.Context, id string) bool {
	d, err := l.store.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Errorf("documents: delete %s: fetch: %v", id, err)
		}
		record("delete", false)
		return false
	}
	if !d.IsDraft && d.TemplateID != "" {
		n, err := l.store.DeleteMany(ctx, repository.Filter{Owner: d.Owner, TemplateID: d.TemplateID, IsDraft: repository.Bool(true)})
		if err != nil {
			logger.Errorf("documents: delete %s: removing sibling drafts: %v", id, err)
		} else if n > 0 {
			logger.Debugf("documents: delete %s: removed %d draft(s)", id, n)
		}
	}
	if err := l.store.Delete(ctx, id); err != nil {
		logger.Errorf("documents: delete %s: %v", id, err)
		record("delete", false)
		return false
	}
	record("delete", true)
	return true
}
