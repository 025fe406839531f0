package repository

import (
	"context"
	"errors"
	"time"

	"github.com/paperfix/paperfix/backend/go-services/internal/document"
)

var (
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateDraft is returned by Insert when the owner already has a draft for the template.
	ErrDuplicateDraft = errors.New("draft already exists for template")
)

// Filter selects documents; zero fields match everything.
type Filter struct {
	Owner      string
	TemplateID string
	IsDraft    *bool
}

type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortUpdatedAt SortField = "updatedAt"
)

// Query results are always ordered descending by SortBy (newest first).
// Limit <= 0 means no limit.
type Query struct {
	Filter Filter
	SortBy SortField
	Limit  int
}

// Patch lists the fields an update sets. Nil fields are left untouched;
// UpdatedAt is always written.
type Patch struct {
	Title           *string
	Content         *string
	TemplateAnswers map[string]string
	IsDraft         *bool
	UpdatedAt       time.Time
}

// Store is the storage primitive layer behind the document service.
type Store interface {
	Insert(ctx context.Context, d *document.Document) error
	FindByID(ctx context.Context, id string) (*document.Document, error)
	Find(ctx context.Context, q Query) ([]*document.Document, error)
	Update(ctx context.Context, id string, p Patch) (*document.Document, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, f Filter) (int64, error)
}

func Bool(b bool) *bool { return &b }

func (f Filter) matches(d *document.Document) bool {
	if f.Owner != "" && d.Owner != f.Owner {
		return false
	}
	if f.TemplateID != "" && d.TemplateID != f.TemplateID {
		return false
	}
	if f.IsDraft != nil && d.IsDraft != *f.IsDraft {
		return false
	}
	return true
}
