package export

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paperfix/paperfix/backend/go-services/internal/document"
	"github.com/paperfix/paperfix/backend/go-services/internal/errs"
	"github.com/paperfix/paperfix/backend/go-services/pkg/metrics"
)

// ObjectStore is the slice of storage.MinIOStorage the archiver needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	PresignedGet(ctx context.Context, key string, expires time.Duration, downloadName string) (string, error)
}

// Archiver keeps a PDF snapshot of a document in object storage.
type Archiver struct {
	renderer *Renderer
	store    ObjectStore
	ttl      time.Duration
	newID    func() string
}

func NewArchiver(renderer *Renderer, store ObjectStore, ttl time.Duration) *Archiver {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Archiver{renderer: renderer, store: store, ttl: ttl, newID: uuid.NewString}
}

// ObjectKey is where a snapshot of d is stored.
func ObjectKey(owner, documentID, snapshotID string) string {
	return fmt.Sprintf("exports/%s/%s/%s.pdf", owner, documentID, snapshotID)
}

// Archive uploads a fresh snapshot and returns a presigned download URL.
func (a *Archiver) Archive(ctx context.Context, d *document.Document) (string, error) {
	url, err := a.archive(ctx, d)
	metrics.Exports.WithLabelValues("archive", metrics.Outcome(err)).Inc()
	return url, err
}

func (a *Archiver) archive(ctx context.Context, d *document.Document) (string, error) {
	pdf, err := a.renderer.Render(d.Content, d.Title)
	if err != nil {
		return "", err
	}
	key := ObjectKey(d.Owner, d.ID, a.newID())
	if err := a.store.Put(ctx, key, pdf, "application/pdf"); err != nil {
		return "", errs.Export("failed to store PDF", err)
	}
	url, err := a.store.PresignedGet(ctx, key, a.ttl, Filename(d.Title))
	if err != nil {
		return "", errs.Export("failed to sign download URL", err)
	}
	return url, nil
}
