package repository

import (
	"context"
	"errors"
	"time"

	"github.com/paperfix/paperfix/backend/go-services/internal/document"
	"github.com/paperfix/paperfix/backend/go-services/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the MongoDB collection documents are stored in.
const Collection = "documents"

// MongoRepo implements Store on a MongoDB collection keyed by string _id.
type MongoRepo struct {
	col *mongo.Collection
}

// NewMongoRepo ensures the indexes the lifecycle relies on: listing by owner and
// at most one draft per (owner, template).
func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "updatedAt", Value: -1}}},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "templateId", Value: 1}},
			Options: options.Index().
				SetName("one_draft_per_template").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"isDraft": true}),
		},
	}
	if _, err := col.Indexes().CreateMany(ctx, models); err != nil {
		logger.Warnf("documents: creating indexes failed: %v", err)
	}
	return &MongoRepo{col: col}
}

func filterDoc(f Filter) bson.M {
	m := bson.M{}
	if f.Owner != "" {
		m["userId"] = f.Owner
	}
	if f.TemplateID != "" {
		m["templateId"] = f.TemplateID
	}
	if f.IsDraft != nil {
		m["isDraft"] = *f.IsDraft
	}
	return m
}

func (m *MongoRepo) Insert(ctx context.Context, d *document.Document) error {
	_, err := m.col.InsertOne(ctx, d)
	if mongo.IsDuplicateKeyError(err) && d.IsDraft {
		return ErrDuplicateDraft
	}
	return err
}

func (m *MongoRepo) FindByID(ctx context.Context, id string) (*document.Document, error) {
	var d document.Document
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) Find(ctx context.Context, q Query) ([]*document.Document, error) {
	sortBy := string(q.SortBy)
	if sortBy == "" {
		sortBy = string(SortCreatedAt)
	}
	opts := options.Find().SetSort(bson.D{{Key: sortBy, Value: -1}, {Key: "_id", Value: -1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	cur, err := m.col.Find(ctx, filterDoc(q.Filter), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*document.Document{}
	for cur.Next(ctx) {
		var d document.Document
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, cur.Err()
}

func (m *MongoRepo) Update(ctx context.Context, id string, p Patch) (*document.Document, error) {
	set := bson.M{"updatedAt": p.UpdatedAt}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Content != nil {
		set["content"] = *p.Content
	}
	if p.TemplateAnswers != nil {
		set["templateAnswers"] = p.TemplateAnswers
	}
	if p.IsDraft != nil {
		set["isDraft"] = *p.IsDraft
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d document.Document
	err := m.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) DeleteMany(ctx context.Context, f Filter) (int64, error) {
	res, err := m.col.DeleteMany(ctx, filterDoc(f))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
