package document

import "time"

// Document is a generated document owned by one user. Drafts are deduplicated
// per (owner, template); finalized documents never revert to drafts.
type Document struct {
	ID              string            `json:"id" bson:"_id"`
	Owner           string            `json:"userId" bson:"userId"`
	Title           string            `json:"title" bson:"title"`
	Content         string            `json:"content" bson:"content"`
	TemplateID      string            `json:"templateId" bson:"templateId"`
	TemplateAnswers map[string]string `json:"templateAnswers" bson:"templateAnswers"`
	IsDraft         bool              `json:"isDraft" bson:"isDraft"`
	CreatedAt       time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// Clone returns a deep copy so callers never share the answers map.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	if d.TemplateAnswers != nil {
		c.TemplateAnswers = make(map[string]string, len(d.TemplateAnswers))
		for k, v := range d.TemplateAnswers {
			c.TemplateAnswers[k] = v
		}
	}
	return &c
}
