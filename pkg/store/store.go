// Package store persists flowchart documents between requests.
//
// Two backends are provided:
//   - [MemoryStore]: process-local, used by tests and single-instance servers
//   - [MongoStore]: MongoDB-backed, for deployments that outlive a process
//
// Every write validates the document first, so a stored record always
// satisfies the document invariants. Missing ids report
// [errors.ErrCodeDocumentNotFound].
//
// # Usage
//
//	st := store.NewMemoryStore()
//	rec, err := st.Create(ctx, doc)
//	if err != nil {
//	    return err
//	}
//	rec, err = st.Get(ctx, rec.ID)
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/flowsketch/pkg/errors"
	"github.com/matzehuels/flowsketch/pkg/flowchart"
)

// Record is a stored document with its bookkeeping fields.
type Record struct {
	ID           string              `json:"id" bson:"_id"`
	Document     *flowchart.Document `json:"document" bson:"document"`
	SourcePrompt string              `json:"sourcePrompt,omitempty" bson:"sourcePrompt"`
	CreatedAt    time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// Store is the interface for document storage backends.
type Store interface {
	// Create validates and stores doc under a new id.
	Create(ctx context.Context, doc *flowchart.Document) (*Record, error)

	// Get returns the record with the given id.
	Get(ctx context.Context, id string) (*Record, error)

	// Replace validates doc and stores it in place of the record's document.
	// An empty doc.SourcePrompt keeps the stored prompt.
	Replace(ctx context.Context, id string, doc *flowchart.Document) (*Record, error)

	// Delete removes the record with the given id.
	Delete(ctx context.Context, id string) error

	// List returns all records, oldest first.
	List(ctx context.Context) ([]*Record, error)

	// Close releases backend resources.
	Close() error
}

// newID returns a fresh record id.
func newID() string {
	return uuid.NewString()
}

// now is the record clock. Timestamps are truncated to milliseconds, the
// resolution MongoDB keeps.
var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeDocumentNotFound, "document %q not found", id)
}

func checkDocument(doc *flowchart.Document) error {
	if doc == nil {
		return errors.New(errors.ErrCodeInvalidInput, "document is required")
	}
	return doc.Validate()
}

// withPrompt returns a copy of r whose document carries the record's prompt.
func (r *Record) withPrompt() *Record {
	c := *r
	if r.Document != nil {
		c.Document = r.Document.Clone()
		c.Document.SourcePrompt = r.SourcePrompt
	}
	return &c
}
