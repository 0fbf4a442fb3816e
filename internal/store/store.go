// Package store abstracts the remote per-user document store. One document
// exists per username; it is created at most once, merged field-by-field
// afterwards, and every successful write is pushed to subscribers.
package store

import (
	"context"
	"errors"

	"github.com/Amaan007S/piq-sync/internal/models"
)

var (
	ErrNotFound      = errors.New("user record not found")
	ErrAlreadyExists = errors.New("user record already exists")
)

// Store is the remote document store contract the sync layer runs against.
type Store interface {
	// Get reads the record for username, ErrNotFound if absent.
	Get(ctx context.Context, username string) (*models.UserRecord, error)

	// Create writes a full record, failing with ErrAlreadyExists if one is
	// already stored for username.
	Create(ctx context.Context, username string, rec *models.UserRecord) error

	// Merge applies a partial document on top of the stored record. Nested
	// maps merge key-wise; every other value replaces. ErrNotFound if no
	// record exists.
	Merge(ctx context.Context, username string, patch map[string]any) error

	// Subscribe delivers the latest record after every write until the
	// returned stop function is called. Delivery is at-least-once.
	Subscribe(ctx context.Context, username string, onChange func(*models.UserRecord), onError func(error)) (func(), error)
}

// DeepMerge applies patch on top of doc, merging nested maps key-wise and
// replacing everything else (lists included, which gives the transaction
// log its whole-list last-writer-wins semantics). doc is modified in place
// and returned.
func DeepMerge(doc, patch map[string]any) map[string]any {
	if doc == nil {
		doc = make(map[string]any, len(patch))
	}
	for key, value := range patch {
		patchMap, patchIsMap := value.(map[string]any)
		docMap, docIsMap := doc[key].(map[string]any)
		if patchIsMap && docIsMap {
			doc[key] = DeepMerge(docMap, patchMap)
			continue
		}
		doc[key] = value
	}
	return doc
}
