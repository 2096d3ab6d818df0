// Package store provides the document collections the services read and
// write. Collections are schema-flexible; documents are Go structs encoded
// through their dynamodbav tags.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyExists is returned by Create when the id is taken.
	ErrAlreadyExists = errors.New("document already exists")
)

// Filter operators
const (
	OpEquals   = "="
	OpContains = "contains"
)

// Filter restricts a query to documents whose Field matches Value.
// OpContains matches when Field is a list holding Value.
type Filter struct {
	Field string
	Op    string
	Value interface{}
}

// Eq is shorthand for an equality filter.
func Eq(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpEquals, Value: value}
}

// Contains is shorthand for a list-membership filter.
func Contains(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpContains, Value: value}
}

// DocumentStore is the document database seen by the services. Writes other
// than Create are last-writer-wins; there are no transactions.
type DocumentStore interface {
	// Put creates or replaces the document with the given id.
	Put(ctx context.Context, collection, id string, doc interface{}) error
	// Create writes the document only if no document has the id, otherwise
	// it returns ErrAlreadyExists.
	Create(ctx context.Context, collection, id string, doc interface{}) error
	// Get decodes the document into out, or returns ErrNotFound.
	Get(ctx context.Context, collection, id string, out interface{}) error
	// Update sets the given attributes on an existing document.
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
	// Query decodes every document matching all filters into out, a pointer
	// to a slice.
	Query(ctx context.Context, collection string, filters []Filter, out interface{}) error
}
