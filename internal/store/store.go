// Package store defines the document-store contract the core depends on,
// together with a Firestore adapter and an in-memory implementation.
// Repositories talk only to this contract, never to a concrete store API.
package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors returned by Store implementations. Repositories translate
// them into the service-level error taxonomy.
var (
	ErrNotFound           = errors.New("store: document not found")
	ErrExists             = errors.New("store: document already exists")
	ErrPreconditionFailed = errors.New("store: precondition failed")
)

// Document is a raw record: an id, a loosely typed field map and the store's
// last-write timestamp, which doubles as the version for optimistic writes.
type Document struct {
	ID         string
	Data       map[string]any
	UpdateTime time.Time
}

// Filter operators supported by Query.
const (
	OpEqual         = "=="
	OpArrayContains = "array-contains"
)

// Filter restricts a query to documents whose field matches the value.
type Filter struct {
	Field string
	Op    string
	Value any
}

// Query describes an equality-filtered, optionally ordered and limited read.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// Update sets one field. The value may be a plain value, ArrayUnion,
// ArrayRemove or DeleteField.
type Update struct {
	Field string
	Value any
}

type arrayUnion struct{ values []any }
type arrayRemove struct{ values []any }
type deleteField struct{}

// ArrayUnion appends the values to an array field, skipping elements the
// array already contains.
func ArrayUnion(values ...any) any { return arrayUnion{values: values} }

// ArrayRemove removes all occurrences of the values from an array field.
func ArrayRemove(values ...any) any { return arrayRemove{values: values} }

// DeleteField removes the field from the document.
var DeleteField any = deleteField{}

// Precondition guards a write against concurrent modification. A write with
// a LastUpdateTime precondition fails with ErrPreconditionFailed when the
// document has been written since that instant.
type Precondition struct {
	LastUpdateTime *time.Time
}

// LastUpdateTime builds an optimistic-concurrency precondition from a
// document's UpdateTime.
func LastUpdateTime(t time.Time) *Precondition {
	return &Precondition{LastUpdateTime: &t}
}

// WriteKind discriminates batched writes.
type WriteKind int

const (
	WriteCreate WriteKind = iota
	WriteUpdate
	WriteDelete
)

// Write is one operation in an atomic batch. Data is used by creates,
// Updates and Precondition by updates.
type Write struct {
	Kind         WriteKind
	Collection   string
	ID           string
	Data         map[string]any
	Updates      []Update
	Precondition *Precondition
}

// Store is the document-store collaborator contract.
//
// Batch applies all writes atomically: either every write commits or none
// does. Creates in a batch fail the whole batch with ErrExists when the
// document already exists, which is what makes check-then-act sequences such
// as seat claims safe under concurrent callers.
type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	Create(ctx context.Context, collection, id string, data map[string]any) error
	Update(ctx context.Context, collection, id string, updates []Update, pre *Precondition) error
	Delete(ctx context.Context, collection, id string) error
	Batch(ctx context.Context, writes []Write) error
}
