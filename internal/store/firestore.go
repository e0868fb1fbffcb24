package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore adapts a Cloud Firestore client to the Store contract.
// Every call carries a bounded timeout so a stuck store call degrades into
// an error instead of hanging the triggering request.
type Firestore struct {
	client  *firestore.Client
	timeout time.Duration
}

// NewFirestore connects to the given project. Credentials come from the
// service account JSON built by config (same scheme the push client uses).
func NewFirestore(ctx context.Context, projectID string, timeout time.Duration, opts ...option.ClientOption) (*Firestore, error) {
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect firestore: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Firestore{client: client, timeout: timeout}, nil
}

// Close releases the underlying client.
func (f *Firestore) Close() error { return f.client.Close() }

func (f *Firestore) Get(ctx context.Context, collection, id string) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	snap, err := f.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapError(err, "get %s/%s", collection, id)
	}
	return &Document{ID: snap.Ref.ID, Data: snap.Data(), UpdateTime: snap.UpdateTime}, nil
}

func (f *Firestore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	fq := f.client.Collection(collection).Query
	for _, flt := range q.Filters {
		fq = fq.Where(flt.Field, flt.Op, flt.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}

	iter := fq.Documents(ctx)
	defer iter.Stop()

	var docs []Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, mapError(err, "query %s", collection)
		}
		docs = append(docs, Document{ID: snap.Ref.ID, Data: snap.Data(), UpdateTime: snap.UpdateTime})
	}
	return docs, nil
}

func (f *Firestore) Create(ctx context.Context, collection, id string, data map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	_, err := f.client.Collection(collection).Doc(id).Create(ctx, data)
	if err != nil {
		return mapError(err, "create %s/%s", collection, id)
	}
	return nil
}

func (f *Firestore) Update(ctx context.Context, collection, id string, updates []Update, pre *Precondition) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	_, err := f.client.Collection(collection).Doc(id).Update(ctx, toFirestoreUpdates(updates), toPreconditions(pre)...)
	if err != nil {
		return mapError(err, "update %s/%s", collection, id)
	}
	return nil
}

func (f *Firestore) Delete(ctx context.Context, collection, id string) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	_, err := f.client.Collection(collection).Doc(id).Delete(ctx)
	if err != nil {
		return mapError(err, "delete %s/%s", collection, id)
	}
	return nil
}

// Batch runs all writes in one transaction so a multi-document sequence
// (member write plus seat claims, token cleanup across records) commits or
// fails as a unit.
func (f *Firestore) Batch(ctx context.Context, writes []Write) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	err := f.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		for _, w := range writes {
			ref := f.client.Collection(w.Collection).Doc(w.ID)
			switch w.Kind {
			case WriteCreate:
				if err := tx.Create(ref, w.Data); err != nil {
					return err
				}
			case WriteUpdate:
				if err := tx.Update(ref, toFirestoreUpdates(w.Updates), toPreconditions(w.Precondition)...); err != nil {
					return err
				}
			case WriteDelete:
				if err := tx.Delete(ref); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return mapError(err, "batch write (%d ops)", len(writes))
	}
	return nil
}

func toFirestoreUpdates(updates []Update) []firestore.Update {
	out := make([]firestore.Update, 0, len(updates))
	for _, u := range updates {
		var v any
		switch val := u.Value.(type) {
		case arrayUnion:
			v = firestore.ArrayUnion(val.values...)
		case arrayRemove:
			v = firestore.ArrayRemove(val.values...)
		case deleteField:
			v = firestore.Delete
		default:
			v = u.Value
		}
		out = append(out, firestore.Update{Path: u.Field, Value: v})
	}
	return out
}

func toPreconditions(pre *Precondition) []firestore.Precondition {
	if pre == nil || pre.LastUpdateTime == nil {
		return nil
	}
	return []firestore.Precondition{firestore.LastUpdateTime(*pre.LastUpdateTime)}
}

// mapError translates gRPC status codes into the contract's sentinels so
// repositories never see Firestore-specific errors.
func mapError(err error, format string, args ...any) error {
	op := fmt.Sprintf(format, args...)
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case codes.AlreadyExists:
		return fmt.Errorf("%s: %w", op, ErrExists)
	case codes.FailedPrecondition:
		return fmt.Errorf("%s: %w", op, ErrPreconditionFailed)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
