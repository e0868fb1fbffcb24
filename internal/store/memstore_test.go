package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreCreateGet(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "things", "t1", map[string]any{
		"name":  "first",
		"count": 3,
		"tags":  []string{"a", "b"},
	}))

	doc, err := s.Get(ctx, "things", "t1")
	require.NoError(t, err)
	assert.Equal(t, "first", doc.Data["name"])
	// Values come back widened the way the production store returns them.
	assert.Equal(t, int64(3), doc.Data["count"])
	assert.Equal(t, []any{"a", "b"}, doc.Data["tags"])
	assert.False(t, doc.UpdateTime.IsZero())
}

func TestMemStoreCreateDuplicate(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "things", "t1", map[string]any{"v": 1}))
	assert.ErrorIs(t, s.Create(ctx, "things", "t1", map[string]any{"v": 2}), ErrExists)
}

func TestMemStoreGetMissing(t *testing.T) {
	s := NewMemStore()
	_, err := s.Get(context.Background(), "things", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreUpdatePrecondition(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "things", "t1", map[string]any{"v": 1}))
	doc, err := s.Get(ctx, "things", "t1")
	require.NoError(t, err)

	// Matching version succeeds and advances the version.
	require.NoError(t, s.Update(ctx, "things", "t1", []Update{{Field: "v", Value: 2}}, LastUpdateTime(doc.UpdateTime)))

	// The stale version is now rejected.
	err = s.Update(ctx, "things", "t1", []Update{{Field: "v", Value: 3}}, LastUpdateTime(doc.UpdateTime))
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	got, err := s.Get(ctx, "things", "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Data["v"])
}

func TestMemStoreArrayOps(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "things", "t1", map[string]any{"tags": []string{"a"}}))

	// Union is idempotent.
	require.NoError(t, s.Update(ctx, "things", "t1", []Update{{Field: "tags", Value: ArrayUnion("a", "b")}}, nil))
	doc, err := s.Get(ctx, "things", "t1")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, doc.Data["tags"])

	require.NoError(t, s.Update(ctx, "things", "t1", []Update{{Field: "tags", Value: ArrayRemove("a")}}, nil))
	doc, err = s.Get(ctx, "things", "t1")
	require.NoError(t, err)
	assert.Equal(t, []any{"b"}, doc.Data["tags"])

	require.NoError(t, s.Update(ctx, "things", "t1", []Update{{Field: "tags", Value: DeleteField}}, nil))
	doc, err = s.Get(ctx, "things", "t1")
	require.NoError(t, err)
	_, ok := doc.Data["tags"]
	assert.False(t, ok)
}

func TestMemStoreBatchIsAtomic(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "claims", "c1", map[string]any{"owner": "x"}))

	// The second create collides, so the first must not be applied either.
	err := s.Batch(ctx, []Write{
		{Kind: WriteCreate, Collection: "claims", ID: "c2", Data: map[string]any{"owner": "y"}},
		{Kind: WriteCreate, Collection: "claims", ID: "c1", Data: map[string]any{"owner": "y"}},
	})
	assert.ErrorIs(t, err, ErrExists)

	_, err = s.Get(ctx, "claims", "c2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreQuery(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Create(ctx, "alerts", "a1", map[string]any{"memberId": "m1", "createdAt": base, "tokens": []string{"x"}}))
	require.NoError(t, s.Create(ctx, "alerts", "a2", map[string]any{"memberId": "m1", "createdAt": base.Add(time.Hour), "tokens": []string{"y"}}))
	require.NoError(t, s.Create(ctx, "alerts", "a3", map[string]any{"memberId": "m2", "createdAt": base.Add(2 * time.Hour), "tokens": []string{"x"}}))

	docs, err := s.Query(ctx, "alerts", Query{
		Filters: []Filter{{Field: "memberId", Op: OpEqual, Value: "m1"}},
		OrderBy: "createdAt",
		Desc:    true,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a2", docs[0].ID)
	assert.Equal(t, "a1", docs[1].ID)

	docs, err = s.Query(ctx, "alerts", Query{
		Filters: []Filter{{Field: "tokens", Op: OpArrayContains, Value: "x"}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	docs, err = s.Query(ctx, "alerts", Query{OrderBy: "createdAt", Limit: 1})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a1", docs[0].ID)
}
