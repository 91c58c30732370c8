package vectorstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func makeRecord(id string, vector []float32) Record {
	return Record{
		ID:     id,
		Vector: vector,
		Text:   "text for " + id,
		Metadata: map[string]string{
			"source_file": "doc.txt",
		},
	}
}

func TestUpsertCreatesCollection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	found, err := store.HasCollection(ctx, "user_1_knowledge")
	require.NoError(t, err)
	assert.False(t, found)

	err = store.Upsert(ctx, "user_1_knowledge", []Record{
		makeRecord("a", []float32{1, 0, 0}),
		makeRecord("b", []float32{0, 1, 0}),
	})
	require.NoError(t, err)

	found, err = store.HasCollection(ctx, "user_1_knowledge")
	require.NoError(t, err)
	assert.True(t, found)

	count, err := store.Count(ctx, "user_1_knowledge")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUpsertOverwritesByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "c", []Record{makeRecord("same", []float32{1, 0})}))
	updated := makeRecord("same", []float32{0, 1})
	updated.Text = "replacement text"
	require.NoError(t, store.Upsert(ctx, "c", []Record{updated}))

	count, err := store.Count(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	hits, err := store.Search(ctx, "c", []float32{0, 1}, 1, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "replacement text", hits[0].Record.Text)
}

func TestUpsertIsAtomic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "c", []Record{makeRecord("keep", []float32{1, 0})}))

	// One bad record in the batch must sink the whole batch.
	err := store.Upsert(ctx, "c", []Record{
		makeRecord("new-1", []float32{1, 1}),
		{ID: "", Vector: []float32{1, 1}},
		makeRecord("new-2", []float32{1, 1}),
	})
	require.Error(t, err)

	count, err := store.Count(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "a failed upsert must commit nothing")
}

func TestUpsertRejectsEmptyCollectionName(t *testing.T) {
	store := newTestStore(t)
	err := store.Upsert(context.Background(), "", []Record{makeRecord("a", []float32{1})})
	assert.Error(t, err)
}

func TestCollectionsAreIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, UserCollection(1), []Record{
		makeRecord("u1-a", []float32{1, 0}),
		makeRecord("u1-b", []float32{0, 1}),
	}))
	require.NoError(t, store.Upsert(ctx, UserCollection(2), []Record{
		makeRecord("u2-a", []float32{1, 0}),
	}))

	count1, err := store.Count(ctx, UserCollection(1))
	require.NoError(t, err)
	count2, err := store.Count(ctx, UserCollection(2))
	require.NoError(t, err)
	assert.Equal(t, 2, count1)
	assert.Equal(t, 1, count2)

	hits, err := store.Search(ctx, UserCollection(2), []float32{1, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "u2-a", hits[0].Record.ID)
}

func TestSearchOrdersByScore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "c", []Record{
		makeRecord("orthogonal", []float32{0, 1}),
		makeRecord("exact", []float32{1, 0}),
		makeRecord("diagonal", []float32{1, 1}),
	}))

	hits, err := store.Search(ctx, "c", []float32{1, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "exact", hits[0].Record.ID)
	assert.Equal(t, "diagonal", hits[1].Record.ID)
	assert.Equal(t, "orthogonal", hits[2].Record.ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestSearchHonorsTopKAndMinScore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "c", []Record{
		makeRecord("a", []float32{1, 0}),
		makeRecord("b", []float32{1, 0.2}),
		makeRecord("c", []float32{0, 1}),
	}))

	hits, err := store.Search(ctx, "c", []float32{1, 0}, 1, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = store.Search(ctx, "c", []float32{1, 0}, 10, 0.9)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		assert.GreaterOrEqual(t, h.Score, float32(0.9))
	}
}

func TestSearchSkipsCorruptRecord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "c", []Record{
		makeRecord("good-1", []float32{1, 0}),
		makeRecord("good-2", []float32{0, 1}),
	}))
	// Plant a value no unmarshal can read alongside the healthy records.
	require.NoError(t, store.db.Update(func(txn *badger.Txn) error {
		return txn.Set(makeRecordKey("c", "corrupt"), []byte("{not json"))
	}))

	hits, err := store.Search(ctx, "c", []float32{1, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "good-1", hits[0].Record.ID)
}

func TestSearchMissingCollectionIsEmpty(t *testing.T) {
	store := newTestStore(t)
	hits, err := store.Search(context.Background(), "user_999_knowledge", []float32{1, 0}, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestConcurrentUpsertsToDistinctCollections(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			collection := UserCollection(uint(n))
			errs[n] = store.Upsert(ctx, collection, []Record{
				makeRecord(fmt.Sprintf("rec-%d", n), []float32{float32(n + 1), 1}),
			})
		}(i)
	}
	wg.Wait()

	for n := 0; n < writers; n++ {
		require.NoError(t, errs[n])
		count, err := store.Count(ctx, UserCollection(uint(n)))
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	}
}

func TestUserCollectionName(t *testing.T) {
	assert.Equal(t, "user_42_knowledge", UserCollection(42))
}
