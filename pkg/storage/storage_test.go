package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

// memStorage is an in-memory ListStorage used to observe what the
// cache layer reads, writes, and evicts.
type memStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{data: map[string][]byte{}}
}

func (m *memStorage) Get(ctx context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *memStorage) Put(ctx context.Context, id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = append([]byte(nil), data...)
	return nil
}

func (m *memStorage) Del(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *memStorage) List(ctx context.Context, cb func(id string, b []byte) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, b := range m.data {
		if err := cb(id, b); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStorage) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[id]
	return ok
}

func newTestCache(t *testing.T, maxSize uint64) (*CachedStorage, *memStorage, *memStorage) {
	t.Helper()
	cache, permanent := newMemStorage(), newMemStorage()
	c, err := NewCachedStorage(cache, permanent, maxSize)
	require.NoError(t, err)
	return c, cache, permanent
}

func TestCachedStorage_WriteThrough(t *testing.T) {
	ctx := context.Background()
	c, cache, permanent := newTestCache(t, 1024)

	require.NoError(t, c.Put(ctx, "a", []byte("hello")))
	assert.True(t, cache.has("a"))
	assert.True(t, permanent.has("a"))

	// Serve from cache even when the permanent store loses the blob.
	require.NoError(t, permanent.Del(ctx, "a"))
	b, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), b)
}

func TestCachedStorage_MissRepopulatesCache(t *testing.T) {
	ctx := context.Background()
	c, cache, permanent := newTestCache(t, 1024)

	require.NoError(t, permanent.Put(ctx, "a", []byte("cold")))
	require.False(t, cache.has("a"))

	b, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("cold"), b)
	assert.True(t, cache.has("a"))
}

func TestCachedStorage_NotFound(t *testing.T) {
	c, _, _ := newTestCache(t, 1024)
	_, err := c.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedStorage_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	// Three 4-byte blobs against a 10-byte budget: admitting the third
	// must evict exactly one, and it must be the least recently used.
	c, cache, permanent := newTestCache(t, 10)

	require.NoError(t, c.Put(ctx, "a", []byte("aaaa")))
	require.NoError(t, c.Put(ctx, "b", []byte("bbbb")))

	// Touch "a" so "b" becomes the eviction candidate.
	_, err := c.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, c.Put(ctx, "c", []byte("cccc")))

	assert.True(t, cache.has("a"))
	assert.False(t, cache.has("b"))
	assert.True(t, cache.has("c"))

	// Eviction only touches the cache; the permanent store keeps all.
	assert.True(t, permanent.has("a"))
	assert.True(t, permanent.has("b"))
	assert.True(t, permanent.has("c"))

	// The evicted blob is still served, via the permanent store.
	b, err := c.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("bbbb"), b)
}

func TestCachedStorage_OversizedEntrySurvivesItsOwnAdmission(t *testing.T) {
	ctx := context.Background()
	c, cache, _ := newTestCache(t, 4)

	require.NoError(t, c.Put(ctx, "big", []byte("more than four")))
	assert.True(t, cache.has("big"))

	// The next admission evicts it as usual.
	require.NoError(t, c.Put(ctx, "next", []byte("x")))
	assert.False(t, cache.has("big"))
	assert.True(t, cache.has("next"))
}

func TestCachedStorage_WarmStart(t *testing.T) {
	ctx := context.Background()
	cache, permanent := newMemStorage(), newMemStorage()
	require.NoError(t, cache.Put(ctx, "warm", []byte("kept")))

	c, err := NewCachedStorage(cache, permanent, 1024)
	require.NoError(t, err)

	// The warm-started index serves the blob without consulting the
	// (empty) permanent store.
	b, err := c.Get(ctx, "warm")
	require.NoError(t, err)
	assert.Equal(t, []byte("kept"), b)
}

func TestCachedStorage_StaleIndexSelfHeals(t *testing.T) {
	ctx := context.Background()
	c, cache, permanent := newTestCache(t, 1024)

	require.NoError(t, c.Put(ctx, "a", []byte("data")))
	// Sabotage: the blob vanishes from the cache behind the index's
	// back.
	require.NoError(t, cache.Del(ctx, "a"))

	b, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), b)
	// The miss repopulated the cache.
	assert.True(t, cache.has("a"))
	assert.True(t, permanent.has("a"))
}

func TestCachedStorage_Del(t *testing.T) {
	ctx := context.Background()
	c, cache, permanent := newTestCache(t, 1024)

	require.NoError(t, c.Put(ctx, "a", []byte("gone soon")))
	require.NoError(t, c.Del(ctx, "a"))

	assert.False(t, cache.has("a"))
	assert.False(t, permanent.has("a"))
	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func newBoltStorage(t *testing.T) ListStorage {
	t.Helper()
	bdb, err := bbolt.Open(filepath.Join(t.TempDir(), "db.bolt"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, bdb.Close())
	})
	return NewDBStorage(bdb, []byte("storage"))
}

func TestDBStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newBoltStorage(t)

	require.NoError(t, s.Put(ctx, "k", []byte("v")))
	b, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), b)

	var listed []string
	require.NoError(t, s.List(ctx, func(id string, b []byte) error {
		listed = append(listed, id)
		return nil
	}))
	assert.Equal(t, []string{"k"}, listed)

	require.NoError(t, s.Del(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDBStorage_DelMissingIsNil(t *testing.T) {
	s := newBoltStorage(t)
	assert.NoError(t, s.Del(context.Background(), "missing"))
}
