// Package storage persists uploaded diff archives: a permanent backend
// (bbolt or S3-compatible object storage via minio-go) optionally
// fronted by a size-bounded least-recently-used cache.
package storage

import (
	"bytes"
	"container/list"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/minio/minio-go/v7"
	"go.etcd.io/bbolt"
)

// ErrNotFound is returned by Storage.Get when id does not exist.
var ErrNotFound = errors.New("storage: not found")

// Storage stores and retrieves opaque byte blobs by id. File sizes are
// expected to be in general <32kb, and absolutely <1MB, hence no
// io.Reader support. Storage must not delete blobs on its own.
type Storage interface {
	// Get returns ErrNotFound on object not found.
	Get(ctx context.Context, id string) ([]byte, error)
	// Put overwrites if id exists.
	Put(ctx context.Context, id string, data []byte) error
	// Del returns nil on not found.
	Del(ctx context.Context, id string) error
}

// ListStorage adds the List operation to Storage, allowing it to be
// used as the backing store for a CachedStorage's warm start.
type ListStorage interface {
	Storage
	// List invokes cb for every stored object. Callers must not retain
	// b past the callback; copy it if needed.
	List(ctx context.Context, cb func(id string, b []byte) error) error
}

type s3Storage struct {
	cl     *minio.Client
	bucket string
}

var _ Storage = (*s3Storage)(nil)

// NewMinioStorage wraps an S3-compatible bucket accessed through cl as
// a Storage.
func NewMinioStorage(cl *minio.Client, bucket string) Storage {
	return &s3Storage{cl: cl, bucket: bucket}
}

func (s *s3Storage) Get(ctx context.Context, id string) ([]byte, error) {
	obj, err := s.cl.GetObject(ctx, s.bucket, id, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	b, err := io.ReadAll(obj)
	if err != nil {
		// GetObject is lazy; a missing key only surfaces here.
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *s3Storage) Put(ctx context.Context, id string, data []byte) error {
	_, err := s.cl.PutObject(ctx, s.bucket, id,
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

func (s *s3Storage) Del(ctx context.Context, id string) error {
	return s.cl.RemoveObject(ctx, s.bucket, id, minio.RemoveObjectOptions{})
}

type boltStorage struct {
	db     *bbolt.DB
	bucket []byte
}

var _ ListStorage = (*boltStorage)(nil)

// NewDBStorage returns a ListStorage backed by a bucket in db, creating
// the bucket if it does not already exist. It panics if the bucket
// cannot be created.
func NewDBStorage(db *bbolt.DB, bucket []byte) ListStorage {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		panic(fmt.Errorf("error creating bucket in db: %w", err))
	}
	return &boltStorage{db: db, bucket: bucket}
}

func (s *boltStorage) Get(ctx context.Context, id string) ([]byte, error) {
	var val []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(id))
		if v == nil {
			return ErrNotFound
		}
		// v is only valid inside the transaction.
		val = bytes.Clone(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (s *boltStorage) Put(ctx context.Context, id string, data []byte) error {
	return s.db.Batch(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(id), data)
	})
}

func (s *boltStorage) Del(ctx context.Context, id string) error {
	return s.db.Batch(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(id))
	})
}

func (s *boltStorage) List(ctx context.Context, cb func(id string, b []byte) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, v []byte) error {
			return cb(string(k), v)
		})
	})
}

// cacheEntry is the in-memory record of one cached blob; the bytes
// themselves live in the ListStorage.
type cacheEntry struct {
	id   string
	size uint64
}

// CachedStorage fronts a permanent Storage with a size-bounded cache
// kept in a ListStorage. An in-memory LRU index (recency list + id
// lookup) mirrors the cache's contents; an admission that pushes the
// cached total past maxSize evicts least-recently-used entries before
// returning, on the goroutine that did the admitting. There is no
// background cleaner and nothing to shut down.
//
// Concurrent misses on the same id may each fetch it from the
// permanent store once; the loser's cache write overwrites the
// winner's with identical bytes, so the race is benign and not worth a
// per-object latch.
type CachedStorage struct {
	cache     ListStorage
	permanent Storage
	maxSize   uint64 // bytes; the cache store may briefly exceed this

	mu    sync.Mutex
	order *list.List               // of *cacheEntry; front is most recent
	index map[string]*list.Element // id -> element in order
	size  uint64
}

var _ Storage = (*CachedStorage)(nil)

// NewCachedStorage builds a CachedStorage, warm-starting its index from
// cache's existing contents. The warm-start recency order is whatever
// List yields; real traffic reorders it almost immediately.
func NewCachedStorage(cache ListStorage, permanent Storage, maxSize uint64) (*CachedStorage, error) {
	c := &CachedStorage{
		cache:     cache,
		permanent: permanent,
		maxSize:   maxSize,
		order:     list.New(),
		index:     make(map[string]*list.Element),
	}
	err := cache.List(context.Background(), func(id string, b []byte) error {
		c.index[id] = c.order.PushFront(&cacheEntry{id: id, size: uint64(len(b))})
		c.size += uint64(len(b))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// touch reports whether id is cached, marking it most-recently-used if
// so.
func (c *CachedStorage) touch(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.index[id]
	if ok {
		c.order.MoveToFront(el)
	}
	return ok
}

// forget removes id from the index, reporting whether it was present.
// The caller is responsible for the corresponding cache.Del.
func (c *CachedStorage) forget(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.index[id]
	if !ok {
		return false
	}
	c.size -= el.Value.(*cacheEntry).size
	c.order.Remove(el)
	delete(c.index, id)
	return true
}

// admit registers id as the most-recently-used entry and returns the
// ids evicted to get the total back under maxSize. The entry being
// admitted is never its own victim, even when it alone exceeds the
// budget.
func (c *CachedStorage) admit(id string, size uint64) (evicted []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[id]; ok {
		c.size -= el.Value.(*cacheEntry).size
		c.order.Remove(el)
	}
	c.index[id] = c.order.PushFront(&cacheEntry{id: id, size: size})
	c.size += size
	for c.size > c.maxSize && c.order.Len() > 1 {
		back := c.order.Back()
		e := back.Value.(*cacheEntry)
		c.order.Remove(back)
		delete(c.index, e.id)
		c.size -= e.size
		evicted = append(evicted, e.id)
	}
	return evicted
}

// store writes b through to the cache, indexes it, and deletes whatever
// the admission evicted. Cache failures are logged, never surfaced:
// the permanent store already holds the blob.
func (c *CachedStorage) store(ctx context.Context, id string, b []byte) {
	if err := c.cache.Put(ctx, id, b); err != nil {
		log.Printf("storage: cache put %s: %v", id, err)
		return
	}
	for _, victim := range c.admit(id, uint64(len(b))) {
		if err := c.cache.Del(ctx, victim); err != nil {
			log.Printf("storage: cache evict %s: %v", victim, err)
		}
	}
}

func (c *CachedStorage) Get(ctx context.Context, id string) ([]byte, error) {
	if c.touch(id) {
		b, err := c.cache.Get(ctx, id)
		if err == nil {
			return b, nil
		}
		// The index believed the cache had this object; drop the stale
		// entry and fall through to the permanent store.
		if !errors.Is(err, ErrNotFound) {
			log.Printf("storage: cache get %s: %v", id, err)
		}
		c.forget(id)
	}

	b, err := c.permanent.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, id, b)
	return b, nil
}

func (c *CachedStorage) Put(ctx context.Context, id string, data []byte) error {
	if err := c.permanent.Put(ctx, id, data); err != nil {
		return err
	}
	c.store(ctx, id, data)
	return nil
}

func (c *CachedStorage) Del(ctx context.Context, id string) error {
	if err := c.permanent.Del(ctx, id); err != nil {
		return err
	}
	if c.forget(id) {
		if err := c.cache.Del(ctx, id); err != nil {
			log.Printf("storage: cache del %s: %v", id, err)
		}
	}
	return nil
}
