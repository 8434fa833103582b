package kvcache

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/kvcache")

// ErrNotFound is returned on a miss, or after a key's ttl has elapsed.
var ErrNotFound = errors.New("key not found")

// Cache is a badger-backed key/value store with per-entry ttl.
// a ttl of zero means the entry never expires.
type Cache struct {
	db *badger.DB
}

func Open(dir string) (*Cache, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return &Cache{db: db}, nil
}

// OpenInMemory opens a cache that lives only for the lifetime of the
// process. used in tests.
func OpenInMemory() (*Cache, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	_, span := tracer.Start(ctx, "get")
	defer span.End()
	span.SetAttributes(attribute.String("cache_key", key))

	tx := c.db.NewTransaction(false)
	defer tx.Discard()

	item, err := tx.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read item from badger")
		return nil, err
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to copy cached item")
		return nil, err
	}
	return value, nil
}

func (c *Cache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, span := tracer.Start(ctx, "put")
	defer span.End()
	span.SetAttributes(
		attribute.String("cache_key", key),
		attribute.Int("value_length", len(value)),
	)

	err := c.db.Update(func(tx *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return tx.SetEntry(entry)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set badger item")
		return err
	}
	return nil
}

func (c *Cache) Has(ctx context.Context, key string) (bool, error) {
	_, err := c.Get(ctx, key)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Remember returns the cached value under key, or calls producer and
// caches its result before returning it.
func (c *Cache) Remember(
	ctx context.Context,
	key string,
	ttl time.Duration,
	producer func(ctx context.Context) ([]byte, error),
) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "remember")
	defer span.End()
	span.SetAttributes(attribute.String("cache_key", key))

	cached, err := c.Get(ctx, key)
	if err == nil {
		return cached, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	value, err := producer(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "producer failed")
		return nil, err
	}
	err = c.Put(ctx, key, value, ttl)
	if err != nil {
		return nil, err
	}
	return value, nil
}
