package cache

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-redis/redis/v8"
)

// Store persists the serialized cache payload under a single namespaced key.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Close() error
}

// MemoryStore keeps the payload in memory. Used by tests and by the "memory"
// backend.
type MemoryStore struct {
	data []byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) ([]byte, error) {
	return s.data, nil
}

func (s *MemoryStore) Save(ctx context.Context, data []byte) error {
	s.data = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// BadgerStore persists the payload in an embedded badger database. This is
// the default backend: durable, local, single-process.
type BadgerStore struct {
	db  *badger.DB
	key []byte
}

// NewBadgerStore opens (or creates) the badger database at path. inMemory
// skips disk entirely, which tests use.
func NewBadgerStore(path, namespace string, inMemory bool) (*BadgerStore, error) {
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache store: %w", err)
	}
	return &BadgerStore{
		db:  db,
		key: []byte(namespace + ":entries"),
	}, nil
}

func (s *BadgerStore) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *BadgerStore) Save(ctx context.Context, data []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key, data)
	})
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// RedisStore persists the payload under a single redis key, for deployments
// that already run redis next to the service.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to redis at addr.
func NewRedisStore(addr, namespace string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{
		client: client,
		key:    namespace + ":entries",
	}, nil
}

func (s *RedisStore) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RedisStore) Save(ctx context.Context, data []byte) error {
	return s.client.Set(ctx, s.key, data, 0).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
